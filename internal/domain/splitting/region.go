package splitting

import "strings"

// Region is a fulfillment/warehouse grouping key derived from a line item's
// variant label.
type Region string

// RegionOther is the sentinel region for variant labels with no mapping.
const RegionOther Region = "其他"

// String returns the string representation of Region
func (r Region) String() string {
	return string(r)
}

// DefaultRegionTable returns the built-in variant label to region mapping.
// Deployments override it via configuration; unmapped labels classify as
// RegionOther.
func DefaultRegionTable() map[string]Region {
	return map[string]Region{
		"天壇天公廟": "台南",
		"艋舺龍山寺": "台北",
		"慈鳳宮":   "屏東",
		"聖帝廟":   "屏東",
		"屏東孔廟":  "屏東",
		"佛光山":   "高雄",
	}
}

// Classifier maps variant labels to fulfillment regions using a fixed table.
// Classification is pure and total: it never fails and performs no I/O.
type Classifier struct {
	table map[string]Region
}

// NewClassifier creates a Classifier from the given label table. Keys are
// trimmed; a nil or empty table classifies everything as RegionOther.
func NewClassifier(table map[string]Region) *Classifier {
	c := &Classifier{table: make(map[string]Region, len(table))}
	for label, region := range table {
		label = strings.TrimSpace(label)
		if label == "" || region == "" {
			continue
		}
		c.table[label] = region
	}
	return c
}

// NewDefaultClassifier creates a Classifier with the built-in region table.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultRegionTable())
}

// Classify returns the region for a variant label. Whitespace is trimmed
// before lookup; empty or unmapped labels yield RegionOther.
func (c *Classifier) Classify(variantLabel string) Region {
	label := strings.TrimSpace(variantLabel)
	if label == "" {
		return RegionOther
	}
	if region, ok := c.table[label]; ok {
		return region
	}
	return RegionOther
}

// Regions returns the distinct regions in the table, for diagnostics.
func (c *Classifier) Regions() []Region {
	seen := make(map[Region]struct{}, len(c.table))
	regions := make([]Region, 0, len(c.table))
	for _, region := range c.table {
		if _, ok := seen[region]; ok {
			continue
		}
		seen[region] = struct{}{}
		regions = append(regions, region)
	}
	return regions
}
