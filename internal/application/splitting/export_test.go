package splitting

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zenheart/ordersync/internal/domain/splitting"
)

type mockObjectStorage struct {
	key         string
	data        []byte
	contentType string
	uploadErr   error
}

func (m *mockObjectStorage) Upload(_ context.Context, key string, data []byte, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.key = key
	m.data = data
	m.contentType = contentType
	return nil
}

func parseExportCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "csv must start with UTF-8 BOM")
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportService_Export_EmptySelection(t *testing.T) {
	subRepo := newMockSubOrderRepository()
	service := NewExportService(testShopID, subRepo, nil, splitting.ExportOptions{}, zap.NewNop())

	result, err := service.Export(context.Background(), splitting.ExportFilter{})

	require.NoError(t, err)
	assert.Equal(t, 1, result.RowCount)

	rows := parseExportCSV(t, result.Data)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 20)
	assert.Equal(t, "订单号", rows[0][0])
}

func TestExportService_Export_RendersSubOrders(t *testing.T) {
	rawRepo := newMockRawOrderRepository()
	subRepo := newMockSubOrderRepository()
	splitSvc := newTestService(&mockOrderSource{}, rawRepo, subRepo)

	order := testRawOrder(700)
	_, err := splitSvc.IngestSnapshot(context.Background(), testPayload(t, order))
	require.NoError(t, err)

	service := NewExportService(testShopID, subRepo, nil, splitting.ExportOptions{ShopAccount: "旗舰店"}, zap.NewNop())
	result, err := service.Export(context.Background(), splitting.ExportFilter{})

	require.NoError(t, err)
	rows := parseExportCSV(t, result.Data)

	// Header plus one row per line item across both sub-orders.
	require.Len(t, rows, 3)
	assert.Equal(t, result.RowCount, len(rows))
	assert.Equal(t, "旗舰店", rows[1][1])
	// Warehouse falls back to the default when not configured.
	assert.Equal(t, "默认仓库", rows[1][7])
}

func TestExportService_ExportToStorage(t *testing.T) {
	rawRepo := newMockRawOrderRepository()
	subRepo := newMockSubOrderRepository()
	splitSvc := newTestService(&mockOrderSource{}, rawRepo, subRepo)

	order := testRawOrder(701)
	_, err := splitSvc.IngestSnapshot(context.Background(), testPayload(t, order))
	require.NoError(t, err)

	storage := &mockObjectStorage{}
	service := NewExportService(testShopID, subRepo, storage, splitting.ExportOptions{}, zap.NewNop())

	result, err := service.ExportToStorage(context.Background(), splitting.ExportFilter{})

	require.NoError(t, err)
	assert.NotEmpty(t, result.StorageKey)
	assert.Equal(t, result.StorageKey, storage.key)
	assert.Regexp(t, `^exports/suborders-\d{8}T\d{6}Z\.csv$`, storage.key)
	assert.Equal(t, "text/csv; charset=utf-8", storage.contentType)
	assert.Equal(t, result.Data, storage.data)
}

func TestExportService_ExportToStorage_NotConfigured(t *testing.T) {
	service := NewExportService(testShopID, newMockSubOrderRepository(), nil, splitting.ExportOptions{}, zap.NewNop())

	result, err := service.ExportToStorage(context.Background(), splitting.ExportFilter{})

	assert.Nil(t, result)
	assert.Error(t, err)
}
