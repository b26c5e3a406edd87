// Package models defines the gorm row types backing the raw_orders and
// sub_orders tables. Domain entities stay free of ORM tags; the repository
// layer converts between the two, serializing nested order data as JSONB.
package models
