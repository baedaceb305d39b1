package types

import "fmt"

// SaleStatus represents whether a product can currently be ordered
type SaleStatus string

const (
	SaleStatusOnSale  SaleStatus = "ON_SALE"
	SaleStatusSoldOut SaleStatus = "SOLD_OUT"
)

// ParseSaleStatus validates and converts a string into a SaleStatus
func ParseSaleStatus(s string) (SaleStatus, error) {
	switch SaleStatus(s) {
	case SaleStatusOnSale, SaleStatusSoldOut:
		return SaleStatus(s), nil
	default:
		return "", fmt.Errorf("unknown sale status %q", s)
	}
}
