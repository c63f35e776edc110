package enums

// StockStatus is the derived classification of a group balance.
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusLow        StockStatus = "LOW"
	StockStatusNormal     StockStatus = "NORMAL"
)

func (s StockStatus) String() string {
	return string(s)
}

// NeedsAttention is true for LOW and OUT_OF_STOCK.
func (s StockStatus) NeedsAttention() bool {
	return s == StockStatusLow || s == StockStatusOutOfStock
}
