package inventory

import "github.com/angelmondragon/bloodbank-backend/pkg/enums"

// Classify derives the stock status of a balance against its threshold.
// Zero is always OUT_OF_STOCK; a balance equal to the threshold is NORMAL.
func Classify(units, threshold int) enums.StockStatus {
	switch {
	case units <= 0:
		return enums.StockStatusOutOfStock
	case units < threshold:
		return enums.StockStatusLow
	default:
		return enums.StockStatusNormal
	}
}
