package metrics

import (
	"github.com/shopspring/decimal"
	"keeperx/engine/library"
)

// asFloat converts a base-unit decimal string to whole KPX. Precision loss is fine for
// dashboards.
func asFloat(baseUnits string) float64 {
	d, err := decimal.NewFromString(baseUnits)
	if err != nil {
		return 0
	}
	f, _ := d.Shift(-library.Decimals).Float64()
	return f
}

func tokens(n library.Notification) float64 {
	if n.Amount == nil {
		return 0
	}
	return asFloat(n.Amount.Dec())
}
