package notifier

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"CardWatch/internal/model"
)

// TimeLayout is the wall-clock format embedded in change messages.
const TimeLayout = "2006-01-02 15:04:05"

// FormatChange formats a balance change into the SMS text.
func FormatChange(obs *model.Observation) string {
	return fmt.Sprintf("Edenred %s. Previous %s. Current %s. Delta %s.",
		obs.At.Format(TimeLayout),
		amount(obs.Previous),
		amount(obs.Current),
		delta(obs.Previous, obs.Current))
}

// FormatDiagnostic formats the tab-separated comparison line printed on every run.
func FormatDiagnostic(obs *model.Observation) string {
	return fmt.Sprintf("%s\t%s\t%s", obs.At.Format(time.RFC3339), amount(obs.Previous), amount(obs.Current))
}

// amount renders v with two decimals when it is exact to the cent, and with its
// shortest exact form otherwise, so 10.004 stays 10.004 and 33.199999... never appears.
func amount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return render(decimal.NewFromFloat(v))
}

// delta subtracts in decimal so the message shows 0.003 rather than 0.0030000000000001137.
func delta(previous, current float64) string {
	if math.IsNaN(previous) || math.IsInf(previous, 0) || math.IsNaN(current) || math.IsInf(current, 0) {
		return amount(current - previous)
	}
	return render(decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(previous)))
}

func render(d decimal.Decimal) string {
	if d.Equal(d.Round(2)) {
		return d.StringFixed(2)
	}
	return d.String()
}
