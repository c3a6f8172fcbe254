package engine

import (
	"fmt"
	"math"
	"strings"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "$",
	"AUD": "$",
	"GBP": "£",
	"EUR": "€",
	"JPY": "¥",
}

func currencySymbol(code string) string {
	if symbol, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return symbol
	}
	return "$"
}

// formatMoney renders an amount with cents, trimming a ".00" tail so labels
// read "$25" rather than "$25.00".
func formatMoney(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(s, ".00")
	return s
}

// bandLabel renders a human-readable value range. Bands are inclusive on the
// upper bound, so interior lower bounds display one cent above the cut below.
func bandLabel(symbol string, lower float64, upper *float64, first bool) string {
	lowDisp := lower + 0.01
	if first {
		lowDisp = lower
	}
	if upper == nil {
		return fmt.Sprintf("%s%s+", symbol, formatMoney(lowDisp))
	}
	return fmt.Sprintf("%s%s–%s%s", symbol, formatMoney(lowDisp), symbol, formatMoney(*upper))
}

// niceThresholdAbove rounds a value up to the next "round" price point that a
// merchant would plausibly set as a free-shipping minimum.
func niceThresholdAbove(v float64) float64 {
	step := 5.0
	switch {
	case v >= 500:
		step = 50
	case v >= 100:
		step = 25
	case v >= 50:
		step = 10
	}
	t := math.Ceil(v/step) * step
	if t <= v {
		t += step
	}
	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
