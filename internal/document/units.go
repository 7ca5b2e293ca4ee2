package document

import (
	"fmt"
	"math"
)

// Units is the display unit system. Stored geometry is always in inches.
type Units string

const (
	UnitsImperial Units = "imperial"
	UnitsMetric   Units = "metric"
)

const cmPerInch = 2.54

// FormatLength renders a length given in inches.
func (u Units) FormatLength(inches float64) string {
	inches = math.Abs(inches)
	if u == UnitsMetric {
		cm := inches * cmPerInch
		if cm >= 100 {
			return fmt.Sprintf("%.2f m", cm/100)
		}
		return fmt.Sprintf("%.1f cm", cm)
	}
	feet := math.Floor(inches / 12)
	rest := inches - feet*12
	if math.Round(rest*10)/10 >= 12 {
		feet++
		rest = 0
	}
	if feet == 0 {
		return fmt.Sprintf("%.1f in", rest)
	}
	return fmt.Sprintf("%.0f ft %.1f in", feet, rest)
}

// FormatArea renders an area given in square inches.
func (u Units) FormatArea(sqInches float64) string {
	sqInches = math.Abs(sqInches)
	if u == UnitsMetric {
		return fmt.Sprintf("%.2f m²", sqInches*cmPerInch*cmPerInch/10000)
	}
	return fmt.Sprintf("%.2f sq ft", sqInches/144)
}
