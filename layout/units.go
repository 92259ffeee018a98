package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers shared by the renderers.
// Layout works in inches; the PDF renderer needs mm, the PPTX writer needs EMU.

// Unit represents the unit of a length value.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, treated as inches
	UnitIN               // inches
	UnitMM               // millimeters
	UnitPT               // points
	UnitEMU              // English Metric Units (Office Open XML)
)

// Conversion constants.
const (
	MmPerInch  = 25.4
	PtPerInch  = 72.0
	EmuPerInch = 914400
	PtToMm     = MmPerInch / PtPerInch
	MmToPt     = 1.0 / PtToMm
)

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// inches 先统一换算为英寸。
func (l Length) inches() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value / MmPerInch
	case UnitPT:
		return l.Value / PtPerInch
	case UnitEMU:
		return l.Value / EmuPerInch
	default:
		return l.Value
	}
}

// To converts this length to the target unit.
func (l Length) To(target Unit) float64 {
	if l.Unit == target {
		return l.Value
	}
	in := l.inches()
	switch target {
	case UnitMM:
		return in * MmPerInch
	case UnitPT:
		return in * PtPerInch
	case UnitEMU:
		return in * EmuPerInch
	default:
		return in
	}
}

func (l Length) ToIN() float64 { return l.To(UnitIN) }
func (l Length) ToMM() float64 { return l.To(UnitMM) }
func (l Length) ToPT() float64 { return l.To(UnitPT) }

// InchToMM 将英寸转换为毫米。
func InchToMM(v float64) float64 { return v * MmPerInch }

// InchToEMU 将英寸转换为 EMU 并取整。
func InchToEMU(v float64) int64 { return int64(v*EmuPerInch + 0.5) }

// ParseLength parses a length string such as "0.35in", "8.9mm" or "12pt".
// A bare number is read as inches. The second result is false when the
// string cannot be parsed.
func ParseLength(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"emu", UnitEMU}, {"mm", UnitMM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}
