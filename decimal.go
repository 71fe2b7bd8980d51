package ffd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/danderson/ffd/fragments"
)

// maxDecimalLen is the longest valid decimal encoding: a dot offset
// byte plus an 8 byte mantissa.
const maxDecimalLen = 9

// Decimal is a fixed-point decimal number, Mantissa × 10^-DotOffset.
//
// On the wire, a Decimal is one byte of DotOffset followed by the
// trimmed little-endian encoding of Mantissa.
type Decimal struct {
	Mantissa  uint64
	DotOffset uint8
}

// DecimalFromUint returns the Decimal equal to the integer u.
func DecimalFromUint(u uint64) Decimal {
	return Decimal{Mantissa: u}
}

// ParseDecimal parses a decimal string such as "12.50".
//
// s must be a non-empty sequence of digits with at most one '.'
// separator. Trailing zeros after the separator and a trailing
// separator are dropped, so "12.50" parses as {1250, 2} trimmed to
// {125, 1}.
func ParseDecimal(s string) (Decimal, error) {
	if strings.Count(s, ".") > 1 {
		return Decimal{}, fmt.Errorf("%w: decimal %q has more than one separator", ErrInvalidFormat, s)
	}
	digits := s
	if strings.Contains(s, ".") {
		digits = strings.TrimRight(digits, "0")
		digits = strings.TrimSuffix(digits, ".")
	}
	intPart, frac, _ := strings.Cut(digits, ".")
	if intPart == "" && frac == "" {
		return Decimal{}, fmt.Errorf("%w: decimal %q has no digits", ErrInvalidFormat, s)
	}
	if len(frac) > math.MaxUint8 {
		return Decimal{}, fmt.Errorf("%w: decimal %q has too many fractional digits", ErrNumberOutOfRange, s)
	}
	all := intPart + frac
	for _, r := range all {
		if r < '0' || r > '9' {
			return Decimal{}, fmt.Errorf("%w: decimal %q contains %q", ErrInvalidFormat, s, r)
		}
	}
	m, err := strconv.ParseUint(all, 10, 64)
	if err != nil {
		return Decimal{}, fmt.Errorf("%w: decimal %q: %w", ErrNumberOutOfRange, s, err)
	}
	return Decimal{Mantissa: m, DotOffset: uint8(len(frac))}, nil
}

// Float64 returns the approximate floating point value of d.
func (d Decimal) Float64() float64 {
	return float64(d.Mantissa) / math.Pow10(int(d.DotOffset))
}

func (d Decimal) String() string {
	s := strconv.FormatUint(d.Mantissa, 10)
	off := int(d.DotOffset)
	if off == 0 {
		return s
	}
	if len(s) <= off {
		s = strings.Repeat("0", off-len(s)+1) + s
	}
	return s[:len(s)-off] + "." + s[len(s)-off:]
}

func (d Decimal) MarshalFFD() ([]byte, error) {
	ret := []byte{d.DotOffset}
	return fragments.AppendTrimmed(ret, d.Mantissa), nil
}

func (d *Decimal) UnmarshalFFD(bs []byte) error {
	if len(bs) == 0 {
		return fmt.Errorf("%w: empty decimal", ErrEndOfData)
	}
	if len(bs) > maxDecimalLen {
		return fmt.Errorf("%w: %d byte decimal, max %d", ErrNumberOutOfRange, len(bs), maxDecimalLen)
	}
	m, err := fragments.Trimmed(bs[1:], 8)
	if err != nil {
		return rangeErr(err)
	}
	*d = Decimal{Mantissa: m, DotOffset: bs[0]}
	return nil
}

func (Decimal) KindFFD() Kind { return KindDecimal }
