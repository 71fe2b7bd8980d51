package ffd

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/ffd/fragments"
)

// EnumDomain is the closed set of documented values of an enumerated
// wire type.
//
// Decoding never fails on an undocumented value. Depending on how the
// domain was constructed, an undocumented value is either retained
// as-is, so that it re-encodes to the same bytes, or replaced with a
// fixed sentinel, which is what it re-encodes to.
//
// Enumerated types typically implement [Marshaler] and [Unmarshaler]
// by calling a package-level EnumDomain:
//
//	type PaymentKind uint8
//
//	var paymentKinds = ffd.RetainUnknown[PaymentKind]("PaymentKind", 1, 2, 3)
//
//	func (p PaymentKind) MarshalFFD() ([]byte, error) { return paymentKinds.Encode(p), nil }
//	func (p *PaymentKind) UnmarshalFFD(bs []byte) (err error) {
//	    *p, err = paymentKinds.Decode(bs)
//	    return err
//	}
type EnumDomain[T ~uint8 | ~uint16] struct {
	name     string
	known    mapset.Set[T]
	retain   bool
	sentinel T
}

// RetainUnknown returns a domain of the given documented values, in
// which undocumented values decode unchanged.
func RetainUnknown[T ~uint8 | ~uint16](name string, known ...T) *EnumDomain[T] {
	return &EnumDomain[T]{
		name:   name,
		known:  mapset.New(known...),
		retain: true,
	}
}

// SentinelUnknown returns a domain of the given documented values, in
// which undocumented values decode as sentinel.
func SentinelUnknown[T ~uint8 | ~uint16](name string, sentinel T, known ...T) *EnumDomain[T] {
	return &EnumDomain[T]{
		name:     name,
		known:    mapset.New(known...),
		sentinel: sentinel,
	}
}

// Known reports whether v is a documented value of the domain.
func (d *EnumDomain[T]) Known(v T) bool {
	return d.known.Has(v)
}

// Decode decodes a wire payload into a value of the domain.
//
// Decode fails only if the payload is wider than T.
func (d *EnumDomain[T]) Decode(bs []byte) (T, error) {
	u, err := fragments.Trimmed(bs, int(reflect.TypeFor[T]().Size()))
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", d.name, rangeErr(err))
	}
	v := T(u)
	if d.retain || d.known.Has(v) {
		return v, nil
	}
	return d.sentinel, nil
}

// Encode returns the wire payload of v.
func (d *EnumDomain[T]) Encode(v T) []byte {
	return fragments.AppendTrimmed([]byte{}, uint64(v))
}

// Format returns a diagnostic rendering of v, using names for
// documented values.
func (d *EnumDomain[T]) Format(v T, names map[T]string) string {
	if n, ok := names[v]; ok && d.Known(v) {
		return n
	}
	return fmt.Sprintf("%s(%d)", d.name, uint64(v))
}

// A Flag is one named bit of a flag set.
type Flag struct {
	Name string
	Mask uint64
}

// FlagTable describes the documented bits of a flag set.
//
// Flag sets are plain unsigned integers on the wire. A FlagTable only
// provides names for bits, it never masks off undocumented bits, so
// flag values survive a decode and encode unchanged.
type FlagTable []Flag

// Lookup returns the mask of the named flag.
func (ft FlagTable) Lookup(name string) (mask uint64, ok bool) {
	for _, f := range ft {
		if f.Name == name {
			return f.Mask, true
		}
	}
	return 0, false
}

// Has reports whether bits has the named flag set. Unknown names are
// never set.
func (ft FlagTable) Has(bits uint64, name string) bool {
	mask, ok := ft.Lookup(name)
	return ok && bits&mask == mask
}

// Set returns bits with the named flag set or cleared.
func (ft FlagTable) Set(bits uint64, name string, on bool) (uint64, error) {
	mask, ok := ft.Lookup(name)
	if !ok {
		return bits, fmt.Errorf("unknown flag %q", name)
	}
	if on {
		return bits | mask, nil
	}
	return bits &^ mask, nil
}

// Names returns the names of the documented flags set in bits, in
// table order.
func (ft FlagTable) Names(bits uint64) []string {
	var ret []string
	for _, f := range ft {
		if bits&f.Mask == f.Mask {
			ret = append(ret, f.Name)
		}
	}
	return ret
}

// Unknown returns the bits of bits that no documented flag covers.
func (ft FlagTable) Unknown(bits uint64) uint64 {
	for _, f := range ft {
		bits &^= f.Mask
	}
	return bits
}

// Format returns a diagnostic rendering of bits, such as "A|B|0x80".
func (ft FlagTable) Format(bits uint64) string {
	parts := ft.Names(bits)
	if u := ft.Unknown(bits); u != 0 {
		parts = append(parts, fmt.Sprintf("%#x", u))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}
