package ffd

import (
	"encoding/hex"

	"github.com/danderson/ffd/fragments"
)

// Entry is the diagnostic rendering of one untyped record.
type Entry struct {
	Tag  uint16 `yaml:"tag"`
	Kind Kind   `yaml:"kind"`
	// Value is the rendered value: a uint64 for KindInt, a string
	// for KindDecimal and KindString, nil for KindContainer, and a
	// hex string for KindBytes.
	Value any `yaml:"value,omitempty"`
	// Fields are the records of a KindContainer value.
	Fields []Entry `yaml:"fields,omitempty"`
	// Trailer is the hex of a KindContainer value's trailer.
	Trailer string `yaml:"trailer,omitempty"`
}

// Describe renders the records of c using cat to classify tags.
//
// Values that fail to decode as their catalogued kind are rendered as
// KindBytes.
func Describe(c *Container, cat Catalog) []Entry {
	var ret []Entry
	for tag := range c.Tags() {
		kind := cat.KindOf(tag)
		for _, bs := range c.fields[tag] {
			ret = append(ret, describeValue(tag, kind, bs, cat))
		}
	}
	return ret
}

func describeValue(tag uint16, kind Kind, bs []byte, cat Catalog) Entry {
	ret := Entry{Tag: tag, Kind: kind}
	switch kind {
	case KindInt:
		if u, err := fragments.Trimmed(bs, 8); err == nil {
			ret.Value = u
			return ret
		}
	case KindDecimal:
		var d Decimal
		if err := d.UnmarshalFFD(bs); err == nil {
			ret.Value = d.String()
			return ret
		}
	case KindString:
		if s, err := decodeString(bs); err == nil {
			ret.Value = s
			return ret
		}
	case KindContainer:
		if nested, err := Decode(bs); err == nil {
			ret.Fields = Describe(nested, cat)
			if len(nested.Trailer) > 0 {
				ret.Trailer = hex.EncodeToString(nested.Trailer)
			}
			return ret
		}
	}
	ret.Kind = KindBytes
	ret.Value = hex.EncodeToString(bs)
	return ret
}
