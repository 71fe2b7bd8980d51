package ffd

import (
	"fmt"
	"reflect"
)

// Kind is the display classification of a wire value. It is used
// only to render untyped data for diagnostics, and has no effect on
// encoding.
type Kind uint8

const (
	KindBytes Kind = iota
	KindInt
	KindDecimal
	KindString
	KindContainer
)

var kindNames = map[Kind]string{
	KindBytes:     "bytes",
	KindInt:       "int",
	KindDecimal:   "decimal",
	KindString:    "string",
	KindContainer: "container",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(bs []byte) error {
	for kind, name := range kindNames {
		if name == string(bs) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", bs)
}

// Kinder is the interface implemented by types that declare their
// own display classification.
//
// KindFFD is invoked on zero values of the Kinder, and must return a
// constant value.
type Kinder interface {
	KindFFD() Kind
}

var kinderType = reflect.TypeFor[Kinder]()

// kindFor returns the display classification of values of type t.
func kindFor(t reflect.Type) Kind {
	if t.Implements(kinderType) {
		return reflect.Zero(t).Interface().(Kinder).KindFFD()
	} else if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(kinderType) {
		return reflect.New(t).Interface().(Kinder).KindFFD()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return kindFor(t.Elem())
	case reflect.Bool, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.String:
		return KindString
	case reflect.Struct:
		return KindContainer
	}
	return KindBytes
}

// Catalog maps field tags to the display classification of their
// values.
type Catalog interface {
	KindOf(tag uint16) Kind
}

// Kinds is a [Catalog] backed by a map. Tags missing from the map are
// [KindBytes].
type Kinds map[uint16]Kind

func (k Kinds) KindOf(tag uint16) Kind {
	return k[tag]
}

// KindsFor returns the catalog of tags used by the record types of
// the given sample values, including tags of nested records.
func KindsFor(samples ...any) (Kinds, error) {
	ret := Kinds{}
	seen := map[reflect.Type]bool{}
	for _, s := range samples {
		if err := ret.addType(derefType(reflect.TypeOf(s)), seen); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func (k Kinds) addType(t reflect.Type, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true
	info, err := getStructInfo(t)
	if err != nil {
		return err
	}
	for _, f := range info.Fields {
		kind := kindFor(f.Elem)
		if prev, ok := k[f.Tag]; ok && prev != kind {
			return fmt.Errorf("tag %d is %s in %s.%s, but %s elsewhere", f.Tag, kind, info.Name, f.Name, prev)
		}
		k[f.Tag] = kind
		if et := derefType(f.Elem); isRecordType(et) {
			if err := k.addType(et, seen); err != nil {
				return err
			}
		}
	}
	return nil
}
