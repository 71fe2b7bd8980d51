package ffd

import (
	"reflect"
	"slices"
)

// derefType returns t with all levels of pointer indirection
// removed.
func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// allocSteps splits the field index path idx of struct type t into
// hops. Every hop but the last ends at an embedded struct pointer,
// which may be nil when loading the field.
func allocSteps(t reflect.Type, idx []int) [][]int {
	var (
		ret   [][]int
		start int
	)
	cur := t.Field(idx[0]).Type
	for i, fieldIdx := range idx[1:] {
		if cur.Kind() == reflect.Pointer {
			ret = append(ret, idx[start:i+1])
			start = i + 1
			cur = cur.Elem()
		}
		cur = cur.Field(fieldIdx).Type
	}
	return append(ret, idx[start:])
}

// structFields returns the fields of struct type t, with the fields
// of embedded structs and struct pointers flattened into their
// parent in place of the embedded field. Each field's Index is its
// full path from t.
func structFields(t reflect.Type) []reflect.StructField {
	return appendStructFields(nil, t, nil)
}

func appendStructFields(ret []reflect.StructField, t reflect.Type, parent []int) []reflect.StructField {
	for i := range t.NumField() {
		f := t.Field(i)
		f.Index = append(slices.Clip(parent), i)
		if f.Anonymous && derefType(f.Type).Kind() == reflect.Struct {
			ret = appendStructFields(ret, derefType(f.Type), f.Index)
			continue
		}
		ret = append(ret, f)
	}
	return ret
}
