package ffd

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"maps"
	"reflect"
	"slices"

	"github.com/danderson/ffd/fragments"
)

// trailerTagThreshold is the tag below which a record ends container
// decoding. Document tags are all 100 or above, and a low tag marks
// the last record before an appended signature.
const trailerTagThreshold = 100

// Container is a structured TLV: an ordered multi-map from tag to one
// or more payloads, plus uninterpreted trailing bytes.
//
// Container is the intermediate form between record types and bytes
// on the wire. Its typed accessors encode and decode values with the
// same rules as [Marshal] and [Unmarshal], and its raw accessors
// expose payloads unchanged.
//
// A Container owns its payloads: accessors copy bytes in and out, so
// data given to or returned by a Container never aliases its
// contents. A Container is not safe for concurrent use.
//
// The zero value is an empty container.
type Container struct {
	fields map[uint16][][]byte
	// Trailer is data appended after all records.
	Trailer []byte
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{fields: map[uint16][][]byte{}}
}

// Decode parses bs into a new container.
//
// Decoding reads records until the input is exhausted, or until it
// reads a record whose tag is less than 100. In the latter case, all
// bytes after that record are stored unparsed in the container's
// Trailer, even if they look like more records.
func Decode(bs []byte) (*Container, error) {
	ret := NewContainer()
	d := fragments.Decoder{In: bs}
	for d.Remaining() > 0 {
		tag, val, err := d.Record()
		if err != nil {
			return nil, err
		}
		ret.fields[tag] = append(ret.fields[tag], val)
		if tag < trailerTagThreshold {
			ret.Trailer = d.Rest()
			break
		}
	}
	return ret, nil
}

// ReadContainer reads all of r and decodes it as a container.
func ReadContainer(r io.Reader) (*Container, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, IOError{err}
	}
	return Decode(bs)
}

// Encode returns the wire encoding of c.
//
// Records are written in ascending tag order. Records sharing a tag
// are written in the order they were added. The Trailer is appended
// verbatim.
func (c *Container) Encode() ([]byte, error) {
	var e fragments.Encoder
	for tag := range c.Tags() {
		for _, val := range c.fields[tag] {
			if err := e.Record(tag, val); err != nil {
				return nil, err
			}
		}
	}
	e.Write(c.Trailer)
	if e.Out == nil {
		e.Out = []byte{}
	}
	return e.Out, nil
}

func (c *Container) MarshalFFD() ([]byte, error) {
	return c.Encode()
}

func (c *Container) UnmarshalFFD(bs []byte) error {
	d, err := Decode(bs)
	if err != nil {
		return err
	}
	*c = *d
	return nil
}

func (*Container) KindFFD() Kind { return KindContainer }

func (c *Container) init() {
	if c.fields == nil {
		c.fields = map[uint16][][]byte{}
	}
}

// Len returns the number of records in c.
func (c *Container) Len() int {
	ret := 0
	for _, vals := range c.fields {
		ret += len(vals)
	}
	return ret
}

// Tags iterates over the tags present in c, in ascending order.
func (c *Container) Tags() iter.Seq[uint16] {
	return slices.Values(slices.Sorted(maps.Keys(c.fields)))
}

// Contains reports whether c has at least one value for tag.
func (c *Container) Contains(tag uint16) bool {
	return len(c.fields[tag]) > 0
}

// Remove deletes all values for tag.
func (c *Container) Remove(tag uint16) {
	delete(c.fields, tag)
}

// SetRaw replaces all values for tag with the single payload bs.
func (c *Container) SetRaw(tag uint16, bs []byte) {
	c.init()
	c.fields[tag] = [][]byte{bytes.Clone(orEmpty(bs))}
}

// PushRaw appends the payload bs to the values for tag.
func (c *Container) PushRaw(tag uint16, bs []byte) {
	c.init()
	c.fields[tag] = append(c.fields[tag], bytes.Clone(orEmpty(bs)))
}

// GetRaw returns the first payload for tag.
func (c *Container) GetRaw(tag uint16) ([]byte, bool) {
	vals := c.fields[tag]
	if len(vals) == 0 {
		return nil, false
	}
	return bytes.Clone(vals[0]), true
}

// GetAllRaw returns all payloads for tag, in the order they were
// added.
func (c *Container) GetAllRaw(tag uint16) [][]byte {
	vals := c.fields[tag]
	if len(vals) == 0 {
		return nil
	}
	ret := make([][]byte, len(vals))
	for i, v := range vals {
		ret[i] = bytes.Clone(v)
	}
	return ret
}

// Set replaces all values for tag with the encoding of v.
func (c *Container) Set(tag uint16, v any) error {
	bs, err := marshalValue(v)
	if err != nil {
		return err
	}
	c.SetRaw(tag, bs)
	return nil
}

// Push appends the encoding of v to the values for tag.
func (c *Container) Push(tag uint16, v any) error {
	bs, err := marshalValue(v)
	if err != nil {
		return err
	}
	c.PushRaw(tag, bs)
	return nil
}

// Get decodes the first value for tag into the value pointed to by
// v. It reports false if c has no value for tag, in which case v is
// unmodified.
func (c *Container) Get(tag uint16, v any) (bool, error) {
	vals := c.fields[tag]
	if len(vals) == 0 {
		val, err := outValue(v)
		if err != nil {
			return false, err
		}
		if _, err := decoderFor(val.Type()); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := unmarshalValue(vals[0], v); err != nil {
		return false, err
	}
	return true, nil
}

// GetAll decodes all values for tag into the slice pointed to by v,
// in the order they were added. If c has no value for tag, the slice
// is set to nil.
func (c *Container) GetAll(tag uint16, v any) error {
	val, err := outValue(v)
	if err != nil {
		return err
	}
	if val.Kind() != reflect.Slice {
		return typeErr(val.Type(), "GetAll requires a pointer to a slice")
	}
	dec, err := decoderFor(val.Type().Elem())
	if err != nil {
		return err
	}
	vals := c.fields[tag]
	if len(vals) == 0 {
		val.SetZero()
		return nil
	}
	out := reflect.MakeSlice(val.Type(), len(vals), len(vals))
	for i, bs := range vals {
		if err := dec(bs, out.Index(i)); err != nil {
			return err
		}
	}
	val.Set(out)
	return nil
}

// FirstNested returns the first value in c that cat classifies as
// [KindContainer] and that successfully decodes as a container,
// scanning tags in ascending order.
func (c *Container) FirstNested(cat Catalog) (tag uint16, nested *Container, ok bool) {
	for tag := range c.Tags() {
		if cat.KindOf(tag) != KindContainer {
			continue
		}
		for _, bs := range c.fields[tag] {
			if ret, err := Decode(bs); err == nil {
				return tag, ret, true
			}
		}
	}
	return 0, nil, false
}

// Equal reports whether c and o hold the same payloads in the same
// per-tag order, and the same trailer.
func (c *Container) Equal(o *Container) bool {
	if c == nil || o == nil {
		return c == o
	}
	if !bytes.Equal(c.Trailer, o.Trailer) {
		return false
	}
	if len(c.fields) != len(o.fields) {
		return false
	}
	for tag, vals := range c.fields {
		if !slices.EqualFunc(vals, o.fields[tag], bytes.Equal) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of c.
func (c *Container) Clone() *Container {
	ret := NewContainer()
	for tag, vals := range c.fields {
		for _, v := range vals {
			ret.PushRaw(tag, v)
		}
	}
	ret.Trailer = bytes.Clone(c.Trailer)
	return ret
}

func (c *Container) String() string {
	return fmt.Sprintf("Container{%d records, %d trailer bytes}", c.Len(), len(c.Trailer))
}

func orEmpty(bs []byte) []byte {
	if bs == nil {
		return []byte{}
	}
	return bs
}
