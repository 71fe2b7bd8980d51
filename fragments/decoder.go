package fragments

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrEndOfData is the error returned when the input ends partway
// through a value.
var ErrEndOfData = errors.New("unexpected end of data")

// ErrTooWide is the error returned by [Trimmed] when the input has
// more bytes than the target width.
var ErrTooWide = errors.New("integer wider than target")

// A Decoder reads TLV records from a byte slice.
//
// Methods that return byte slices return copies, the results never
// alias In.
type Decoder struct {
	// In is the input to read.
	In []byte

	// offset is the number of bytes consumed off the front of In so
	// far.
	offset int
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.offset
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.In) - d.offset
}

// Read reads n bytes, with no framing.
func (d *Decoder) Read(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, fmt.Errorf("%w: reading %d bytes at offset %d, %d available", ErrEndOfData, n, d.offset, d.Remaining())
	}
	ret := make([]byte, n)
	copy(ret, d.In[d.offset:])
	d.offset += n
	return ret, nil
}

// Rest reads all remaining bytes. It returns nil if there are none.
func (d *Decoder) Rest() []byte {
	if d.Remaining() == 0 {
		return nil
	}
	ret, _ := d.Read(d.Remaining())
	return ret
}

// Uint16 reads a little-endian uint16.
func (d *Decoder) Uint16() (uint16, error) {
	if d.Remaining() < 2 {
		return 0, fmt.Errorf("%w: reading uint16 at offset %d, %d bytes available", ErrEndOfData, d.offset, d.Remaining())
	}
	ret := binary.LittleEndian.Uint16(d.In[d.offset:])
	d.offset += 2
	return ret, nil
}

// Record reads one tag-length-value record.
func (d *Decoder) Record() (tag uint16, val []byte, err error) {
	tag, err = d.Uint16()
	if err != nil {
		return 0, nil, err
	}
	ln, err := d.Uint16()
	if err != nil {
		return 0, nil, err
	}
	val, err = d.Read(int(ln))
	if err != nil {
		return 0, nil, err
	}
	return tag, val, nil
}

// Trimmed decodes a trimmed little-endian unsigned integer of the
// given byte width. Missing high-order bytes are zero. An empty input
// decodes as zero.
func Trimmed(bs []byte, width int) (uint64, error) {
	if len(bs) > width {
		return 0, fmt.Errorf("%w: %d bytes for a %d byte integer", ErrTooWide, len(bs), width)
	}
	var ret uint64
	for i := len(bs) - 1; i >= 0; i-- {
		ret = ret<<8 | uint64(bs[i])
	}
	return ret, nil
}
