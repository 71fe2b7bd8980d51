// Package ffdtest provides helpers to build and check wire data in
// tests.
package ffdtest

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Record returns the wire encoding of one TLV record.
func Record(tag uint16, val ...byte) []byte {
	ret := binary.LittleEndian.AppendUint16(nil, tag)
	ret = binary.LittleEndian.AppendUint16(ret, uint16(len(val)))
	return append(ret, val...)
}

// Document returns the wire encoding of a document with the given
// header tag, encoded body and signature.
func Document(tag uint16, body []byte, sig ...byte) []byte {
	ret := binary.LittleEndian.AppendUint16(nil, tag)
	ret = binary.LittleEndian.AppendUint16(ret, uint16(len(body)))
	ret = append(ret, body...)
	return append(ret, sig...)
}

// MustHex decodes s as hex bytes. Whitespace is ignored, and '#'
// starts a comment that runs to the end of the line:
//
//	e8 03 02 00 # tag 1000, length 2
//	68 69       # "hi"
//
// MustHex causes an immediate test failure with t.Fatal if s is not
// valid hex.
func MustHex(t testing.TB, s string) []byte {
	t.Helper()
	var clean strings.Builder
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		clean.WriteString(strings.Join(strings.Fields(line), ""))
	}
	ret, err := hex.DecodeString(clean.String())
	if err != nil {
		t.Fatalf("decoding hex %q: %v", s, err)
	}
	return ret
}

// WriteFile writes bs to a file named name in a temporary directory
// dedicated to the calling test, and returns the file's path.
func WriteFile(t testing.TB, name string, bs []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, bs, 0600); err != nil {
		t.Fatalf("writing test file %q: %v", path, err)
	}
	return path
}

// Golden compares got to the contents of the golden file at path. On
// mismatch, it writes got to path+".got" and reports a line diff.
func Golden(t testing.TB, path string, got []byte) {
	t.Helper()
	want, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading golden file %q: %v", path, err)
		// Continue with an empty golden, so the actual output still
		// gets written.
	}
	if bytes.Equal(got, want) {
		return
	}
	gotPath := path + ".got"
	os.WriteFile(gotPath, got, 0600)
	if diff := cmp.Diff(strings.Split(string(got), "\n"), strings.Split(string(want), "\n")); diff != "" {
		t.Errorf("wrong output (-got+want, got file written to %s):\n%s", gotPath, diff)
	}
}
