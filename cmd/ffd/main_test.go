package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/danderson/ffd"
	"github.com/danderson/ffd/internal/ffdtest"
	"github.com/google/go-cmp/cmp"
)

var testKinds = ffd.Kinds{
	1000: ffd.KindInt,
	1001: ffd.KindString,
	1030: ffd.KindString,
	1059: ffd.KindContainer,
}

func testDocument() []byte {
	body := slices.Concat(
		ffdtest.Record(1000, 5),
		ffdtest.Record(1001, 'h', 'i'),
		ffdtest.Record(1059, ffdtest.Record(1030, 'A')...),
	)
	return ffdtest.Document(3, body, 0xaa, 0xbb)
}

func TestDumpText(t *testing.T) {
	in, err := parseInput(testDocument(), false, true)
	if err != nil {
		t.Fatalf("parseInput() got err: %v", err)
	}
	var out bytes.Buffer
	if err := writeDump(&out, "text", newDumpOutput(in, testKinds)); err != nil {
		t.Fatalf("writeDump() got err: %v", err)
	}
	ffdtest.Golden(t, filepath.Join("testdata", "dump.txt"), out.Bytes())
}

func TestDumpFormats(t *testing.T) {
	in, err := parseInput(testDocument(), false, true)
	if err != nil {
		t.Fatalf("parseInput() got err: %v", err)
	}
	dump := newDumpOutput(in, testKinds)

	tests := []struct {
		format string
		want   []string
	}{
		{"yaml", []string{"header: 3", "kind: container", "value: hi", "signature: aabb"}},
		{"go", []string{"dumpOutput", "Signature", "aabb"}},
	}
	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			var out bytes.Buffer
			if err := writeDump(&out, tc.format, dump); err != nil {
				t.Fatalf("writeDump() got err: %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output does not contain %q:\n%s", want, out.String())
				}
			}
		})
	}

	if err := writeDump(&bytes.Buffer{}, "xml", dump); err == nil {
		t.Error("writeDump(xml) succeeded")
	}
	if err := writeDump(failWriter{}, "go", dump); !errors.Is(err, errWriteFailed) {
		t.Errorf("writeDump(go) to failing writer got err %v, want %v", err, errWriteFailed)
	}
}

var errWriteFailed = errors.New("write failed")

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errWriteFailed }

func TestParseInput(t *testing.T) {
	const text = `
e8 03 01 00 05   # 1000 = 5
01 00 00 00      # low tag, the rest is trailer
ff ee
`
	in, err := parseInput([]byte(text), true, false)
	if err != nil {
		t.Fatalf("parseInput() got err: %v", err)
	}
	if in.framed {
		t.Error("bare input parsed as framed")
	}
	if !in.body.Contains(1000) || !in.body.Contains(1) {
		t.Errorf("parsed body missing records: %v", in.body)
	}
	if want := []byte{0xff, 0xee}; !bytes.Equal(in.body.Trailer, want) {
		t.Errorf("Trailer = % x, want % x", in.body.Trailer, want)
	}

	if _, err := parseInput([]byte("e8 0"), true, false); err == nil {
		t.Error("parseInput() accepted odd-length hex")
	}
	if _, err := parseInput([]byte{0xe8, 0x03, 0x05}, false, false); err == nil {
		t.Error("parseInput() accepted a truncated record")
	}
	if _, err := parseInput([]byte{0x03}, false, true); err == nil {
		t.Error("parseInput() accepted a truncated document")
	}
}

func TestCanonical(t *testing.T) {
	body := slices.Concat(ffdtest.Record(1001, 2), ffdtest.Record(1000, 1))
	want := slices.Concat(ffdtest.Record(1000, 1), ffdtest.Record(1001, 2))

	in, err := parseInput(body, false, false)
	if err != nil {
		t.Fatalf("parseInput() got err: %v", err)
	}
	got, err := in.canonical()
	if err != nil {
		t.Fatalf("canonical() got err: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("canonical() wrong output:\n  got: % x\n want: % x", got, want)
	}

	in, err = parseInput(ffdtest.Document(7, body, 0x99), false, true)
	if err != nil {
		t.Fatalf("parseInput(framed) got err: %v", err)
	}
	got, err = in.canonical()
	if err != nil {
		t.Fatalf("canonical(framed) got err: %v", err)
	}
	if want := ffdtest.Document(7, want, 0x99); !bytes.Equal(got, want) {
		t.Errorf("canonical(framed) wrong output:\n  got: % x\n want: % x", got, want)
	}
}

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()

	rawPath := filepath.Join(dir, "raw.bin")
	if err := writeOutput(rawPath, []byte{1, 2}, true); err != nil {
		t.Fatalf("writeOutput(raw) got err: %v", err)
	}
	if got, _ := os.ReadFile(rawPath); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("writeOutput(raw) wrote % x", got)
	}

	hexPath := filepath.Join(dir, "hex.txt")
	if err := writeOutput(hexPath, []byte{1, 2}, false); err != nil {
		t.Fatalf("writeOutput(hex) got err: %v", err)
	}
	if got, _ := os.ReadFile(hexPath); string(got) != "0102\n" {
		t.Errorf("writeOutput(hex) wrote %q", got)
	}
}

func TestLoadKinds(t *testing.T) {
	path := ffdtest.WriteFile(t, "kinds.yaml", []byte(`
1000: int
1001: string
1030: string
1059: container
`))
	got, err := loadKinds(path)
	if err != nil {
		t.Fatalf("loadKinds() got err: %v", err)
	}
	if diff := cmp.Diff(got, testKinds); diff != "" {
		t.Errorf("loadKinds() wrong result (-got+want):\n%s", diff)
	}

	if got, err := loadKinds(""); err != nil || len(got) != 0 {
		t.Errorf("loadKinds(\"\") = %v, %v, want empty catalogue", got, err)
	}
	bad := ffdtest.WriteFile(t, "bad.yaml", []byte("1000: float\n"))
	if _, err := loadKinds(bad); err == nil {
		t.Error("loadKinds() accepted an unknown kind")
	}
}

func TestPrintNested(t *testing.T) {
	in, err := parseInput(testDocument(), false, true)
	if err != nil {
		t.Fatalf("parseInput() got err: %v", err)
	}
	var out bytes.Buffer
	if err := printNested(&out, in.body, testKinds); err != nil {
		t.Fatalf("printNested() got err: %v", err)
	}
	if got, want := out.String(), "1059:\n  1030 (string): \"A\"\n"; got != want {
		t.Errorf("printNested() = %q, want %q", got, want)
	}

	if err := printNested(&bytes.Buffer{}, in.body, ffd.Kinds{}); err == nil {
		t.Error("printNested() with no container kinds succeeded")
	}
}

func TestPrintDecimal(t *testing.T) {
	var out bytes.Buffer
	if err := printDecimal(&out, "12.50"); err != nil {
		t.Fatalf("printDecimal() got err: %v", err)
	}
	if got, want := out.String(), "12.5 = 125 × 10^-1\n01 7d\n"; got != want {
		t.Errorf("printDecimal() = %q, want %q", got, want)
	}
	if err := printDecimal(&out, "1.2.3"); err == nil {
		t.Error("printDecimal() accepted a malformed decimal")
	}
}
