package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/danderson/ffd"
	"gopkg.in/yaml.v3"
)

// indenter writes lines to w, prefixing every line with prefix.
type indenter struct {
	w          io.Writer
	prefix     string
	indentNext bool
}

func (i *indenter) s(msg string) {
	io.WriteString(i, msg+"\n")
}

func (i *indenter) f(msg string, args ...any) {
	fmt.Fprintf(i, msg+"\n", args...)
}

func (i *indenter) Write(bs []byte) (int, error) {
	ret := 0
	for len(bs) > 0 {
		if i.indentNext {
			i.indentNext = false
			_, err := io.WriteString(i.w, i.prefix)
			if err != nil {
				return ret, err
			}
		}

		wr := bs
		idx := bytes.IndexByte(bs, '\n')
		if idx >= 0 {
			i.indentNext = true
			wr, bs = bs[:idx+1], bs[idx+1:]
		} else {
			bs = nil
		}

		n, err := i.w.Write(wr)
		ret += n
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (i *indenter) indent(n int) {
	i.prefix = strings.Repeat("  ", n)
}

// input is a decoded input file.
type input struct {
	framed bool
	header uint16
	body   *ffd.Container
	sig    []byte
}

// readInput reads and decodes the input named by args, according to
// the global flags.
func readInput(args []string) (*input, error) {
	var (
		raw []byte
		err error
	)
	if len(args) == 0 || args[0] == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", ffd.IOError{Err: err})
	}
	return parseInput(raw, globalArgs.Hex, globalArgs.Framed)
}

// parseInput decodes raw as a document if framed is set, or as a
// bare record sequence otherwise. If isHex is set, raw is hex text.
func parseInput(raw []byte, isHex, framed bool) (*input, error) {
	if isHex {
		var err error
		raw, err = parseHex(raw)
		if err != nil {
			return nil, err
		}
	}

	if !framed {
		c, err := ffd.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
		return &input{body: c}, nil
	}
	tag, body, sig, err := ffd.Unframe(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return &input{framed: true, header: tag, body: body, sig: sig}, nil
}

// canonical returns the canonical encoding of in.
func (in *input) canonical() ([]byte, error) {
	var (
		bs  []byte
		err error
	)
	if in.framed {
		bs, err = ffd.Frame(in.header, in.body, in.sig)
	} else {
		bs, err = in.body.Encode()
	}
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	return bs, nil
}

// parseHex decodes hex text, ignoring whitespace and '#' comments.
func parseHex(bs []byte) ([]byte, error) {
	var clean []byte
	for _, line := range bytes.Split(bs, []byte("\n")) {
		line, _, _ = bytes.Cut(line, []byte("#"))
		clean = append(clean, bytes.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, line)...)
	}
	ret := make([]byte, hex.DecodedLen(len(clean)))
	if _, err := hex.Decode(ret, clean); err != nil {
		return nil, fmt.Errorf("decoding hex input: %w", err)
	}
	return ret, nil
}

func writeOutput(path string, bs []byte, raw bool) error {
	if !raw {
		bs = []byte(hex.EncodeToString(bs) + "\n")
	}
	if path == "-" {
		_, err := os.Stdout.Write(bs)
		return err
	}
	if err := os.WriteFile(path, bs, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

// loadKinds reads a YAML kind catalogue, mapping tags to kind names:
//
//	1059: container
//	1020: decimal
//	1048: string
func loadKinds(path string) (ffd.Kinds, error) {
	if path == "" {
		return ffd.Kinds{}, nil
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading kind catalogue: %w", err)
	}
	var ret ffd.Kinds
	if err := yaml.Unmarshal(bs, &ret); err != nil {
		return nil, fmt.Errorf("parsing kind catalogue %s: %w", path, err)
	}
	return ret, nil
}

func newDumpOutput(in *input, cat ffd.Catalog) *dumpOutput {
	ret := &dumpOutput{
		Records: ffd.Describe(in.body, cat),
		Trailer: hex.EncodeToString(in.body.Trailer),
	}
	if in.framed {
		ret.Header = &in.header
		ret.Signature = hex.EncodeToString(in.sig)
	}
	return ret
}

func printDump(w *indenter, out *dumpOutput) {
	if out.Header != nil {
		w.f("header: %d", *out.Header)
	}
	printEntries(w, out.Records)
	w.indent(0)
	if out.Trailer != "" {
		w.f("trailer: %s", out.Trailer)
	}
	if out.Signature != "" {
		w.f("signature: %s", out.Signature)
	}
}

func printEntries(w *indenter, es []ffd.Entry) {
	prefix := w.prefix
	for _, e := range es {
		w.prefix = prefix
		if e.Kind == ffd.KindContainer {
			w.f("%d (%s):", e.Tag, e.Kind)
			w.prefix = prefix + "  "
			printEntries(w, e.Fields)
			if e.Trailer != "" {
				w.prefix = prefix + "  "
				w.f("trailer: %s", e.Trailer)
			}
			continue
		}
		if s, ok := e.Value.(string); ok && e.Kind == ffd.KindString {
			w.f("%d (%s): %q", e.Tag, e.Kind, s)
		} else {
			w.f("%d (%s): %v", e.Tag, e.Kind, e.Value)
		}
	}
	w.prefix = prefix
}
