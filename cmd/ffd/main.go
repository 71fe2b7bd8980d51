package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/danderson/ffd"
	"github.com/kr/pretty"
	"gopkg.in/yaml.v3"
)

var globalArgs struct {
	Hex    bool   `flag:"hex,Input is hexadecimal text rather than raw bytes"`
	Framed bool   `flag:"framed,Input is a document with header and signature, not a bare record sequence"`
	Kinds  string `flag:"kinds,Path to a YAML catalogue of tag kinds"`
}

func main() {
	root := &command.C{
		Name:     "ffd",
		Usage:    "command args...",
		Help:     "Inspect fiscal data format documents.",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:     "dump",
				Usage:    "dump [file]",
				Help:     "Print the records of a document or record sequence.\n\nReads stdin if no file is given, or if file is \"-\".",
				SetFlags: command.Flags(flax.MustBind, &dumpArgs),
				Run:      runDump,
			},
			{
				Name:  "nested",
				Usage: "nested [file]",
				Help: `Print the first nested record sequence.

Scans the tags that the kind catalogue (--kinds) marks as containers,
in ascending order, and prints the first value that parses.`,
				Run: runNested,
			},
			{
				Name:     "canon",
				Usage:    "canon [file]",
				Help:     "Re-encode input with records in canonical tag order.",
				SetFlags: command.Flags(flax.MustBind, &canonArgs),
				Run:      runCanon,
			},
			{
				Name:  "decimal",
				Usage: "decimal value",
				Help:  "Show the wire encoding of a decimal number.",
				Run:   command.Adapt(runDecimal),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := root.NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

var dumpArgs struct {
	Format string `flag:"format,default=text,Output format: text, go or yaml"`
}

// dumpOutput is the rendering of a decoded input.
type dumpOutput struct {
	Header    *uint16     `yaml:"header,omitempty"`
	Records   []ffd.Entry `yaml:"records"`
	Trailer   string      `yaml:"trailer,omitempty"`
	Signature string      `yaml:"signature,omitempty"`
}

func runDump(env *command.Env) error {
	in, err := readInput(env.Args)
	if err != nil {
		return err
	}
	cat, err := loadKinds(globalArgs.Kinds)
	if err != nil {
		return err
	}
	switch dumpArgs.Format {
	case "text", "go", "yaml":
	default:
		return env.Usagef("unknown output format %q", dumpArgs.Format)
	}
	return writeDump(os.Stdout, dumpArgs.Format, newDumpOutput(in, cat))
}

// writeDump renders out to w in the given format.
func writeDump(w io.Writer, format string, out *dumpOutput) error {
	switch format {
	case "text":
		printDump(&indenter{w: w}, out)
	case "go":
		if _, err := pretty.Fprintf(w, "%# v\n", out); err != nil {
			return fmt.Errorf("writing go output: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("writing yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

func runNested(env *command.Env) error {
	in, err := readInput(env.Args)
	if err != nil {
		return err
	}
	cat, err := loadKinds(globalArgs.Kinds)
	if err != nil {
		return err
	}
	return printNested(os.Stdout, in.body, cat)
}

// printNested prints the first nested container of c.
func printNested(out io.Writer, c *ffd.Container, cat ffd.Catalog) error {
	tag, nested, ok := c.FirstNested(cat)
	if !ok {
		return errors.New("no nested record sequence found")
	}
	w := &indenter{w: out}
	w.f("%d:", tag)
	w.indent(1)
	printEntries(w, ffd.Describe(nested, cat))
	return nil
}

var canonArgs struct {
	Raw bool   `flag:"raw,Write raw bytes instead of hex"`
	Out string `flag:"out,default=-,Output file path, or - for stdout"`
}

func runCanon(env *command.Env) error {
	in, err := readInput(env.Args)
	if err != nil {
		return err
	}
	bs, err := in.canonical()
	if err != nil {
		return err
	}
	return writeOutput(canonArgs.Out, bs, canonArgs.Raw)
}

func runDecimal(env *command.Env, value string) error {
	return printDecimal(os.Stdout, value)
}

func printDecimal(w io.Writer, value string) error {
	d, err := ffd.ParseDecimal(value)
	if err != nil {
		return err
	}
	bs, err := d.MarshalFFD()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s = %d × 10^-%d\n", d, d.Mantissa, d.DotOffset)
	fmt.Fprintf(w, "% x\n", bs)
	return nil
}
