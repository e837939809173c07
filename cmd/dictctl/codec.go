package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/fix"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/maruel/subcommands"
)

const (
	fixEncodeUsage  = "fix-encode [-dict file]... [-ns namespace] [-text] <message.json>..."
	fixDecodeUsage  = "fix-decode [-dict file]... -ns namespace [-text] <file>"
	fastEncodeUsage = "fast-encode [-dict file]... [-templates file]... [-ns namespace] [-o out] <message.json>..."
	fastDecodeUsage = "fast-decode [-dict file]... [-templates file]... -ns namespace <frames>"
)

var cmdFIXEncode = &subcommands.Command{
	UsageLine: fixEncodeUsage,
	ShortDesc: "encodes JSON messages as tag=value text",
	LongDesc: `Encodes every JSON message in the given files with the dictionary named
by its namespace, or -ns when it has none. With -text each message is printed
on one line with '|' in place of SOH.`,
	CommandRun: func() subcommands.CommandRun {
		r := &codecRun{usage: fixEncodeUsage, op: fixEncode}
		r.register()
		r.Flags.BoolVar(&r.text, "text", false, "print '|' separated lines instead of raw bytes")
		return r
	},
}

var cmdFIXDecode = &subcommands.Command{
	UsageLine: fixDecodeUsage,
	ShortDesc: "decodes tag=value text to JSON messages",
	LongDesc: `Decodes a raw tag=value message, or with -text one '|' separated message
per line, and prints each as a JSON line.`,
	CommandRun: func() subcommands.CommandRun {
		r := &codecRun{usage: fixDecodeUsage, op: fixDecode}
		r.register()
		r.Flags.BoolVar(&r.text, "text", false, "read '|' separated lines instead of raw bytes")
		return r
	},
}

var cmdFASTEncode = &subcommands.Command{
	UsageLine: fastEncodeUsage,
	ShortDesc: "encodes JSON messages as binary frames",
	LongDesc:  "Encodes every JSON message in the given files as one length-prefixed frame each.",
	CommandRun: func() subcommands.CommandRun {
		r := &codecRun{usage: fastEncodeUsage, op: fastEncode}
		r.register()
		r.Flags.StringVar(&r.out, "o", "", "output file; defaults to stdout")
		return r
	},
}

var cmdFASTDecode = &subcommands.Command{
	UsageLine: fastDecodeUsage,
	ShortDesc: "decodes binary frames to JSON messages",
	LongDesc:  "Reads frames until the end of the input and prints each message as a JSON line.",
	CommandRun: func() subcommands.CommandRun {
		r := &codecRun{usage: fastDecodeUsage, op: fastDecode}
		r.register()
		return r
	},
}

type codecOp func(r *codecRun, cat *catalog.Catalog, out io.Writer, args []string) error

type codecRun struct {
	baseRun
	usage string
	op    codecOp
	ns    string
	text  bool
	out   string
}

func (r *codecRun) register() {
	r.registerCatalogFlags()
	r.Flags.StringVar(&r.ns, "ns", "", "dictionary namespace")
}

func (r *codecRun) Run(a subcommands.Application, args []string, _ subcommands.Env) int {
	if len(args) == 0 {
		return r.argErr(a, r.usage, "no input given")
	}
	cat, err := r.catalog(context.Background())
	if err != nil {
		return r.done(a, err)
	}
	return r.done(a, r.op(r, cat, a.GetOut(), args))
}

func (r *codecRun) entry(cat *catalog.Catalog, ns string) (*catalog.Entry, error) {
	if ns == "" {
		ns = r.ns
	}
	return cat.Lookup(ns)
}

func fixEncode(r *codecRun, cat *catalog.Catalog, out io.Writer, args []string) error {
	return eachMessage(args, func(m *message.Message) error {
		e, err := r.entry(cat, m.Namespace)
		if err != nil {
			return err
		}
		encoded, err := e.FIX.Encode(m)
		if err != nil {
			return err
		}
		if r.text {
			_, err = fmt.Fprintln(out, encoded.String())
		} else {
			_, err = out.Write(encoded.Bytes())
		}
		return err
	})
}

func fixDecode(r *codecRun, cat *catalog.Catalog, out io.Writer, args []string) error {
	e, err := r.entry(cat, "")
	if err != nil {
		return err
	}
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	if !r.text {
		m, err := e.FIX.Unmarshal(data)
		if err != nil {
			return err
		}
		return enc.Encode(m)
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		m, err := e.FIX.Unmarshal(bytes.ReplaceAll(text, []byte("|"), []byte{fix.SOH}))
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return sc.Err()
}

func fastEncode(r *codecRun, cat *catalog.Catalog, out io.Writer, args []string) error {
	if r.out != "" {
		f, err := os.Create(r.out)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	err := eachMessage(args, func(m *message.Message) error {
		e, err := r.entry(cat, m.Namespace)
		if err != nil {
			return err
		}
		return e.FAST.Write(w, m)
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

func fastDecode(r *codecRun, cat *catalog.Catalog, out io.Writer, args []string) error {
	e, err := r.entry(cat, "")
	if err != nil {
		return err
	}
	f, err := openInput(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	in := bufio.NewReader(f)
	enc := json.NewEncoder(out)
	for n := 1; ; n++ {
		m, err := e.FAST.Read(in)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
}

// eachMessage decodes the JSON messages stored back to back in every path.
func eachMessage(paths []string, fn func(*message.Message) error) error {
	for _, p := range paths {
		f, err := openInput(p)
		if err != nil {
			return err
		}
		dec := json.NewDecoder(f)
		for {
			var m message.Message
			err = dec.Decode(&m)
			if errors.Is(err, io.EOF) {
				err = nil
				break
			}
			if err != nil {
				err = fmt.Errorf("%s: %w", p, err)
				break
			}
			if err = fn(&m); err != nil {
				err = fmt.Errorf("%s: message %s: %w", p, m.Name, err)
				break
			}
		}
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// openInput opens path, "-" being stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func readInput(path string) ([]byte, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
