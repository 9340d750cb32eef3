package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	schemagen "github.com/ZyrusAlvez/Schema-Generator"
	"github.com/ZyrusAlvez/Schema-Generator/i18n"
	"github.com/ZyrusAlvez/Schema-Generator/policy"
	"github.com/ZyrusAlvez/Schema-Generator/schema"
	sjson "github.com/ZyrusAlvez/Schema-Generator/source/json"
	sxml "github.com/ZyrusAlvez/Schema-Generator/source/xml"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	if len(args) < 1 {
		c.usage()
		return 2
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "generate":
		return c.generateCmd(ctx, rest)
	case "infer":
		return c.inferCmd(rest)
	case "fingerprint":
		return c.fingerprintCmd(rest)
	case "validate":
		return c.validateCmd(ctx, rest)
	case "dump":
		return c.dumpCmd(rest)
	case "diff":
		return c.diffCmd(rest)
	case "-h", "-help", "--help", "help":
		c.usage()
		return 0
	default:
		c.usage()
		return 2
	}
}

func (c *cli) usage() {
	fmt.Fprintln(c.stderr, `schemagen CLI

Usage:
  schemagen generate [-json dir] [-xml dir] [-json-schemas dir] [-xsd dir] [-config file] [-workers n] [-v]
  schemagen infer [-config file] [-format json|xml] [-ns uri] file
  schemagen fingerprint [-config file] [-format json|xml] file...
  schemagen validate [-format json|xml] -schema artifact file...
  schemagen dump [-outline] file
  schemagen diff a b

Notes:
  - Schemas are stored as <fingerprint>.json / <fingerprint>.xsd and reused for documents of the same shape.
  - The exit status is 1 when any document fails or does not match its schema.`)
}

// common holds the flags shared by the document-processing subcommands.
type common struct {
	config   string
	dup      string
	maxDepth int
	maxBytes int64
	lang     string
	format   string
	verbose  bool
}

func (o *common) register(fs *flag.FlagSet) {
	fs.StringVar(&o.config, "config", "config.json", "policy configuration file (.json, .yaml or .yml); a missing file means no policy")
	fs.StringVar(&o.dup, "dup", "warn", "duplicate JSON key handling: ignore, warn or error")
	fs.IntVar(&o.maxDepth, "max-depth", 0, "maximum nesting depth (0 = unlimited)")
	fs.Int64Var(&o.maxBytes, "max-bytes", 0, "maximum document size in bytes (0 = unlimited)")
	fs.StringVar(&o.lang, "lang", "en", "message language: en or ja")
	fs.StringVar(&o.format, "format", "", "document format: json or xml (default: from the file extension)")
	fs.BoolVar(&o.verbose, "v", false, "enable verbose logs")
}

func (o *common) options(c *cli) (schemagen.Options, error) {
	i18n.SetLanguage(o.lang)
	cfg, err := policy.LoadConfig(o.config)
	if err != nil {
		return schemagen.Options{}, err
	}
	dup, err := parseDup(o.dup)
	if err != nil {
		return schemagen.Options{}, err
	}
	opts := schemagen.Options{
		Config:        cfg,
		DuplicateKeys: dup,
		MaxDepth:      o.maxDepth,
		MaxBytes:      o.maxBytes,
	}
	if o.verbose {
		opts.Logf = c.logf
	}
	return opts, nil
}

// load reads the document at path, taking its format from -format when set.
func (o *common) load(path string) (schemagen.Document, error) {
	if o.format == "" {
		return schemagen.LoadDocument(path)
	}
	f, err := schema.ParseFormat(o.format)
	if err != nil {
		return schemagen.Document{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return schemagen.Document{}, fmt.Errorf("read document: %w", err)
	}
	return schemagen.Document{Name: filepath.Base(path), Format: f, Data: b}, nil
}

func (c *cli) logf(format string, a ...any) {
	fmt.Fprintf(c.stderr, "[schemagen] "+format+"\n", a...)
}

func (c *cli) failf(format string, a ...any) int {
	fmt.Fprintf(c.stderr, format+"\n", a...)
	return 1
}

func parseDup(s string) (sjson.DuplicatePolicy, error) {
	switch strings.ToLower(s) {
	case "ignore":
		return sjson.DuplicateIgnore, nil
	case "", "warn":
		return sjson.DuplicateWarn, nil
	case "error":
		return sjson.DuplicateError, nil
	}
	return 0, fmt.Errorf("unknown -dup value %q", s)
}

func (c *cli) generateCmd(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var o common
	o.register(fs)
	var jsonDir, xmlDir, jsonOut, xsdOut, ns string
	var workers int
	fs.StringVar(&jsonDir, "json", "", "directory of JSON documents")
	fs.StringVar(&xmlDir, "xml", "", "directory of XML documents")
	fs.StringVar(&jsonOut, "json-schemas", "json_schemas", "directory for JSON Schema artifacts")
	fs.StringVar(&xsdOut, "xsd", "xsd", "directory for XSD artifacts")
	fs.StringVar(&ns, "ns", "", "target namespace written into XSD artifacts")
	fs.IntVar(&workers, "workers", 0, "documents processed concurrently (0 = GOMAXPROCS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if jsonDir == "" && xmlDir == "" && fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	opts, err := o.options(c)
	if err != nil {
		return c.failf("generate: %v", err)
	}
	opts.JSONSchemaDir, opts.XSDDir = jsonOut, xsdOut
	opts.TargetNamespace = ns
	opts.Workers = workers

	var paths []string
	for _, dir := range []string{jsonDir, xmlDir} {
		if dir == "" {
			continue
		}
		found, err := collect(dir)
		if err != nil {
			return c.failf("generate: %v", err)
		}
		paths = append(paths, found...)
	}
	paths = append(paths, fs.Args()...)

	var docs []schemagen.Document
	failed := 0
	for _, p := range paths {
		doc, err := schemagen.LoadDocument(p)
		if err != nil {
			fmt.Fprintf(c.stdout, "error %s: %v\n", p, err)
			failed++
			continue
		}
		docs = append(docs, doc)
	}
	c.logIf(o.verbose, "processing %d document(s) with config %s", len(docs), o.config)

	e := schemagen.New(opts)
	invalid, fresh := 0, 0
	for _, out := range e.ProcessBatch(ctx, docs) {
		switch {
		case out.Err != nil:
			failed++
			fmt.Fprintf(c.stdout, "error %v\n", out.Err)
		case !out.Result.Valid:
			invalid++
			fmt.Fprintf(c.stdout, "invalid %s %s: %v\n", out.Name, out.Result.Fingerprint, out.Result.Violations)
		default:
			state := "cached"
			if !out.Result.Cached {
				state = "new"
				fresh++
			}
			fmt.Fprintf(c.stdout, "ok %s %s %s\n", out.Name, out.Result.Fingerprint, state)
		}
		if out.Result != nil {
			for _, w := range out.Result.Warnings {
				fmt.Fprintf(c.stderr, "warning %s: %s at %s: %s\n", out.Name, w.Code, w.Path, w.Message)
			}
		}
	}
	fmt.Fprintf(c.stdout, "%d document(s): %d new schema(s), %d invalid, %d failed\n", len(paths), fresh, invalid, failed)
	if failed > 0 || invalid > 0 {
		return 1
	}
	return 0
}

func (c *cli) logIf(verbose bool, format string, a ...any) {
	if verbose {
		c.logf(format, a...)
	}
}

// collect returns the JSON and XML documents under dir in lexical order.
func collect(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := schema.FormatFromFilename(p); ok {
			out = append(out, p)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

func (c *cli) inferCmd(args []string) int {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var o common
	o.register(fs)
	var ns string
	fs.StringVar(&ns, "ns", "", "target namespace for XSD output (default: the document's root namespace)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	opts, err := o.options(c)
	if err != nil {
		return c.failf("infer: %v", err)
	}
	doc, err := o.load(fs.Arg(0))
	if err != nil {
		return c.failf("infer: %v", err)
	}
	if ns == "" && doc.Format == schema.FormatXML {
		if ns, err = sxml.Namespace(bytes.NewReader(doc.Data)); err != nil {
			return c.failf("infer: %v", err)
		}
	}
	opts.TargetNamespace = ns
	e := schemagen.New(opts)
	frag, fp, err := e.Infer(doc)
	if err != nil {
		return c.failf("infer: %v", err)
	}
	b, err := e.Codec(doc.Format).Encode(fp, frag)
	if err != nil {
		return c.failf("infer: %v", err)
	}
	_, _ = c.stdout.Write(b)
	return 0
}

func (c *cli) fingerprintCmd(args []string) int {
	fs := flag.NewFlagSet("fingerprint", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var o common
	o.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	opts, err := o.options(c)
	if err != nil {
		return c.failf("fingerprint: %v", err)
	}
	e := schemagen.New(opts)
	code := 0
	for _, p := range fs.Args() {
		doc, err := o.load(p)
		if err == nil {
			var fp string
			if fp, err = e.Fingerprint(doc); err == nil {
				fmt.Fprintf(c.stdout, "%s  %s\n", fp, p)
				continue
			}
		}
		code = c.failf("fingerprint: %v", err)
	}
	return code
}

func (c *cli) validateCmd(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var o common
	o.register(fs)
	var artifact string
	fs.StringVar(&artifact, "schema", "", "schema artifact (.json or .xsd) to validate against")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if artifact == "" || fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	opts, err := o.options(c)
	if err != nil {
		return c.failf("validate: %v", err)
	}
	art, err := os.ReadFile(artifact)
	if err != nil {
		return c.failf("validate: %v", err)
	}
	e := schemagen.New(opts)
	code := 0
	for _, p := range fs.Args() {
		doc, err := o.load(p)
		if err != nil {
			code = c.failf("validate: %v", err)
			continue
		}
		res, err := e.ValidateWith(ctx, doc, art)
		if err != nil {
			code = c.failf("validate: %v", err)
			continue
		}
		if res.Valid {
			fmt.Fprintf(c.stdout, "ok %s\n", p)
			continue
		}
		code = 1
		fmt.Fprintf(c.stdout, "invalid %s\n", p)
		for _, v := range res.Violations {
			fmt.Fprintf(c.stdout, "  %s: %s (%s)\n", pathLabel(v.Path), v.Message, v.Code)
		}
	}
	return code
}

func pathLabel(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}

func (c *cli) dumpCmd(args []string) int {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	var outline bool
	fs.BoolVar(&outline, "outline", false, "print one line per path instead of the full tree")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	doc, err := schemagen.LoadDocument(fs.Arg(0))
	if err != nil {
		return c.failf("dump: %v", err)
	}
	var a tree.Adapter = sjson.New(sjson.Options{})
	if doc.Format == schema.FormatXML {
		a = sxml.New(sxml.Options{})
	}
	root, err := a.Parse(bytes.NewReader(doc.Data))
	if err != nil {
		return c.failf("dump: %v", err)
	}
	if !outline {
		tree.Dump(c.stdout, root)
		return 0
	}
	if err := tree.Outline(c.stdout, root); err != nil {
		return c.failf("dump: %v", err)
	}
	return 0
}

func (c *cli) diffCmd(args []string) int {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}
	a, errA := os.ReadFile(fs.Arg(0))
	b, errB := os.ReadFile(fs.Arg(1))
	if err := errors.Join(errA, errB); err != nil {
		return c.failf("diff: %v", err)
	}
	d, err := schema.Diff(fs.Arg(0), a, fs.Arg(1), b)
	if err != nil {
		return c.failf("diff: %v", err)
	}
	if d == "" {
		return 0
	}
	fmt.Fprint(c.stdout, d)
	return 1
}
