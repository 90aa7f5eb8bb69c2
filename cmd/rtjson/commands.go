package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/rtjson/core/cmarkxml"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
	"github.com/FocuswithJustin/rtjson/core/sexpr"
	"github.com/FocuswithJustin/rtjson/core/sqlite"
	"github.com/FocuswithJustin/rtjson/internal/api"
	"github.com/FocuswithJustin/rtjson/internal/config"
	"github.com/FocuswithJustin/rtjson/internal/ingest"
	"github.com/FocuswithJustin/rtjson/internal/logging"
)

// EncodeFlags adjust the configured encoder options for one run.
type EncodeFlags struct {
	HardBreaks    bool `name:"hard-breaks" help:"Emit soft line breaks as hard breaks"`
	TagFilter     bool `name:"tag-filter" help:"Neutralize dangerous raw HTML tags"`
	JoinCodeLines bool `name:"join-code-lines" help:"Emit each code block as a single raw unit"`
}

func (f EncodeFlags) apply(opts rtjson.Options) rtjson.Options {
	if f.HardBreaks {
		opts.HardBreaks = true
	}
	if f.TagFilter {
		opts.TagFilter = true
	}
	if f.JoinCodeLines {
		opts.SplitCodeLines = false
	}
	return opts
}

// ConvertCmd converts one document and prints the JSON.
type ConvertCmd struct {
	Input  string `arg:"" optional:"" help:"Input file, or - for standard input" default:"-"`
	From   string `short:"f" help:"Input format (markdown, xml, sexpr); detected when omitted" default:"auto"`
	Out    string `short:"o" help:"Output file (default: standard output)" type:"path"`
	Indent bool   `short:"i" help:"Indent the JSON output"`

	EncodeFlags `embed:""`
}

func (c *ConvertCmd) Run(g *Globals) error {
	cfg, closer, err := g.setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	data, err := readInput(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	format, err := inputFormat(c.From, c.Input, data)
	if err != nil {
		return err
	}

	ctx := context.Background()
	start := time.Now()
	doc, err := ingest.Convert(format, data, c.apply(cfg.Encoding.Options()), cfg.Encoding.MaxInputBytes)
	if err != nil {
		logging.ConversionFailed(ctx, string(format), err)
		return fmt.Errorf("failed to convert %s: %w", c.Input, err)
	}
	logging.Conversion(ctx, string(format), len(data), len(doc.Content), time.Since(start))

	w, done, err := createOutput(c.Out)
	if err != nil {
		return err
	}
	if err := writeDocument(w, doc, c.Indent); err != nil {
		done()
		return err
	}
	return done()
}

func writeDocument(w io.Writer, doc *rtjson.Document, indent bool) error {
	if !indent {
		return rtjson.Write(w, doc)
	}
	data, err := rtjson.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// TreeCmd prints the parsed document tree without encoding it. This shows
// what the adapters produced from the input.
type TreeCmd struct {
	Input string `arg:"" optional:"" help:"Input file, or - for standard input" default:"-"`
	From  string `short:"f" help:"Input format (markdown, xml, sexpr); detected when omitted" default:"auto"`
	To    string `short:"t" help:"Output syntax" enum:"sexpr,xml" default:"sexpr"`
	Out   string `short:"o" help:"Output file (default: standard output)" type:"path"`
}

func (c *TreeCmd) Run() error {
	data, err := readInput(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	format, err := inputFormat(c.From, c.Input, data)
	if err != nil {
		return err
	}
	tree, err := ingest.Parse(format, data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", c.Input, err)
	}

	w, done, err := createOutput(c.Out)
	if err != nil {
		return err
	}
	if c.To == "xml" {
		err = cmarkxml.Write(w, tree)
	} else {
		err = sexpr.Print(w, tree)
	}
	if err != nil {
		done()
		return err
	}
	return done()
}

// StoreCmd converts a document and saves it in the library.
type StoreCmd struct {
	Input string `arg:"" help:"Input file, or - for standard input"`
	From  string `short:"f" help:"Input format (markdown, xml, sexpr); detected when omitted" default:"auto"`
	Name  string `short:"n" help:"Document name (default: input file name)"`

	EncodeFlags `embed:""`
}

func (c *StoreCmd) Run(g *Globals) error {
	cfg, closer, err := g.setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	name := c.Name
	if name == "" {
		if c.Input == "-" {
			return fmt.Errorf("--name is required when reading standard input")
		}
		name = strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input))
	}

	data, err := readInput(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	format, err := inputFormat(c.From, c.Input, data)
	if err != nil {
		return err
	}
	doc, err := ingest.Convert(format, data, c.apply(cfg.Encoding.Options()), cfg.Encoding.MaxInputBytes)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", c.Input, err)
	}

	ctx := context.Background()
	lib, err := openLibrary(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	rec, err := lib.Put(ctx, name, string(format), doc)
	if err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}
	logging.DocumentStored(ctx, rec.ID, rec.Name, rec.SHA256, rec.Size)

	fmt.Fprintf(stdout, "Stored: %s\n", rec.Name)
	fmt.Fprintf(stdout, "  ID: %s\n", rec.ID)
	fmt.Fprintf(stdout, "  Format: %s\n", rec.Format)
	fmt.Fprintf(stdout, "  SHA-256: %s\n", rec.SHA256)
	fmt.Fprintf(stdout, "  BLAKE3: %s\n", rec.BLAKE3)
	fmt.Fprintf(stdout, "  Size: %d bytes\n", rec.Size)
	return nil
}

// GetCmd prints a stored document.
type GetCmd struct {
	ID     string `arg:"" help:"Document ID"`
	Out    string `short:"o" help:"Output file (default: standard output)" type:"path"`
	Indent bool   `short:"i" help:"Indent the JSON output"`
}

func (c *GetCmd) Run(g *Globals) error {
	cfg, closer, err := g.setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	lib, err := openLibrary(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	w, done, err := createOutput(c.Out)
	if err != nil {
		return err
	}
	if c.Indent {
		_, doc, err := lib.Get(ctx, c.ID)
		if err == nil {
			err = writeDocument(w, doc, true)
		}
		if err != nil {
			done()
			return err
		}
		return done()
	}

	// Stored bytes are already canonical JSON.
	_, data, err := lib.Raw(ctx, c.ID)
	if err == nil {
		_, err = fmt.Fprintf(w, "%s\n", data)
	}
	if err != nil {
		done()
		return err
	}
	return done()
}

// ListCmd lists stored documents.
type ListCmd struct {
	JSON bool `help:"Print records as JSON"`
}

func (c *ListCmd) Run(g *Globals) error {
	cfg, closer, err := g.setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	lib, err := openLibrary(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	records, err := lib.List(ctx)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(stdout, "No documents stored")
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFORMAT\tSIZE\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.Name, r.Format, r.Size, r.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// DeleteCmd removes a stored document.
type DeleteCmd struct {
	ID string `arg:"" help:"Document ID"`
}

func (c *DeleteCmd) Run(g *Globals) error {
	cfg, closer, err := g.setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	lib, err := openLibrary(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	if err := lib.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("failed to delete %s: %w", c.ID, err)
	}
	fmt.Fprintf(stdout, "Deleted: %s\n", c.ID)
	return nil
}

// ServeCmd starts the API server and blocks until interrupted.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address, overrides server.addr"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, closer, err := g.setup()
	if err != nil {
		return err
	}
	defer closer.Close()
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, err := openLibrary(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer lib.Close()

	return api.New(cfg, lib, version).Run(ctx)
}

// ConfigGroup contains configuration file operations.
type ConfigGroup struct {
	Init ConfigInitCmd `cmd:"" help:"Write a default config file"`
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration"`
}

// ConfigInitCmd writes the default configuration.
type ConfigInitCmd struct {
	Force bool `help:"Overwrite an existing config file"`
}

func (c *ConfigInitCmd) Run(g *Globals) error {
	path, err := config.Write(g.ConfigFile, config.Default(), c.Force)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote config: %s\n", path)
	return nil
}

// ConfigShowCmd prints the configuration after file, environment and flag
// overrides.
type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(g *Globals) error {
	cfg, closer, err := g.setup()
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Server.Auth.APIKey != "" {
		cfg.Server.Auth.APIKey = "********"
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "rtjson version %s\n", version)
	fmt.Fprintf(stdout, "  SQLite driver: %s (%s)\n", sqlite.DriverName(), sqlite.DriverType())
	fmt.Fprintf(stdout, "  Formats: %s\n", strings.Join(formatNames(), ", "))
	return nil
}

func formatNames() []string {
	names := make([]string, len(ingest.Formats))
	for i, f := range ingest.Formats {
		names[i] = string(f)
	}
	return names
}
