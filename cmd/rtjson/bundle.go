package main

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/internal/archive"
	"github.com/FocuswithJustin/rtjson/internal/ingest"
	"github.com/FocuswithJustin/rtjson/internal/logging"
	"github.com/FocuswithJustin/rtjson/internal/validation"
)

// bundleIndex lists the records of an exported bundle.
const bundleIndex = "index.json"

// ImportCmd converts and stores every source document in a bundle.
type ImportCmd struct {
	Archive string `arg:"" help:"Bundle to import (.tar.xz or .tar.gz)" type:"existingfile"`

	EncodeFlags `embed:""`
}

func (c *ImportCmd) Run(g *Globals) error {
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

	opts := c.apply(cfg.Encoding.Options())
	limit := int64(cfg.Encoding.MaxInputBytes)
	imported, skipped, failed := 0, 0, 0

	err = archive.Walk(c.Archive, func(h *tar.Header, r io.Reader) (bool, error) {
		format, err := ingest.DetectFormat(h.Name)
		if err != nil {
			skipped++
			return false, nil
		}
		if limit > 0 {
			// One byte over the cap so that Convert reports the limit.
			r = io.LimitReader(r, limit+1)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return true, errors.Wrapf(err, "failed to read %s", h.Name)
		}

		if err := validation.ValidateSource(data); err != nil {
			failed++
			logging.Warn("import entry rejected", "entry", h.Name, "error", err)
			return false, nil
		}
		doc, err := ingest.Convert(format, data, opts, cfg.Encoding.MaxInputBytes)
		if err != nil {
			failed++
			logging.ConversionFailed(ctx, string(format), err)
			fmt.Fprintf(stdout, "Failed: %s: %v\n", h.Name, err)
			return false, nil
		}

		name := path.Base(h.Name)
		name = strings.TrimSuffix(name, path.Ext(name))
		rec, err := lib.Put(ctx, name, string(format), doc)
		if err != nil {
			return true, errors.Wrapf(err, "failed to store %s", h.Name)
		}
		logging.DocumentStored(ctx, rec.ID, rec.Name, rec.SHA256, rec.Size)
		fmt.Fprintf(stdout, "Imported: %s (%s)\n", rec.Name, rec.ID)
		imported++
		return false, nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Imported %d, skipped %d, failed %d\n", imported, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d documents in %s could not be imported", failed, c.Archive)
	}
	return nil
}

// ExportCmd writes every stored document to a bundle, with an index of
// their records.
type ExportCmd struct {
	Archive string `arg:"" help:"Bundle to write (.tar.xz or .tar.gz)" type:"path"`
}

func (c *ExportCmd) Run(g *Globals) error {
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

	// The newest record fixes the entry mtime, so an unchanged library
	// exports to identical bytes.
	modTime := time.Unix(0, 0)
	for _, r := range records {
		if r.CreatedAt.After(modTime) {
			modTime = r.CreatedAt
		}
	}

	w, err := archive.NewWriter(c.Archive, modTime)
	if err != nil {
		return err
	}
	for _, r := range records {
		_, data, err := lib.Raw(ctx, r.ID)
		if err != nil {
			w.Close()
			return errors.Wrapf(err, "failed to read %s", r.ID)
		}
		if err := w.AddFile("documents/"+r.ID+".json", data); err != nil {
			w.Close()
			return err
		}
	}
	index, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		w.Close()
		return err
	}
	if err := w.AddFile(bundleIndex, index); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Exported %d documents to %s\n", len(records), c.Archive)
	return nil
}
