// Package loadio implements loader.Loader for CSV files.
package loadio

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"strings"

	"github.com/gnames/gncoleta/internal/ent/loader"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/pkg/config"
)

type loadio struct {
	cfg      config.Config
	names    namer.Normalizer
	src      loader.Sources
	progress io.Writer
}

// Option changes settings of the loader.
type Option func(*loadio)

// OptProgress sets where progress of the taxonomy import is printed.
func OptProgress(w io.Writer) Option {
	return func(l *loadio) {
		l.progress = w
	}
}

// New creates a Loader. Names are normalized by workers before they reach
// the stores, so the normalizer should be backed by a cache shared with
// the stores.
func New(
	cfg config.Config,
	names namer.Normalizer,
	src loader.Sources,
	opts ...Option,
) loader.Loader {
	res := loadio{
		cfg:      cfg,
		names:    names,
		src:      src,
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(&res)
	}
	if res.cfg.JobsNum < 1 {
		res.cfg.JobsNum = 1
	}
	if res.cfg.BatchSize < 1 {
		res.cfg.BatchSize = 1
	}
	return &res
}

// Load imports taxonomy first, then collections, then suggestions.
func (l *loadio) Load(ctx context.Context, t loader.Target) (loader.Report, error) {
	var rep loader.Report
	var err error

	if l.src.Taxonomy != nil {
		slog.Info("Importing taxonomy")
		if err = l.loadTaxonomy(ctx, t, &rep); err != nil {
			return rep, err
		}
	}

	if l.src.Collections != nil {
		slog.Info("Importing collections")
		if err = l.loadCollections(ctx, t, &rep); err != nil {
			return rep, err
		}
	}

	if l.src.Suggestions != nil {
		slog.Info("Importing suggestions")
		if err = l.loadSuggestions(ctx, t, &rep); err != nil {
			return rep, err
		}
	}

	slog.Info("Import is finished",
		"families", rep.Families,
		"genera", rep.Genera,
		"species", rep.Species,
		"collections", rep.Collections,
		"suggestions", rep.Suggestions,
		"rejected", len(rep.Rejected),
	)
	return rep, nil
}

// readCSV calls fn for every row after the header with the line number of
// the row.
func readCSV(
	ctx context.Context,
	src io.Reader,
	name string,
	fn func(line int, row []string) error,
) error {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	// skip header
	_, err := r.Read()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		slog.Error("Cannot read the header", "file", name, "error", err)
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			slog.Error("Cannot read CSV", "file", name, "error", err)
			return err
		}
		line, _ := r.FieldPos(0)
		if err = fn(line, row); err != nil {
			return err
		}
	}
}

// cell returns a trimmed field, or an empty string for a missing column.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
