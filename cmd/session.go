package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/gnames/gncoleta/internal/ent/kv"
	"github.com/gnames/gncoleta/internal/ent/loader"
	"github.com/gnames/gncoleta/internal/ent/metric"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/internal/io/kvio"
	"github.com/gnames/gncoleta/internal/io/metricsio"
	"github.com/gnames/gncoleta/internal/io/nameio"
	"github.com/gnames/gncoleta/internal/str"
	gncoleta "github.com/gnames/gncoleta/pkg"
	"github.com/gnames/gncoleta/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
)

// session holds everything a command needs to work with the stores.
type session struct {
	cfg   config.Config
	cache kv.KeyVal
	names namer.Normalizer
	reg   *prometheus.Registry
	gnc   gncoleta.GNcoleta
}

func newSession() (*session, error) {
	var err error
	res := session{cfg: config.New(opts...)}

	res.cache, err = kvio.New(res.cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	if err = res.cache.Open(); err != nil {
		slog.Error("Cannot open names cache", "error", err)
		return nil, err
	}
	res.names = nameio.New(res.cache)

	rec := metric.Noop()
	if res.cfg.WithMetrics {
		res.reg = prometheus.NewRegistry()
		if rec, err = metricsio.New(res.reg); err != nil {
			slog.Error("Cannot register metrics", "error", err)
			return nil, err
		}
	}

	res.gnc = gncoleta.New(res.cfg,
		gncoleta.OptNormalizer(res.names),
		gncoleta.OptRecorder(rec),
	)
	return &res, nil
}

func (s *session) close() {
	if err := s.cache.Close(); err != nil {
		slog.Warn("Cannot close names cache", "error", err)
	}
}

// openSources opens CSV files, empty paths are skipped. The returned
// function closes the files.
func openSources(taxonomy, collections, suggestions string) (loader.Sources, func(), error) {
	var res loader.Sources
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, v := range []struct {
		path string
		set  func(*os.File)
	}{
		{taxonomy, func(f *os.File) { res.Taxonomy = f }},
		{collections, func(f *os.File) { res.Collections = f }},
		{suggestions, func(f *os.File) { res.Suggestions = f }},
	} {
		if v.path == "" {
			continue
		}
		f, err := os.Open(v.path)
		if err != nil {
			slog.Error("Cannot open CSV file", "path", v.path, "error", err)
			closeAll()
			return res, nil, err
		}
		files = append(files, f)
		v.set(f)
	}
	return res, closeAll, nil
}

func printReport(rep loader.Report) {
	bold := color.New(color.Bold)
	bold.Println("\nImported")
	for _, v := range []struct {
		name string
		num  int
	}{
		{"families", rep.Families},
		{"genera", rep.Genera},
		{"species", rep.Species},
		{"collections", rep.Collections},
		{"suggestions", rep.Suggestions},
		{"propagated", rep.Propagated},
	} {
		fmt.Printf("  %-12s %s\n", v.name, humanize.Comma(int64(v.num)))
	}

	if len(rep.Rejected) == 0 {
		fmt.Printf("\n%s\n", color.New(color.FgGreen).Sprint("No rejected rows"))
		return
	}
	bold.Printf("\nRejected %s rows\n", humanize.Comma(int64(len(rep.Rejected))))
	for _, r := range rep.Rejected {
		st := color.New(color.FgRed).Sprint(r.Status)
		if r.Status == 404 {
			st = color.New(color.FgYellow).Sprint(r.Status)
		}
		fmt.Printf("  %s %s:%d %s\n", st, r.Source, r.Line, str.Shorten(r.Message, 72))
	}
}

// printMetrics prints counters gathered during the session.
func (s *session) printMetrics() {
	if s.reg == nil {
		return
	}
	mfs, err := s.reg.Gather()
	if err != nil {
		slog.Warn("Cannot gather metrics", "error", err)
		return
	}
	color.New(color.Bold).Println("\nMetrics")
	for _, mf := range mfs {
		lines := make([]string, 0, len(mf.GetMetric()))
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			lines = append(lines, fmt.Sprintf("  %s{%s} %s",
				mf.GetName(), strings.Join(labels, ","),
				humanize.Comma(int64(m.GetCounter().GetValue()))))
		}
		sort.Strings(lines)
		for _, l := range lines {
			fmt.Println(l)
		}
	}
}
