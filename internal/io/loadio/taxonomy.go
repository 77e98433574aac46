package loadio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gncoleta/internal/ent/loader"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"golang.org/x/sync/errgroup"
)

const (
	taxFamilyF = iota
	taxGenusF
	taxSpeciesF
	taxCommonNameF
)

type taxonRow struct {
	line       int
	family     string
	genus      string
	species    string
	commonName string
}

// taxonBatch holds rows together with their normalized names.
type taxonBatch struct {
	rows     []taxonRow
	families []namer.Name
	genera   []namer.Name
	species  []namer.Name
}

func (l *loadio) loadTaxonomy(ctx context.Context, t loader.Target, rep *loader.Report) error {
	chIn := make(chan []taxonRow)
	chOut := make(chan taxonBatch)
	var wg sync.WaitGroup

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(chIn)
		return l.readTaxonomy(ctx, chIn)
	})
	for i := 0; i < l.cfg.JobsNum; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return l.workerTaxonomy(ctx, chIn, chOut)
		})
	}
	g.Go(func() error {
		return l.saveTaxonomy(ctx, t, chOut, rep)
	})

	go func() {
		wg.Wait()
		close(chOut)
	}()

	if err := g.Wait(); err != nil {
		slog.Error("Error in taxonomy import", "error", err)
		return err
	}
	return nil
}

func (l *loadio) readTaxonomy(ctx context.Context, chIn chan<- []taxonRow) error {
	batch := make([]taxonRow, 0, l.cfg.BatchSize)
	send := func() error {
		if len(batch) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chIn <- batch:
		}
		batch = make([]taxonRow, 0, l.cfg.BatchSize)
		return nil
	}

	err := readCSV(ctx, l.src.Taxonomy, "taxonomy", func(line int, row []string) error {
		batch = append(batch, taxonRow{
			line:       line,
			family:     cell(row, taxFamilyF),
			genus:      cell(row, taxGenusF),
			species:    cell(row, taxSpeciesF),
			commonName: cell(row, taxCommonNameF),
		})
		if len(batch) < l.cfg.BatchSize {
			return nil
		}
		return send()
	})
	if err != nil {
		return err
	}
	return send()
}

// workerTaxonomy normalizes names of a batch. Normalized names are cached,
// so the stores find them ready when the writer adds the records.
func (l *loadio) workerTaxonomy(
	ctx context.Context,
	chIn <-chan []taxonRow,
	chOut chan<- taxonBatch,
) error {
	for rows := range chIn {
		fams := make([]string, len(rows))
		gens := make([]string, len(rows))
		sps := make([]string, len(rows))
		for i, r := range rows {
			fams[i], gens[i], sps[i] = r.family, r.genus, r.species
		}
		b := taxonBatch{
			rows:     rows,
			families: l.names.Names(model.LevelFamily, fams),
			genera:   l.names.Names(model.LevelGenus, gens),
			species:  l.names.Names(model.LevelSpecies, sps),
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chOut <- b:
		}
	}
	return nil
}

// saveTaxonomy is the only goroutine that writes to the stores, so
// duplicates within the file are detected without locking.
func (l *loadio) saveTaxonomy(
	ctx context.Context,
	t loader.Target,
	chOut <-chan taxonBatch,
	rep *loader.Report,
) error {
	w := newTaxonWriter(t, rep)
	var total int64
	timeStart := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case b, ok := <-chOut:
			if !ok {
				fmt.Fprintln(l.progress)
				return nil
			}
			for i := range b.rows {
				w.save(b.rows[i], b.families[i], b.genera[i], b.species[i])
			}
			total += int64(len(b.rows))
			var speed int64
			if secs := time.Since(timeStart).Seconds(); secs > 0 {
				speed = int64(float64(total) / secs)
			}
			fmt.Fprintf(l.progress, "\r%s", strings.Repeat(" ", 50))
			fmt.Fprintf(l.progress, "\rImported %s taxonomy rows, %s rows/sec",
				humanize.Comma(total), humanize.Comma(speed))
		}
	}
}

type taxonWriter struct {
	t   loader.Target
	rep *loader.Report

	// ids of stored taxa by parent id and name id.
	families map[string]int
	genera   map[string]int
	species  map[string]int
}

func newTaxonWriter(t loader.Target, rep *loader.Report) *taxonWriter {
	return &taxonWriter{
		t:        t,
		rep:      rep,
		families: make(map[string]int),
		genera:   make(map[string]int),
		species:  make(map[string]int),
	}
}

func (w *taxonWriter) reject(line, status int, msg string) {
	w.rep.Rejected = append(w.rep.Rejected, loader.Rejection{
		Source:  "taxonomy",
		Line:    line,
		Status:  status,
		Message: msg,
	})
}

func (w *taxonWriter) save(r taxonRow, fam, gen, sp namer.Name) {
	if fam.Normalized == "" {
		w.reject(r.line, envelope.StatusInternal, "family is required")
		return
	}
	if gen.Normalized == "" && sp.Normalized != "" {
		w.reject(r.line, envelope.StatusInternal,
			fmt.Sprintf("species %q needs a genus", sp.Normalized))
		return
	}

	famID, ok := w.family(r.line, fam)
	if !ok || gen.Normalized == "" {
		return
	}
	genID, ok := w.genus(r.line, famID, gen)
	if !ok || sp.Normalized == "" {
		return
	}
	w.speciesOf(r.line, genID, sp, r.commonName)
}

func (w *taxonWriter) family(line int, n namer.Name) (int, bool) {
	key := n.ID
	if id, ok := w.families[key]; ok {
		return id, true
	}
	if f, ok := firstMatch(w.t.Families().FindByName(n.Normalized), nil); ok {
		w.families[key] = f.ID
		return f.ID, true
	}
	res := w.t.Families().Add(model.Family{Name: n.Verbatim})
	if !res.Success() {
		w.reject(line, res.Status, res.Message)
		return 0, false
	}
	w.rep.Families++
	w.families[key] = res.Data.ID
	return res.Data.ID, true
}

func (w *taxonWriter) genus(line, familyID int, n namer.Name) (int, bool) {
	key := fmt.Sprintf("%d|%s", familyID, n.ID)
	if id, ok := w.genera[key]; ok {
		return id, true
	}
	found, ok := firstMatch(w.t.Genera().FindByName(n.Normalized),
		func(g *model.Genus) bool { return g.FamilyID == familyID })
	if ok {
		w.genera[key] = found.ID
		return found.ID, true
	}
	res := w.t.Genera().Add(model.Genus{Name: n.Verbatim, FamilyID: familyID})
	if !res.Success() {
		w.reject(line, res.Status, res.Message)
		return 0, false
	}
	w.rep.Genera++
	w.genera[key] = res.Data.ID
	return res.Data.ID, true
}

func (w *taxonWriter) speciesOf(line, genusID int, n namer.Name, commonName string) {
	key := fmt.Sprintf("%d|%s", genusID, n.ID)
	if _, ok := w.species[key]; ok {
		return
	}
	found, ok := firstMatch(w.t.Species().FindByName(n.Normalized),
		func(sp *model.Species) bool { return sp.GenusID == genusID })
	if ok {
		w.species[key] = found.ID
		return
	}
	res := w.t.Species().Add(model.Species{
		Name:       n.Verbatim,
		GenusID:    genusID,
		CommonName: commonName,
	})
	if !res.Success() {
		w.reject(line, res.Status, res.Message)
		return
	}
	w.rep.Species++
	w.species[key] = res.Data.ID
}

// firstMatch returns the first record of a successful list envelope that
// passes the filter. A nil filter matches everything.
func firstMatch[T any](res envelope.Envelope[[]T], filter func(*T) bool) (T, bool) {
	var zero T
	if !res.Success() {
		return zero, false
	}
	for i := range res.Data {
		if filter == nil || filter(&res.Data[i]) {
			return res.Data[i], true
		}
	}
	return zero, false
}
