package loadio

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gnames/gncoleta/internal/ent/loader"
	"github.com/gnames/gncoleta/pkg/ent/envelope"
	"github.com/gnames/gncoleta/pkg/ent/model"
)

const (
	colNameF = iota
	colFieldIDF
	colDateF
	colFamilyF
	colGenusF
	colSpeciesF
	colCommonNameF
	colRequestsHelpF
	colNotesF
)

const (
	sugCollectionIDF = iota
	sugSuggesterIDF
	sugFamilyF
	sugGenusF
	sugSpeciesF
	sugCommonNameF
	sugJustificationF
	sugConfidenceF
	sugStatusF
)

const dateLayout = "2006-01-02"

// rowError is a problem with a single row, it becomes a rejection.
type rowError struct {
	status int
	msg    string
}

func invalid(format string, args ...any) *rowError {
	return &rowError{status: envelope.StatusInternal, msg: fmt.Sprintf(format, args...)}
}

func reject(rep *loader.Report, source string, line int, e *rowError) {
	rep.Rejected = append(rep.Rejected, loader.Rejection{
		Source:  source,
		Line:    line,
		Status:  e.status,
		Message: e.msg,
	})
}

func (l *loadio) loadCollections(ctx context.Context, t loader.Target, rep *loader.Report) error {
	return readCSV(ctx, l.src.Collections, "collections", func(line int, row []string) error {
		c, rerr := l.collection(t, row)
		if rerr != nil {
			reject(rep, "collections", line, rerr)
			return nil
		}
		res := t.Collections().Add(c)
		if !res.Success() {
			reject(rep, "collections", line, &rowError{res.Status, res.Message})
			return nil
		}
		rep.Collections++
		return nil
	})
}

func (l *loadio) collection(t loader.Target, row []string) (model.Collection, *rowError) {
	var res model.Collection
	var err error

	res.Name = cell(row, colNameF)
	if res.FieldID, err = strconv.Atoi(cell(row, colFieldIDF)); err != nil {
		return res, invalid("bad field_id %q", cell(row, colFieldIDF))
	}
	if d := cell(row, colDateF); d != "" {
		if res.CollectionDate, err = time.Parse(dateLayout, d); err != nil {
			return res, invalid("bad collection_date %q", d)
		}
	}
	if h := cell(row, colRequestsHelpF); h != "" {
		if res.RequestsHelp, err = strconv.ParseBool(h); err != nil {
			return res, invalid("bad requests_help %q", h)
		}
	}
	res.CommonName = cell(row, colCommonNameF)
	res.Notes = cell(row, colNotesF)

	var rerr *rowError
	res.Triple, rerr = l.triple(t,
		cell(row, colFamilyF), cell(row, colGenusF), cell(row, colSpeciesF))
	return res, rerr
}

func (l *loadio) loadSuggestions(ctx context.Context, t loader.Target, rep *loader.Report) error {
	return readCSV(ctx, l.src.Suggestions, "suggestions", func(line int, row []string) error {
		sg, status, rerr := l.suggestion(t, row)
		if rerr != nil {
			reject(rep, "suggestions", line, rerr)
			return nil
		}
		res := t.SubmitSuggestion(sg)
		if !res.Success() {
			reject(rep, "suggestions", line, &rowError{res.Status, res.Message})
			return nil
		}
		rep.Suggestions++

		if status == model.StatusPending {
			return nil
		}
		ch := t.UpdateSuggestionStatus(res.Data.ID, status)
		if !ch.Success() {
			reject(rep, "suggestions", line, &rowError{ch.Status, ch.Message})
			return nil
		}
		if ch.Data.Collection != nil {
			rep.Propagated++
		}
		return nil
	})
}

func (l *loadio) suggestion(
	t loader.Target,
	row []string,
) (model.Suggestion, model.SuggestionStatus, *rowError) {
	var res model.Suggestion
	var err error
	status := model.StatusPending

	if res.CollectionID, err = strconv.Atoi(cell(row, sugCollectionIDF)); err != nil {
		return res, status, invalid("bad collection_id %q", cell(row, sugCollectionIDF))
	}
	if res.SuggesterID, err = strconv.Atoi(cell(row, sugSuggesterIDF)); err != nil {
		return res, status, invalid("bad suggester_id %q", cell(row, sugSuggesterIDF))
	}
	if res.Confidence, err = strconv.Atoi(cell(row, sugConfidenceF)); err != nil {
		return res, status, invalid("bad confidence %q", cell(row, sugConfidenceF))
	}
	if s := cell(row, sugStatusF); s != "" {
		if status, err = model.NewSuggestionStatus(s); err != nil {
			return res, status, invalid("%s", err)
		}
	}
	res.CommonNameSuggested = cell(row, sugCommonNameF)
	res.Justification = cell(row, sugJustificationF)

	var rerr *rowError
	res.Triple, rerr = l.triple(t,
		cell(row, sugFamilyF), cell(row, sugGenusF), cell(row, sugSpeciesF))
	return res, status, rerr
}

// triple finds taxa by name and combines them with the cascade, so a
// species alone is enough to get the whole triple. A lower level is looked
// up among the children of the level above when it is known.
func (l *loadio) triple(t loader.Target, family, genus, species string) (model.Triple, *rowError) {
	var res model.Triple

	if family != "" {
		f, ok := firstMatch(t.Families().FindByName(family), nil)
		if !ok {
			return res, &rowError{envelope.StatusNotFound, fmt.Sprintf("family %q not found", family)}
		}
		if res, ok = l.resolve(t, res, model.LevelFamily, f.ID); !ok {
			return res, invalid("cannot select family %q", family)
		}
	}

	if genus != "" {
		g, ok := firstMatch(t.Genera().FindByName(genus), func(g *model.Genus) bool {
			return res.FamilyID == 0 || g.FamilyID == res.FamilyID
		})
		if !ok {
			return res, &rowError{envelope.StatusNotFound, fmt.Sprintf("genus %q not found", genus)}
		}
		if res, ok = l.resolve(t, res, model.LevelGenus, g.ID); !ok {
			return res, invalid("cannot select genus %q", genus)
		}
	}

	if species != "" {
		sp, ok := firstMatch(t.Species().FindByName(species), func(sp *model.Species) bool {
			return res.GenusID == 0 || sp.GenusID == res.GenusID
		})
		if !ok {
			return res, &rowError{envelope.StatusNotFound, fmt.Sprintf("species %q not found", species)}
		}
		if res, ok = l.resolve(t, res, model.LevelSpecies, sp.ID); !ok {
			return res, invalid("cannot select species %q", species)
		}
	}
	return res, nil
}

func (l *loadio) resolve(t loader.Target, cur model.Triple, lvl model.Level, id int) (model.Triple, bool) {
	res := t.Resolve(cur, lvl, id)
	if !res.Success() {
		return cur, false
	}
	return res.Data, true
}
