// Package nameio normalizes taxon names with gnparser and caches results
// in a key-value store.
package nameio

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/gnames/gncoleta/internal/ent/kv"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnparser"
	"github.com/gnames/gnuuid"
	"golang.org/x/text/unicode/norm"
)

type nameio struct {
	mu    sync.Mutex
	gnp   gnparser.GNparser
	enc   gnfmt.Encoder
	cache kv.KeyVal
}

// New returns a Normalizer. The cache must be open, it can be nil.
func New(cache kv.KeyVal) namer.Normalizer {
	return &nameio{
		gnp:   gnparser.New(gnparser.NewConfig()),
		enc:   gnfmt.GNgob{},
		cache: cache,
	}
}

// Text normalizes Unicode to NFC and collapses whitespace.
func (n *nameio) Text(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Name normalizes a taxon name.
func (n *nameio) Name(level model.Level, name string) namer.Name {
	normalized := n.Text(name)
	key := cacheKey(level, normalized)
	if res, ok := n.fromCache(key); ok {
		res.Verbatim = name
		return res
	}

	res := n.parse(name, normalized)
	if n.cache != nil {
		val, err := n.enc.Encode(res)
		if err != nil {
			slog.Warn("Cannot encode parsed name", "name", normalized, "error", err)
			return res
		}
		if err = n.cache.SetValue(key, val); err != nil {
			slog.Warn("Cannot cache parsed name", "name", normalized, "error", err)
		}
	}
	return res
}

// Names normalizes a batch of names and caches them in one write.
func (n *nameio) Names(level model.Level, names []string) []namer.Name {
	res := make([]namer.Name, len(names))
	recs := make([]kv.Record, 0, len(names))
	for i, name := range names {
		normalized := n.Text(name)
		key := cacheKey(level, normalized)
		if cached, ok := n.fromCache(key); ok {
			cached.Verbatim = name
			res[i] = cached
			continue
		}
		res[i] = n.parse(name, normalized)
		if n.cache == nil {
			continue
		}
		val, err := n.enc.Encode(res[i])
		if err != nil {
			slog.Warn("Cannot encode parsed name", "name", normalized, "error", err)
			continue
		}
		recs = append(recs, kv.Record{Key: key, Value: val})
	}
	if len(recs) > 0 {
		if err := n.cache.SetRecords(recs); err != nil {
			slog.Warn("Cannot cache parsed names", "error", err)
		}
	}
	return res
}

func (n *nameio) parse(verbatim, normalized string) namer.Name {
	res := namer.Name{
		Verbatim:   verbatim,
		Normalized: normalized,
		Canonical:  normalized,
	}
	if normalized == "" {
		return res
	}

	n.mu.Lock()
	p := n.gnp.ParseName(normalized)
	n.mu.Unlock()

	if p.Parsed && p.Canonical != nil {
		res.Parsed = true
		res.Canonical = p.Canonical.Simple
		res.Cardinality = int(p.Cardinality)
	}
	res.ID = gnuuid.New(res.Canonical).String()
	return res
}

func (n *nameio) fromCache(key []byte) (namer.Name, bool) {
	var res namer.Name
	if n.cache == nil {
		return res, false
	}
	val, err := n.cache.GetValue(key)
	if err != nil {
		slog.Warn("Cannot read name cache", "error", err)
		return res, false
	}
	if val == nil {
		return res, false
	}
	if err = n.enc.Decode(val, &res); err != nil {
		slog.Warn("Cannot decode cached name", "error", err)
		return res, false
	}
	return res, true
}

func cacheKey(level model.Level, name string) []byte {
	return []byte(level.String() + "|" + name)
}
