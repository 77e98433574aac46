package loadio_test

import (
	"bytes"
	"context"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/gncoleta/internal/ent/kv"
	"github.com/gnames/gncoleta/internal/ent/loader"
	"github.com/gnames/gncoleta/internal/ent/namer"
	"github.com/gnames/gncoleta/internal/io/kvio"
	"github.com/gnames/gncoleta/internal/io/loadio"
	"github.com/gnames/gncoleta/internal/io/nameio"
	gncoleta "github.com/gnames/gncoleta/pkg"
	"github.com/gnames/gncoleta/pkg/config"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/gnames/gncoleta/pkg/ent/notify"
)

const taxonomyCSV = `family,genus,species,common_name
Fabaceae,Mimosa,Mimosa pudica L.,dormideira
Fabaceae,Mimosa,Mimosa pudica,
Fabaceae,Acacia,,
Poaceae,Bambusa,Bambusa vulgaris Schrad.,bambu
 Poaceae ,Guadua,Guadua angustifolia,taquaruçu
,Orphan,Orphan species,
Rubiaceae,,Coffea arabica,
`

const collectionsCSV = `name,field_id,collection_date,family,genus,species,common_name,requests_help,notes
coleta 1,5,2024-04-02,,,,,true,near the river
coleta 2,5,2024-04-03,,,Mimosa pudica,dormideira,false,
coleta 3,6,,Poaceae,Bambusa,,,,
coleta 4,x,2024-04-03,,,,,,
coleta 5,6,2024-04-03,,,Inga edulis,,,
`

const suggestionsCSV = `collection_id,suggester_id,family,genus,species,common_name,justification,confidence,status
1,22,,,Bambusa vulgaris,bambu,culms are hollow,4,accepted
3,23,,,Guadua angustifolia,,thorny culms,3,
3,24,Fabaceae,,,,,2,
42,22,Fabaceae,,,,no such collection,2,
1,22,Fabaceae,,,,wrong,9,
`

var _ = Describe("Loadio", func() {
	var cache kv.KeyVal
	var names namer.Normalizer
	var gnc gncoleta.GNcoleta
	var cfg config.Config

	BeforeEach(func() {
		var err error
		cache, err = kvio.New("")
		Expect(err).ToNot(HaveOccurred())
		Expect(cache.Open()).To(Succeed())
		names = nameio.New(cache)
		cfg = config.New(config.OptJobsNum(3), config.OptBatchSize(2))
		gnc = gncoleta.New(cfg,
			gncoleta.OptNormalizer(names),
			gncoleta.OptNotifier(notify.Func(func(notify.Event) {})),
		)
	})

	AfterEach(func() {
		Expect(cache.Close()).To(Succeed())
	})

	It("imports taxonomy through the pipeline", func() {
		var progress bytes.Buffer
		ld := loadio.New(cfg, names, loader.Sources{
			Taxonomy: strings.NewReader(taxonomyCSV),
		}, loadio.OptProgress(&progress))

		rep, err := gnc.Load(context.Background(), ld)
		Expect(err).ToNot(HaveOccurred())
		Expect(rep.Families).To(Equal(2))
		Expect(rep.Genera).To(Equal(4))
		Expect(rep.Species).To(Equal(3))
		Expect(progress.String()).To(ContainSubstring("Imported"))

		Expect(rep.Rejected).To(HaveLen(2))
		lines := []int{rep.Rejected[0].Line, rep.Rejected[1].Line}
		Expect(lines).To(ConsistOf(7, 8))
		for _, r := range rep.Rejected {
			Expect(r.Source).To(Equal("taxonomy"))
			Expect(r.Status).To(Equal(500))
		}

		sp := gnc.Species().FindByName("Mimosa pudica")
		Expect(sp.Data).To(HaveLen(1))
		Expect(sp.Data[0].CommonName).To(Equal("dormideira"))

		g := gnc.Genera().FindByName("Guadua")
		Expect(g.Data).To(HaveLen(1))
		f := gnc.Families().GetByID(g.Data[0].FamilyID)
		Expect(f.Data.Name).To(Equal("Poaceae"))

		Expect(gnc.Families().FindByName("Rubiaceae").Status).To(Equal(404))
	})

	It("imports collections and suggestions", func() {
		ld := loadio.New(cfg, names, loader.Sources{
			Taxonomy:    strings.NewReader(taxonomyCSV),
			Collections: strings.NewReader(collectionsCSV),
			Suggestions: strings.NewReader(suggestionsCSV),
		})

		rep, err := gnc.Load(context.Background(), ld)
		Expect(err).ToNot(HaveOccurred())
		Expect(rep.Collections).To(Equal(3))
		Expect(rep.Suggestions).To(Equal(2))
		Expect(rep.Propagated).To(Equal(1))

		bySource := make(map[string][]loader.Rejection)
		for _, r := range rep.Rejected {
			bySource[r.Source] = append(bySource[r.Source], r)
		}
		Expect(bySource["collections"]).To(HaveLen(2))
		Expect(bySource["collections"][0].Line).To(Equal(5))
		Expect(bySource["collections"][1].Status).To(Equal(404))
		Expect(bySource["suggestions"]).To(HaveLen(3))

		c2 := gnc.Collections().GetByID(2).Data
		Expect(c2.Identified).To(BeTrue())
		Expect(c2.GenusID).ToNot(BeZero())
		Expect(c2.FamilyID).ToNot(BeZero())

		c1 := gnc.Collections().GetByID(1).Data
		Expect(c1.Identified).To(BeTrue())
		Expect(c1.CommonName).To(Equal("bambu"))
		Expect(c1.Notes).To(Equal("near the river"))

		c3 := gnc.Collections().GetByID(3).Data
		Expect(c3.Identified).To(BeFalse())
		Expect(c3.GenusID).ToNot(BeZero())

		pending := gnc.Suggestions().GetPending()
		Expect(pending.Data).To(HaveLen(1))
		Expect(pending.Data[0].CollectionID).To(Equal(3))

		accepted := gnc.Suggestions().GetByCollectionID(1).Data
		Expect(accepted).To(HaveLen(1))
		Expect(accepted[0].Status).To(Equal(model.StatusAccepted))
	})

	It("stops on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ld := loadio.New(cfg, names, loader.Sources{
			Taxonomy: strings.NewReader(taxonomyCSV),
		})
		_, err := gnc.Load(ctx, ld)
		Expect(err).To(MatchError(context.Canceled))
	})

	It("accepts empty sources", func() {
		ld := loadio.New(cfg, names, loader.Sources{
			Collections: strings.NewReader(""),
		})
		rep, err := gnc.Load(context.Background(), ld)
		Expect(err).ToNot(HaveOccurred())
		Expect(rep.Collections).To(Equal(0))
		Expect(rep.Rejected).To(BeEmpty())
	})
})
