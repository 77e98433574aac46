package metricsio_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/gncoleta/internal/io/metricsio"
	"github.com/gnames/gncoleta/pkg/ent/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var _ = Describe("Metricsio", func() {
	It("counts envelopes, transitions and propagation", func() {
		reg := prometheus.NewRegistry()
		rec, err := metricsio.New(reg)
		Expect(err).ToNot(HaveOccurred())

		rec.Envelope("family.add", 201)
		rec.Envelope("family.add", 201)
		rec.Envelope("family.add", 500)
		rec.Transition(model.StatusPending, model.StatusAccepted)
		rec.Propagation(true)
		rec.Propagation(false)

		n, err := testutil.GatherAndCount(reg, "gncoleta_envelope_total")
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(2))

		mfs, err := reg.Gather()
		Expect(err).ToNot(HaveOccurred())
		values := make(map[string]float64)
		for _, mf := range mfs {
			for _, m := range mf.GetMetric() {
				key := mf.GetName()
				for _, l := range m.GetLabel() {
					key += " " + l.GetValue()
				}
				values[key] = m.GetCounter().GetValue()
			}
		}
		Expect(values["gncoleta_envelope_total family.add 201"]).To(Equal(2.0))
		Expect(values["gncoleta_envelope_total family.add 500"]).To(Equal(1.0))
		Expect(values["gncoleta_suggestion_transitions_total pending accepted"]).To(Equal(1.0))
		Expect(values["gncoleta_propagation_total ok"]).To(Equal(1.0))
		Expect(values["gncoleta_propagation_total failed"]).To(Equal(1.0))
	})

	It("cannot register twice in one registry", func() {
		reg := prometheus.NewRegistry()
		_, err := metricsio.New(reg)
		Expect(err).ToNot(HaveOccurred())
		_, err = metricsio.New(reg)
		Expect(err).To(HaveOccurred())
	})
})
