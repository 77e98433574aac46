package kvio_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/gnames/gncoleta/internal/ent/kv"
	"github.com/gnames/gncoleta/internal/io/kvio"
)

var _ = Describe("Kvio", func() {
	It("keeps values in memory", func() {
		store, err := kvio.New("")
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Open()).To(Succeed())
		defer store.Close()

		val, err := store.GetValue([]byte("missing"))
		Expect(err).ToNot(HaveOccurred())
		Expect(val).To(BeNil())

		Expect(store.SetValue([]byte("k1"), []byte("v1"))).To(Succeed())
		val, err = store.GetValue([]byte("k1"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(val)).To(Equal("v1"))
	})

	It("saves batches of records", func() {
		store, err := kvio.New("")
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Open()).To(Succeed())
		defer store.Close()

		recs := []kv.Record{
			{Key: []byte("a"), Value: []byte("1")},
			{Key: []byte("b"), Value: []byte("2")},
		}
		Expect(store.SetRecords(recs)).To(Succeed())
		val, err := store.GetValue([]byte("b"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(val)).To(Equal("2"))
	})

	It("cleans the cache directory on start", func() {
		dir, err := os.MkdirTemp("", "gncoleta-kv")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(dir)
		stale := filepath.Join(dir, "stale.txt")
		Expect(os.WriteFile(stale, []byte("x"), 0644)).To(Succeed())

		store, err := kvio.New(dir)
		Expect(err).ToNot(HaveOccurred())
		_, err = os.Stat(stale)
		Expect(os.IsNotExist(err)).To(BeTrue())

		Expect(store.Open()).To(Succeed())
		Expect(store.SetValue([]byte("k"), []byte("v"))).To(Succeed())
		Expect(store.Close()).To(Succeed())
	})

	It("refuses to work when closed", func() {
		store, err := kvio.New("")
		Expect(err).ToNot(HaveOccurred())
		_, err = store.GetValue([]byte("k"))
		Expect(err).To(HaveOccurred())
		Expect(store.SetValue([]byte("k"), []byte("v"))).ToNot(Succeed())
	})
})
