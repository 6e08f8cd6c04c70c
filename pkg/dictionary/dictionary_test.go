package dictionary_test

import (
	"context"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/storage"
	storemem "github.com/corelens-ai/corelens/pkg/storage/inmemory"
	vecmem "github.com/corelens-ai/corelens/pkg/vector/inmemory"
)

// stubEmbedder maps known words onto fixed axes so similarity is predictable.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 3)
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "revenue") {
		vec[0] = 1
	}
	if strings.Contains(lowered, "customer") {
		vec[1] = 1
	}
	if strings.Contains(lowered, "date") {
		vec[2] = 1
	}

	return vec, nil
}

func (stubEmbedder) Close() error { return nil }

var _ = Describe("Service", func() {
	var (
		store   *storemem.Store
		service *dictionary.Service
		ctx     context.Context
	)

	seedDataset := func(id string, columns ...string) {
		metas := make([]storage.ColumnMeta, 0, len(columns))
		for _, name := range columns {
			metas = append(metas, storage.ColumnMeta{Name: name, Type: "text"})
		}
		Expect(store.PutDataset(ctx, &storage.Dataset{
			ID:        id,
			Name:      id,
			Columns:   metas,
			CreatedAt: time.Now(),
		})).To(Succeed())
	}

	BeforeEach(func() {
		store = storemem.New()
		service = dictionary.NewService(store)
		ctx = context.Background()
	})

	Describe("Upsert", func() {
		It("creates an entry for an existing column", func() {
			seedDataset("ds-1", "amount", "region")

			entry, err := service.Upsert(ctx, "ds-1", "amount", "monthly revenue", []string{"finance"})
			Expect(err).NotTo(HaveOccurred())
			Expect(entry.ID).NotTo(BeEmpty())
			Expect(entry.Description).To(Equal("monthly revenue"))
		})

		It("keeps the entry ID stable across updates", func() {
			seedDataset("ds-1", "amount")

			first, err := service.Upsert(ctx, "ds-1", "amount", "v1", nil)
			Expect(err).NotTo(HaveOccurred())

			second, err := service.Upsert(ctx, "ds-1", "amount", "v2", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.ID).To(Equal(first.ID))

			entries, err := service.List(ctx, "ds-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Description).To(Equal("v2"))
		})

		It("rejects columns the dataset does not have", func() {
			seedDataset("ds-1", "amount")

			_, err := service.Upsert(ctx, "ds-1", "nope", "", nil)
			Expect(err).To(MatchError(ContainSubstring(`no column "nope"`)))
		})

		It("rejects unknown datasets", func() {
			_, err := service.Upsert(ctx, "missing", "a", "", nil)
			Expect(err).To(MatchError(storage.ErrNotFound{Kind: "dataset", ID: "missing"}))
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			seedDataset("ds-1", "amount", "customer_id", "signup_date")
			_, err := service.Upsert(ctx, "ds-1", "amount", "monthly revenue per account", []string{"finance"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Upsert(ctx, "ds-1", "customer_id", "customer identifier", []string{"pii"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Upsert(ctx, "ds-1", "signup_date", "date the customer signed up", nil)
			Expect(err).NotTo(HaveOccurred())
		})

		It("matches column names first", func() {
			results, err := service.Search(ctx, "ds-1", "customer", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).NotTo(BeEmpty())
			Expect(results[0].Entry.Column).To(Equal("customer_id"))
		})

		It("matches tags and descriptions", func() {
			results, err := service.Search(ctx, "ds-1", "pii", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Entry.Column).To(Equal("customer_id"))

			results, err = service.Search(ctx, "ds-1", "revenue", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Entry.Column).To(Equal("amount"))
		})

		It("returns nothing for unmatched queries", func() {
			results, err := service.Search(ctx, "ds-1", "zebra", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("honors the result limit", func() {
			results, err := service.Search(ctx, "ds-1", "customer", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})
	})

	Describe("semantic search", func() {
		It("ranks entries by embedding similarity", func() {
			service = dictionary.NewService(store,
				dictionary.WithSemanticSearch(stubEmbedder{}, vecmem.NewDriver()))

			seedDataset("ds-1", "amount", "customer_id")
			_, err := service.Upsert(ctx, "ds-1", "amount", "monthly revenue", nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Upsert(ctx, "ds-1", "customer_id", "customer identifier", nil)
			Expect(err).NotTo(HaveOccurred())

			results, err := service.Search(ctx, "ds-1", "total revenue by month", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).NotTo(BeEmpty())
			Expect(results[0].Entry.Column).To(Equal("amount"))
		})
	})
})
