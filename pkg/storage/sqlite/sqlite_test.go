package sqlite_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/storage/sqlite"
	"github.com/corelens-ai/corelens/pkg/storage/sqlstore"
)

var _ = Describe("Store", func() {
	var (
		store *sqlstore.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = sqlite.New(filepath.Join(GinkgoT().TempDir(), "corelens.db"))
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		DeferCleanup(func() {
			Expect(store.Close()).To(Succeed())
		})
	})

	It("persists datasets with their column metadata", func() {
		ds := &storage.Dataset{
			ID:        "ds-1",
			Name:      "sales",
			Filename:  "sales.csv",
			TableName: "ds_ds_1",
			RowCount:  42,
			Columns: []storage.ColumnMeta{
				{Name: "region", Type: "text", NullCount: 2, DistinctCount: 4},
				{Name: "amount", Type: "real"},
			},
			CreatedAt: time.Now(),
		}

		Expect(store.PutDataset(ctx, ds)).To(Succeed())

		got, err := store.GetDataset(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.TableName).To(Equal("ds_ds_1"))
		Expect(got.Columns).To(HaveLen(2))
		Expect(got.Columns[0].NullCount).To(Equal(2))
	})

	It("upserts on repeated puts", func() {
		ds := &storage.Dataset{ID: "ds-1", Name: "first", CreatedAt: time.Now(), Columns: []storage.ColumnMeta{}}
		Expect(store.PutDataset(ctx, ds)).To(Succeed())

		ds.Name = "second"
		Expect(store.PutDataset(ctx, ds)).To(Succeed())

		got, err := store.GetDataset(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("second"))

		all, err := store.ListDatasets(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
	})

	It("returns ErrNotFound for missing rows", func() {
		_, err := store.GetRecipe(ctx, "nope")
		Expect(err).To(MatchError(storage.ErrNotFound{Kind: "recipe", ID: "nope"}))
	})

	It("deletes a dataset along with its dictionary and insights", func() {
		Expect(store.PutDataset(ctx, &storage.Dataset{ID: "ds-1", Columns: []storage.ColumnMeta{}, CreatedAt: time.Now()})).To(Succeed())
		Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-1", DatasetID: "ds-1", Column: "a", Tags: []string{"pii"}, UpdatedAt: time.Now()})).To(Succeed())
		Expect(store.PutInsight(ctx, &storage.Insight{ID: "i-1", DatasetID: "ds-1", CreatedAt: time.Now()})).To(Succeed())

		Expect(store.DeleteDataset(ctx, "ds-1")).To(Succeed())

		entries, err := store.ListDictionaryEntries(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())

		insights, err := store.ListInsights(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(insights).To(BeEmpty())
	})

	It("stores run state over its lifecycle", func() {
		started := time.Now().Add(-time.Minute)
		run := &storage.Run{ID: "r-1", RecipeID: "rec-1", Status: storage.RunStatusRunning, Metrics: map[string]float64{}, StartedAt: started}
		Expect(store.PutRun(ctx, run)).To(Succeed())

		got, err := store.GetRun(ctx, "r-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.FinishedAt).To(BeNil())

		finished := time.Now()
		run.Status = storage.RunStatusFailed
		run.Error = "training diverged"
		run.FinishedAt = &finished
		Expect(store.PutRun(ctx, run)).To(Succeed())

		got, err = store.GetRun(ctx, "r-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Status).To(Equal(storage.RunStatusFailed))
		Expect(got.Error).To(Equal("training diverged"))
		Expect(got.FinishedAt).NotTo(BeNil())
	})

	It("migrates idempotently when the database is reopened", func() {
		path := filepath.Join(GinkgoT().TempDir(), "reopen.db")

		first, err := sqlite.New(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.PutModel(ctx, &storage.Model{ID: "m-1", Name: "churn", Task: "classification", Version: "1", CreatedAt: time.Now()})).To(Succeed())
		Expect(first.Close()).To(Succeed())

		second, err := sqlite.New(path)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(second.Close()).To(Succeed())
		})

		got, err := second.GetModel(ctx, "m-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("churn"))
	})

	It("filters dictionary entries by dataset", func() {
		Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-1", DatasetID: "ds-1", Column: "a", Tags: []string{}, UpdatedAt: time.Now()})).To(Succeed())
		Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-2", DatasetID: "ds-2", Column: "b", Tags: []string{}, UpdatedAt: time.Now()})).To(Succeed())

		entries, err := store.ListDictionaryEntries(ctx, "ds-2")
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Column).To(Equal("b"))
	})
})
