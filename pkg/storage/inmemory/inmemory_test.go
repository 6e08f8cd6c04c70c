package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/storage/inmemory"
)

var _ = Describe("Store", func() {
	var (
		store *inmemory.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		store = inmemory.New()
		ctx = context.Background()
	})

	Describe("datasets", func() {
		It("round-trips a dataset", func() {
			ds := &storage.Dataset{
				ID:        "ds-1",
				Name:      "churn",
				Filename:  "churn.csv",
				TableName: "ds_ds_1",
				RowCount:  100,
				Columns: []storage.ColumnMeta{
					{Name: "customer_id", Type: "text"},
					{Name: "tenure", Type: "integer"},
				},
				CreatedAt: time.Now(),
			}

			Expect(store.PutDataset(ctx, ds)).To(Succeed())

			got, err := store.GetDataset(ctx, "ds-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("churn"))
			Expect(got.Columns).To(HaveLen(2))
		})

		It("returns ErrNotFound for unknown datasets", func() {
			_, err := store.GetDataset(ctx, "nope")
			Expect(err).To(MatchError(storage.ErrNotFound{Kind: "dataset", ID: "nope"}))
		})

		It("lists datasets newest first", func() {
			older := time.Now().Add(-time.Hour)
			newer := time.Now()
			Expect(store.PutDataset(ctx, &storage.Dataset{ID: "a", CreatedAt: older})).To(Succeed())
			Expect(store.PutDataset(ctx, &storage.Dataset{ID: "b", CreatedAt: newer})).To(Succeed())

			all, err := store.ListDatasets(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))
			Expect(all[0].ID).To(Equal("b"))
		})

		It("deletes a dataset and its dependents", func() {
			Expect(store.PutDataset(ctx, &storage.Dataset{ID: "ds-1"})).To(Succeed())
			Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-1", DatasetID: "ds-1", Column: "a"})).To(Succeed())
			Expect(store.PutInsight(ctx, &storage.Insight{ID: "i-1", DatasetID: "ds-1"})).To(Succeed())

			Expect(store.DeleteDataset(ctx, "ds-1")).To(Succeed())

			_, err := store.GetDataset(ctx, "ds-1")
			Expect(err).To(HaveOccurred())

			entries, err := store.ListDictionaryEntries(ctx, "ds-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())

			insights, err := store.ListInsights(ctx, "ds-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(insights).To(BeEmpty())
		})

		It("does not leak mutations through returned copies", func() {
			Expect(store.PutDataset(ctx, &storage.Dataset{ID: "ds-1", Name: "orig"})).To(Succeed())

			got, err := store.GetDataset(ctx, "ds-1")
			Expect(err).NotTo(HaveOccurred())
			got.Name = "mutated"

			again, err := store.GetDataset(ctx, "ds-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Name).To(Equal("orig"))
		})
	})

	Describe("dictionary entries", func() {
		It("filters by dataset and sorts by column", func() {
			Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-1", DatasetID: "ds-1", Column: "b"})).To(Succeed())
			Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-2", DatasetID: "ds-1", Column: "a"})).To(Succeed())
			Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-3", DatasetID: "ds-2", Column: "z"})).To(Succeed())

			entries, err := store.ListDictionaryEntries(ctx, "ds-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Column).To(Equal("a"))
			Expect(entries[1].Column).To(Equal("b"))
		})

		It("lists all entries when no dataset filter is given", func() {
			Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-1", DatasetID: "ds-1", Column: "a"})).To(Succeed())
			Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{ID: "e-2", DatasetID: "ds-2", Column: "b"})).To(Succeed())

			entries, err := store.ListDictionaryEntries(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})

		It("updates an entry in place", func() {
			entry := &storage.DictionaryEntry{ID: "e-1", DatasetID: "ds-1", Column: "a", Description: "first"}
			Expect(store.PutDictionaryEntry(ctx, entry)).To(Succeed())

			entry.Description = "second"
			Expect(store.PutDictionaryEntry(ctx, entry)).To(Succeed())

			got, err := store.GetDictionaryEntry(ctx, "e-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Description).To(Equal("second"))
		})
	})

	Describe("runs", func() {
		It("filters runs by recipe newest first", func() {
			older := time.Now().Add(-time.Minute)
			newer := time.Now()
			Expect(store.PutRun(ctx, &storage.Run{ID: "r-1", RecipeID: "rec-1", Status: storage.RunStatusSucceeded, StartedAt: older})).To(Succeed())
			Expect(store.PutRun(ctx, &storage.Run{ID: "r-2", RecipeID: "rec-1", Status: storage.RunStatusRunning, StartedAt: newer})).To(Succeed())
			Expect(store.PutRun(ctx, &storage.Run{ID: "r-3", RecipeID: "rec-2", Status: storage.RunStatusPending, StartedAt: newer})).To(Succeed())

			runs, err := store.ListRuns(ctx, "rec-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
			Expect(runs[0].ID).To(Equal("r-2"))
		})

		It("records run completion", func() {
			started := time.Now().Add(-time.Minute)
			Expect(store.PutRun(ctx, &storage.Run{ID: "r-1", RecipeID: "rec-1", Status: storage.RunStatusRunning, StartedAt: started})).To(Succeed())

			finished := time.Now()
			Expect(store.PutRun(ctx, &storage.Run{
				ID:         "r-1",
				RecipeID:   "rec-1",
				Status:     storage.RunStatusSucceeded,
				Metrics:    map[string]float64{"accuracy": 0.91},
				StartedAt:  started,
				FinishedAt: &finished,
			})).To(Succeed())

			got, err := store.GetRun(ctx, "r-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(storage.RunStatusSucceeded))
			Expect(got.FinishedAt).NotTo(BeNil())
			Expect(got.Metrics).To(HaveKeyWithValue("accuracy", 0.91))
		})
	})

	Describe("models and recipes", func() {
		It("round-trips a recipe with its definition", func() {
			Expect(store.PutModel(ctx, &storage.Model{ID: "m-1", Name: "churn-xgb", Task: "classification", Version: "1"})).To(Succeed())
			Expect(store.PutRecipe(ctx, &storage.Recipe{
				ID:      "rec-1",
				Name:    "weekly-churn",
				ModelID: "m-1",
				Definition: map[string]any{
					"target":   "churned",
					"features": []any{"tenure", "plan"},
				},
			})).To(Succeed())

			got, err := store.GetRecipe(ctx, "rec-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ModelID).To(Equal("m-1"))
			Expect(got.Definition).To(HaveKeyWithValue("target", "churned"))
		})
	})
})
