package mcp

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/storage/sqlite"
)

var _ = Describe("Platform tools", func() {
	var (
		server *Server
		ctx    context.Context
	)

	BeforeEach(func() {
		store, err := sqlite.New(filepath.Join(GinkgoT().TempDir(), "corelens.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(store.Close()).To(Succeed())
		})

		ctx = context.Background()

		_, err = store.DB().Exec(`CREATE TABLE ds_orders ("region" TEXT, "amount" REAL)`)
		Expect(err).NotTo(HaveOccurred())
		_, err = store.DB().Exec(`INSERT INTO ds_orders VALUES ('east', 10.0), ('west', 20.0)`)
		Expect(err).NotTo(HaveOccurred())

		Expect(store.PutDataset(ctx, &storage.Dataset{
			ID:        "ds-1",
			Name:      "orders",
			Filename:  "orders.csv",
			TableName: "ds_orders",
			RowCount:  2,
			Columns: []storage.ColumnMeta{
				{Name: "region", Type: "text"},
				{Name: "amount", Type: "real"},
			},
			CreatedAt: time.Now().UTC(),
		})).To(Succeed())

		Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{
			ID:          "entry-1",
			DatasetID:   "ds-1",
			Column:      "region",
			Description: "Sales region code",
			Tags:        []string{"geo"},
			UpdatedAt:   time.Now().UTC(),
		})).To(Succeed())

		server, err = NewServer(Config{
			Store:      store,
			Explorer:   explorer.NewService(store.DB()),
			Dictionary: dictionary.NewService(store),
			Logger:     zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("list_tables", func() {
		It("lists datasets with table names and columns", func() {
			result, output, err := server.handleListTables(ctx, nil, struct{}{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Count).To(Equal(1))
			Expect(output.Tables[0].Table).To(Equal("ds_orders"))
			Expect(output.Tables[0].Columns).To(ContainElement("amount (real)"))
		})
	})

	Describe("run_query", func() {
		It("runs a SELECT and returns rows", func() {
			result, output, err := server.handleRunQuery(ctx, nil, RunQueryInput{
				SQL: `SELECT "region" FROM ds_orders ORDER BY "region"`,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Columns).To(Equal([]string{"region"}))
			Expect(output.RowCount).To(Equal(2))
			Expect(output.Rows[0][0]).To(Equal("east"))
		})

		It("rejects non-SELECT statements as a tool error", func() {
			result, _, err := server.handleRunQuery(ctx, nil, RunQueryInput{
				SQL: "DELETE FROM ds_orders",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("search_dictionary", func() {
		It("finds documented columns by substring", func() {
			result, output, err := server.handleSearchDictionary(ctx, nil, SearchDictionaryInput{
				Query: "region",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())

			Expect(output.Count).To(Equal(1))
			Expect(output.Results[0].Column).To(Equal("region"))
			Expect(output.Results[0].Description).To(Equal("Sales region code"))
		})

		It("returns no results for unmatched queries", func() {
			_, output, err := server.handleSearchDictionary(ctx, nil, SearchDictionaryInput{
				Query: "unrelated",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Count).To(BeZero())
		})
	})
})
