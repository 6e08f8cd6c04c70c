package explorer_test

import (
	"context"
	"database/sql"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/explorer"
)

var _ = Describe("Service", func() {
	var (
		db  *sql.DB
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = sql.Open("sqlite3", filepath.Join(GinkgoT().TempDir(), "explorer.db"))
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		_, err = db.Exec(`CREATE TABLE ds_test (region TEXT, amount INTEGER)`)
		Expect(err).NotTo(HaveOccurred())
		_, err = db.Exec(`INSERT INTO ds_test VALUES ('east', 10), ('west', 20), ('east', 30)`)
		Expect(err).NotTo(HaveOccurred())

		DeferCleanup(func() {
			Expect(db.Close()).To(Succeed())
		})
	})

	It("runs a SELECT and returns columns with rows", func() {
		service := explorer.NewService(db)

		result, err := service.Query(ctx, `SELECT region, SUM(amount) AS total FROM ds_test GROUP BY region ORDER BY region`)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Columns).To(Equal([]string{"region", "total"}))
		Expect(result.RowCount).To(Equal(2))
		Expect(result.Rows[0][0]).To(Equal("east"))
		Expect(result.Truncated).To(BeFalse())
	})

	It("allows WITH queries", func() {
		service := explorer.NewService(db)

		result, err := service.Query(ctx, `WITH big AS (SELECT * FROM ds_test WHERE amount > 15) SELECT COUNT(*) FROM big`)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.RowCount).To(Equal(1))
	})

	It("tolerates a trailing semicolon", func() {
		service := explorer.NewService(db)

		_, err := service.Query(ctx, `SELECT 1;`)
		Expect(err).NotTo(HaveOccurred())
	})

	It("truncates results at the row cap", func() {
		service := explorer.NewService(db, explorer.WithMaxRows(2))

		result, err := service.Query(ctx, `SELECT * FROM ds_test`)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.RowCount).To(Equal(2))
		Expect(result.Truncated).To(BeTrue())
	})

	It("rejects writes", func() {
		service := explorer.NewService(db)

		_, err := service.Query(ctx, `DELETE FROM ds_test`)
		Expect(err).To(BeAssignableToTypeOf(explorer.ErrNotReadOnly{}))

		var count int
		Expect(db.QueryRow(`SELECT COUNT(*) FROM ds_test`).Scan(&count)).To(Succeed())
		Expect(count).To(Equal(3))
	})

	It("rejects stacked statements", func() {
		service := explorer.NewService(db)

		_, err := service.Query(ctx, `SELECT 1; DROP TABLE ds_test`)
		Expect(err).To(MatchError(ContainSubstring("multiple statements")))
	})

	It("rejects empty input", func() {
		service := explorer.NewService(db)

		_, err := service.Query(ctx, "   ")
		Expect(err).To(HaveOccurred())
	})
})
