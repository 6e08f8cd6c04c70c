package insights_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/eventstream/nop"
	"github.com/corelens-ai/corelens/pkg/insights"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/storage/inmemory"
)

// stubProvider returns a canned reply and records the last request.
type stubProvider struct {
	reply   string
	lastReq *llm.ChatRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	s.lastReq = req
	return &llm.ChatResponse{
		Model:   req.Model,
		Message: llm.Message{Role: "assistant", Content: s.reply},
	}, nil
}

func (s *stubProvider) ChatStream(_ context.Context, req *llm.ChatRequest, fn func(*llm.StreamChunk) error) error {
	s.lastReq = req
	return fn(&llm.StreamChunk{Message: llm.Message{Role: "assistant", Content: s.reply}, Done: true})
}

var _ = Describe("Service", func() {
	var (
		store *inmemory.Store
		stub  *stubProvider
		ctx   context.Context
	)

	BeforeEach(func() {
		store = inmemory.New()
		stub = &stubProvider{reply: "# Churn dataset overview\n\n- tenure skews low\n- 12% nulls in region"}
		ctx = context.Background()

		Expect(store.PutDataset(ctx, &storage.Dataset{
			ID:       "ds-1",
			Name:     "churn",
			Filename: "churn.csv",
			RowCount: 500,
			Columns: []storage.ColumnMeta{
				{Name: "tenure", Type: "integer", DistinctCount: 60},
				{Name: "region", Type: "text", NullCount: 60, DistinctCount: 4},
			},
			CreatedAt: time.Now(),
		})).To(Succeed())
	})

	It("stores the generated insight with a title from the heading", func() {
		service := insights.NewService(store, stub, "llama3.2", nop.NewPublisher(), nil)

		insight, err := service.Generate(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(insight.Title).To(Equal("Churn dataset overview"))
		Expect(insight.Model).To(Equal("llama3.2"))

		stored, err := store.GetInsight(ctx, insight.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.Content).To(ContainSubstring("tenure skews low"))
	})

	It("feeds the column profile to the model", func() {
		service := insights.NewService(store, stub, "llama3.2", nop.NewPublisher(), nil)

		_, err := service.Generate(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())

		Expect(stub.lastReq.System).NotTo(BeEmpty())
		Expect(stub.lastReq.Messages).To(HaveLen(1))
		prompt := stub.lastReq.Messages[0].Content
		Expect(prompt).To(ContainSubstring("tenure (integer)"))
		Expect(prompt).To(ContainSubstring("60 nulls"))
	})

	It("includes dictionary descriptions in the prompt", func() {
		Expect(store.PutDictionaryEntry(ctx, &storage.DictionaryEntry{
			ID:          "e-1",
			DatasetID:   "ds-1",
			Column:      "tenure",
			Description: "months since signup",
			UpdatedAt:   time.Now(),
		})).To(Succeed())

		service := insights.NewService(store, stub, "llama3.2", nop.NewPublisher(), nil)
		_, err := service.Generate(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(stub.lastReq.Messages[0].Content).To(ContainSubstring("months since signup"))
	})

	It("falls back to a derived title when the reply has no heading", func() {
		stub.reply = "just some bullets\n- one\n- two"
		service := insights.NewService(store, stub, "llama3.2", nop.NewPublisher(), nil)

		insight, err := service.Generate(ctx, "ds-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(insight.Title).To(Equal("Insights for churn"))
	})

	It("rejects empty model replies", func() {
		stub.reply = "   "
		service := insights.NewService(store, stub, "llama3.2", nop.NewPublisher(), nil)

		_, err := service.Generate(ctx, "ds-1")
		Expect(err).To(MatchError(ContainSubstring("empty insight")))
	})

	It("fails for unknown datasets", func() {
		service := insights.NewService(store, stub, "llama3.2", nop.NewPublisher(), nil)

		_, err := service.Generate(ctx, "missing")
		Expect(err).To(MatchError(storage.ErrNotFound{Kind: "dataset", ID: "missing"}))
	})
})
