package assistant_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/assistant"
	"github.com/corelens-ai/corelens/pkg/dataset"
	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/eventstream/nop"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/storage/sqlite"
	"github.com/corelens-ai/corelens/pkg/storage/sqlstore"
)

// scriptedProvider streams a fixed sequence of chunks per round.
type scriptedProvider struct {
	rounds   [][]*llm.StreamChunk
	requests []*llm.ChatRequest
	err      error
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, fmt.Errorf("not used")
}

func (s *scriptedProvider) ChatStream(_ context.Context, req *llm.ChatRequest, fn func(*llm.StreamChunk) error) error {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return s.err
	}

	round := len(s.requests) - 1
	if round >= len(s.rounds) {
		return fmt.Errorf("no scripted round %d", round)
	}
	for _, chunk := range s.rounds[round] {
		if err := fn(chunk); err != nil {
			return err
		}
	}

	return nil
}

type emitted struct {
	eventType string
	payload   any
}

var _ = Describe("Service", func() {
	var (
		store   *sqlstore.Store
		toolbox *assistant.Toolbox
		ctx     context.Context
		ds      *storage.Dataset
		events  []emitted
		emit    assistant.EmitFunc
	)

	BeforeEach(func() {
		var err error
		store, err = sqlite.New(filepath.Join(GinkgoT().TempDir(), "corelens.db"))
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		datasets := dataset.NewService(store.DB(), store.Dialect(), store, nop.NewPublisher(), nil)
		ds, err = datasets.Ingest(ctx, "orders", "orders.csv",
			strings.NewReader("region,amount\neast,10\nwest,20\neast,5\n"))
		Expect(err).NotTo(HaveOccurred())

		toolbox = assistant.NewToolbox(store, explorer.NewService(store.DB()), dictionary.NewService(store))
		events = nil
		emit = func(eventType string, payload any) error {
			events = append(events, emitted{eventType, payload})
			return nil
		}

		DeferCleanup(func() {
			Expect(store.Close()).To(Succeed())
		})
	})

	eventTypes := func() []string {
		types := make([]string, 0, len(events))
		for _, ev := range events {
			types = append(types, ev.eventType)
		}
		return types
	}

	It("streams deltas and finishes with done", func() {
		provider := &scriptedProvider{rounds: [][]*llm.StreamChunk{{
			{Message: llm.Message{Role: "assistant", Content: "Hel"}},
			{Message: llm.Message{Role: "assistant", Content: "lo"}},
			{Done: true},
		}}}
		service := assistant.NewService(provider, "llama3.2", store, toolbox, nil)

		err := service.Chat(ctx, &assistant.ChatRequest{Content: "hi", Assistant: "data-qa"}, emit)
		Expect(err).NotTo(HaveOccurred())

		Expect(eventTypes()).To(Equal([]string{"delta", "delta", "done"}))
		Expect(events[0].payload).To(Equal(assistant.DeltaEvent{Content: "Hel"}))
		Expect(events[1].payload).To(Equal(assistant.DeltaEvent{Content: "lo"}))
		Expect(events[2].payload.(assistant.DoneEvent).MessageID).NotTo(BeEmpty())
	})

	It("invokes tools and feeds results back to the model", func() {
		query := `SELECT SUM("amount") AS total FROM ` + ds.TableName
		provider := &scriptedProvider{rounds: [][]*llm.StreamChunk{
			{
				{Message: llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{
					{Name: "run_query", Input: map[string]any{"query": query}},
				}}},
				{Done: true},
			},
			{
				{Message: llm.Message{Role: "assistant", Content: "The total is 35."}},
				{Done: true},
			},
		}}
		service := assistant.NewService(provider, "llama3.2", store, toolbox, nil)

		err := service.Chat(ctx, &assistant.ChatRequest{Content: "total amount?", Assistant: "data-qa"}, emit)
		Expect(err).NotTo(HaveOccurred())

		Expect(eventTypes()).To(Equal([]string{"tool_call", "tool_result", "delta", "done"}))

		call := events[0].payload.(assistant.ToolCallEvent)
		Expect(call.ToolName).To(Equal("run_query"))
		Expect(call.ToolInput).To(HaveKey("query"))

		result := events[1].payload.(assistant.ToolResultEvent)
		Expect(result.ToolName).To(Equal("run_query"))
		Expect(result.Result.(*explorer.Result).Rows[0][0]).To(BeEquivalentTo(35))

		// Second round must carry the tool output back to the model.
		Expect(provider.requests).To(HaveLen(2))
		second := provider.requests[1].Messages
		Expect(second[len(second)-1].Role).To(Equal("tool"))
		Expect(second[len(second)-1].Content).To(ContainSubstring("35"))
	})

	It("reports tool failures to the model instead of aborting", func() {
		provider := &scriptedProvider{rounds: [][]*llm.StreamChunk{
			{
				{Message: llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{
					{Name: "run_query", Input: map[string]any{"query": "DROP TABLE x"}},
				}}},
			},
			{
				{Message: llm.Message{Role: "assistant", Content: "That query is not allowed."}},
			},
		}}
		service := assistant.NewService(provider, "llama3.2", store, toolbox, nil)

		err := service.Chat(ctx, &assistant.ChatRequest{Content: "drop it", Assistant: "data-qa"}, emit)
		Expect(err).NotTo(HaveOccurred())

		result := events[1].payload.(assistant.ToolResultEvent)
		Expect(result.Result).To(HaveKeyWithValue("error", ContainSubstring("SELECT")))
	})

	It("scopes the system prompt to the requested dataset", func() {
		provider := &scriptedProvider{rounds: [][]*llm.StreamChunk{{
			{Message: llm.Message{Role: "assistant", Content: "ok"}},
		}}}
		service := assistant.NewService(provider, "llama3.2", store, toolbox, nil)

		err := service.Chat(ctx, &assistant.ChatRequest{Content: "hi", Assistant: "data-qa", DatasetID: ds.ID}, emit)
		Expect(err).NotTo(HaveOccurred())

		Expect(provider.requests[0].System).To(ContainSubstring(ds.TableName))
		Expect(provider.requests[0].System).To(ContainSubstring("region (text)"))
	})

	It("rejects unknown assistant profiles with an error event", func() {
		provider := &scriptedProvider{}
		service := assistant.NewService(provider, "llama3.2", store, toolbox, nil)

		err := service.Chat(ctx, &assistant.ChatRequest{Content: "hi", Assistant: "nope"}, emit)
		Expect(err).To(HaveOccurred())

		Expect(eventTypes()).To(Equal([]string{"error"}))
		Expect(events[0].payload.(assistant.ErrorEvent).Error).To(ContainSubstring("unknown assistant profile"))
	})

	It("emits an error event when the provider fails", func() {
		provider := &scriptedProvider{err: fmt.Errorf("connection refused")}
		service := assistant.NewService(provider, "llama3.2", store, toolbox, nil)

		err := service.Chat(ctx, &assistant.ChatRequest{Content: "hi", Assistant: "data-qa"}, emit)
		Expect(err).To(MatchError(ContainSubstring("connection refused")))
		Expect(eventTypes()).To(Equal([]string{"error"}))
	})
})

var _ = Describe("Toolbox", func() {
	var (
		store   *sqlstore.Store
		toolbox *assistant.Toolbox
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = sqlite.New(filepath.Join(GinkgoT().TempDir(), "corelens.db"))
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		datasets := dataset.NewService(store.DB(), store.Dialect(), store, nop.NewPublisher(), nil)
		ds, err := datasets.Ingest(ctx, "orders", "orders.csv", strings.NewReader("region,amount\neast,10\n"))
		Expect(err).NotTo(HaveOccurred())

		dict := dictionary.NewService(store)
		_, err = dict.Upsert(ctx, ds.ID, "amount", "order value in dollars", []string{"finance"})
		Expect(err).NotTo(HaveOccurred())

		toolbox = assistant.NewToolbox(store, explorer.NewService(store.DB()), dict)

		DeferCleanup(func() {
			Expect(store.Close()).To(Succeed())
		})
	})

	It("advertises the three platform tools", func() {
		defs := toolbox.Definitions()
		names := make([]string, 0, len(defs))
		for _, def := range defs {
			names = append(names, def.Name)
		}
		Expect(names).To(ConsistOf("list_tables", "run_query", "search_dictionary"))
	})

	It("lists tables with column summaries", func() {
		result, err := toolbox.Invoke(ctx, "list_tables", nil)
		Expect(err).NotTo(HaveOccurred())

		tables := result.(map[string]any)["tables"]
		Expect(fmt.Sprintf("%v", tables)).To(ContainSubstring("orders"))
		Expect(fmt.Sprintf("%v", tables)).To(ContainSubstring("amount integer"))
	})

	It("searches the dictionary", func() {
		result, err := toolbox.Invoke(ctx, "search_dictionary", map[string]any{"query": "finance"})
		Expect(err).NotTo(HaveOccurred())

		matches := result.(map[string]any)["matches"].([]dictionary.SearchResult)
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Entry.Column).To(Equal("amount"))
	})

	It("rejects unknown tools", func() {
		_, err := toolbox.Invoke(ctx, "rm_rf", nil)
		Expect(err).To(MatchError(ContainSubstring("unknown tool")))
	})
})
