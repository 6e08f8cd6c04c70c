package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/corelens-ai/corelens/api"
	"github.com/corelens-ai/corelens/pkg/assistant"
	"github.com/corelens-ai/corelens/pkg/dataset"
	"github.com/corelens-ai/corelens/pkg/dictionary"
	"github.com/corelens-ai/corelens/pkg/explorer"
	"github.com/corelens-ai/corelens/pkg/insights"
	"github.com/corelens-ai/corelens/pkg/llm"
	"github.com/corelens-ai/corelens/pkg/quality"
	"github.com/corelens-ai/corelens/pkg/registry"
	"github.com/corelens-ai/corelens/pkg/storage"
	"github.com/corelens-ai/corelens/pkg/storage/sqlite"
	"github.com/corelens-ai/corelens/pkg/stream"
	testutils "github.com/corelens-ai/corelens/pkg/utils/test"
)

// scriptedProvider pops one canned assistant message per ChatStream call and
// returns fixed markdown from Chat.
type scriptedProvider struct {
	replies []llm.Message
	chat    string
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	return &llm.ChatResponse{
		Model:   "scripted",
		Message: llm.Message{Role: "assistant", Content: p.chat},
	}, nil
}

func (p *scriptedProvider) ChatStream(_ context.Context, _ *llm.ChatRequest, fn func(chunk *llm.StreamChunk) error) error {
	if len(p.replies) == 0 {
		return fmt.Errorf("scripted provider exhausted")
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]

	return fn(&llm.StreamChunk{Model: "scripted", Message: reply, Done: true})
}

func multipartCSV(filename, name, csv string) (*bytes.Buffer, string) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = io.WriteString(part, csv)
	Expect(err).NotTo(HaveOccurred())

	if name != "" {
		Expect(writer.WriteField("name", name)).To(Succeed())
	}
	Expect(writer.Close()).To(Succeed())

	return &body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		server   *api.Server
		provider *scriptedProvider
	)

	decode := func(resp *http.Response, into any) {
		GinkgoHelper()
		defer resp.Body.Close()
		Expect(json.NewDecoder(resp.Body).Decode(into)).To(Succeed())
	}

	jsonRequest := func(method, path string, payload any) *http.Request {
		GinkgoHelper()
		var body io.Reader
		if payload != nil {
			encoded, err := json.Marshal(payload)
			Expect(err).NotTo(HaveOccurred())
			body = bytes.NewReader(encoded)
		}
		req := httptest.NewRequest(method, path, body)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req
	}

	uploadCSV := func(name, csv string) storage.Dataset {
		GinkgoHelper()
		body, contentType := multipartCSV(name+".csv", name, csv)
		req := httptest.NewRequest(http.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := server.App().Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var ds storage.Dataset
		decode(resp, &ds)
		return ds
	}

	BeforeEach(func() {
		store, err := sqlite.New(filepath.Join(GinkgoT().TempDir(), "corelens.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			Expect(store.Close()).To(Succeed())
		})

		publisher := testutils.NewMockPublisher()
		provider = &scriptedProvider{chat: "# Findings\n\nAll good."}

		exp := explorer.NewService(store.DB())
		dict := dictionary.NewService(store)
		toolbox := assistant.NewToolbox(store, exp, dict)

		server = api.NewServer(api.Config{ListenAddr: ":0"}, api.Services{
			Store:      store,
			Datasets:   dataset.NewService(store.DB(), store.Dialect(), store, publisher, nil),
			Quality:    quality.NewService(store.DB(), store, nil),
			Dictionary: dict,
			Explorer:   exp,
			Insights:   insights.NewService(store, provider, "scripted", publisher, nil),
			Registry:   registry.NewService(store, publisher, nil),
			Assistant:  assistant.NewService(provider, "scripted", store, toolbox, nil),
		}, zap.NewNop())
	})

	Describe("ping", func() {
		It("responds pong", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var msg string
			decode(resp, &msg)
			Expect(msg).To(Equal("pong"))
		})
	})

	Describe("datasets", func() {
		It("ingests an uploaded CSV", func() {
			ds := uploadCSV("churn", "id,age\nu1,34\nu2,51\n")
			Expect(ds.ID).NotTo(BeEmpty())
			Expect(ds.RowCount).To(Equal(2))
			Expect(ds.Columns).To(HaveLen(2))
		})

		It("rejects uploads without a file part", func() {
			req := httptest.NewRequest(http.MethodPost, "/datasets", strings.NewReader("id,age\n"))
			req.Header.Set("Content-Type", "text/csv")

			resp, err := server.App().Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("lists and gets datasets", func() {
			ds := uploadCSV("sales", "region,amount\neast,10\n")

			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets", nil))
			Expect(err).NotTo(HaveOccurred())
			var list struct {
				Count    int               `json:"count"`
				Datasets []storage.Dataset `json:"datasets"`
			}
			decode(resp, &list)
			Expect(list.Count).To(Equal(1))

			resp, err = server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets/"+ds.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("returns 404 for unknown datasets", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets/nope", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("deletes a dataset", func() {
			ds := uploadCSV("gone", "a\n1\n")

			resp, err := server.App().Test(httptest.NewRequest(http.MethodDelete, "/datasets/"+ds.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))

			resp, err = server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets/"+ds.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("quality", func() {
		It("reports on an ingested dataset", func() {
			ds := uploadCSV("q", "name,score\nalpha,1\nbeta,\n")

			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets/"+ds.ID+"/quality", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var report quality.Report
			decode(resp, &report)
			Expect(report.DatasetID).To(Equal(ds.ID))
			Expect(report.Score).To(BeNumerically(">", 0))
			Expect(report.UndocumentedColumns).To(ContainElement("score"))
		})
	})

	Describe("dictionary", func() {
		It("lists seeded entries and updates one", func() {
			ds := uploadCSV("dict", "region,amount\neast,10\n")

			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets/"+ds.ID+"/dictionary", nil))
			Expect(err).NotTo(HaveOccurred())
			var list struct {
				Count   int                        `json:"count"`
				Entries []*storage.DictionaryEntry `json:"entries"`
			}
			decode(resp, &list)
			Expect(list.Count).To(Equal(2))

			resp, err = server.App().Test(jsonRequest(http.MethodPut, "/datasets/"+ds.ID+"/dictionary/region", map[string]any{
				"description": "Sales region code",
				"tags":        []string{"geo"},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var entry storage.DictionaryEntry
			decode(resp, &entry)
			Expect(entry.Description).To(Equal("Sales region code"))
		})

		It("rejects updates for unknown columns", func() {
			ds := uploadCSV("cols", "a\n1\n")

			resp, err := server.App().Test(jsonRequest(http.MethodPut, "/datasets/"+ds.ID+"/dictionary/missing", map[string]any{
				"description": "x",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("searches entries by substring", func() {
			ds := uploadCSV("s", "region\neast\n")

			_, err := server.App().Test(jsonRequest(http.MethodPut, "/datasets/"+ds.ID+"/dictionary/region", map[string]any{
				"description": "Two letter region",
			}))
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets/"+ds.ID+"/dictionary/search?query=region", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out struct {
				Count int `json:"count"`
			}
			decode(resp, &out)
			Expect(out.Count).To(Equal(1))
		})

		It("requires a query parameter", func() {
			resp, err := server.App().Test(httptest.NewRequest(http.MethodGet, "/datasets/x/dictionary/search", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("explorer", func() {
		It("runs a SELECT against the dataset table", func() {
			ds := uploadCSV("exp", "name,score\nalpha,1\nbeta,2\n")

			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/explorer/query", map[string]any{
				"sql": fmt.Sprintf(`SELECT "name" FROM %s ORDER BY "score" DESC`, ds.TableName),
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result explorer.Result
			decode(resp, &result)
			Expect(result.RowCount).To(Equal(2))
			Expect(result.Rows[0][0]).To(Equal("beta"))
		})

		It("rejects mutating statements", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/explorer/query", map[string]any{
				"sql": "DROP TABLE datasets",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("insights", func() {
		It("generates and fetches an insight", func() {
			ds := uploadCSV("ins", "a\n1\n")

			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/datasets/"+ds.ID+"/insights", nil), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var insight storage.Insight
			decode(resp, &insight)
			Expect(insight.Title).To(Equal("Findings"))

			resp, err = server.App().Test(httptest.NewRequest(http.MethodGet, "/insights/"+insight.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})

	Describe("registry", func() {
		It("walks the model, recipe, and run lifecycle", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/models", map[string]any{
				"name": "churn-predictor", "task": "classification", "version": "1",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var model storage.Model
			decode(resp, &model)

			resp, err = server.App().Test(jsonRequest(http.MethodPost, "/recipes", map[string]any{
				"name": "weekly-train", "model_id": model.ID,
				"definition": map[string]any{"epochs": 3},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var recipe storage.Recipe
			decode(resp, &recipe)

			resp, err = server.App().Test(jsonRequest(http.MethodPost, "/recipes/"+recipe.ID+"/runs", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var run storage.Run
			decode(resp, &run)
			Expect(run.Status).To(Equal(storage.RunStatusPending))

			resp, err = server.App().Test(jsonRequest(http.MethodPost, "/runs/"+run.ID+"/start", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			resp, err = server.App().Test(jsonRequest(http.MethodPost, "/runs/"+run.ID+"/complete", map[string]any{
				"metrics": map[string]float64{"accuracy": 0.93},
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			decode(resp, &run)
			Expect(run.Status).To(Equal(storage.RunStatusSucceeded))
			Expect(run.Metrics).To(HaveKeyWithValue("accuracy", 0.93))
		})

		It("returns 409 for invalid run transitions", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/models", map[string]any{
				"name": "m", "task": "classification", "version": "1",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var model storage.Model
			decode(resp, &model)

			resp, err = server.App().Test(jsonRequest(http.MethodPost, "/recipes", map[string]any{
				"name": "r", "model_id": model.ID,
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var recipe storage.Recipe
			decode(resp, &recipe)

			resp, err = server.App().Test(jsonRequest(http.MethodPost, "/recipes/"+recipe.ID+"/runs", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			var run storage.Run
			decode(resp, &run)

			// pending -> succeeded skips running
			resp, err = server.App().Test(jsonRequest(http.MethodPost, "/runs/"+run.ID+"/complete", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})
	})

	Describe("chat", func() {
		It("rejects unknown assistants before streaming", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/chat", map[string]any{
				"content": "hi", "assistant": "nonsense",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("requires content", func() {
			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/chat", map[string]any{
				"content": "  ", "assistant": "data-qa",
			}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("streams deltas and a done frame over SSE", func() {
			provider.replies = []llm.Message{
				{Role: "assistant", Content: "The dataset looks healthy."},
			}

			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/chat", map[string]any{
				"content": "how does it look?", "assistant": "data-qa",
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))

			var content string
			var messageID string
			reader := stream.NewReader(resp.Body, stream.Handlers{
				OnDelta: func(text string) { content = text },
				OnDone:  func(id string) { messageID = id },
			})
			Expect(reader.Run()).To(Succeed())

			Expect(content).To(Equal("The dataset looks healthy."))
			Expect(messageID).NotTo(BeEmpty())
		})

		It("round-trips tool calls through the SSE vocabulary", func() {
			ds := uploadCSV("tools", "region\neast\n")

			provider.replies = []llm.Message{
				{Role: "assistant", ToolCalls: []llm.ToolCall{{
					Name:  "run_query",
					Input: map[string]any{"sql": fmt.Sprintf("SELECT COUNT(*) AS n FROM %s", ds.TableName)},
				}}},
				{Role: "assistant", Content: "There is 1 row."},
			}

			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/chat", map[string]any{
				"content": "count rows", "assistant": "data-qa", "dataset_id": ds.ID,
			}), -1)
			Expect(err).NotTo(HaveOccurred())

			tracker := stream.NewToolCallTracker()
			var resolved []string
			reader := stream.NewReader(resp.Body, stream.Handlers{
				OnToolCall: func(name string, input map[string]any) { tracker.Record(name, input) },
				OnToolResult: func(name string, _ json.RawMessage) {
					if _, ok := tracker.Resolve(name); ok {
						resolved = append(resolved, name)
					}
				},
				OnDone: func(string) {},
			})
			Expect(reader.Run()).To(Succeed())

			Expect(resolved).To(Equal([]string{"run_query"}))
			Expect(tracker.Pending()).To(BeEmpty())
		})

		It("returns one JSON message when stream is false", func() {
			provider.replies = []llm.Message{
				{Role: "assistant", Content: "plain answer"},
			}

			resp, err := server.App().Test(jsonRequest(http.MethodPost, "/chat", map[string]any{
				"content": "hi", "assistant": "data-qa", "stream": false,
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var msg struct {
				MessageID string `json:"message_id"`
				Content   string `json:"content"`
			}
			decode(resp, &msg)
			Expect(msg.MessageID).NotTo(BeEmpty())
			Expect(msg.Content).To(Equal("plain answer"))
		})
	})
})
