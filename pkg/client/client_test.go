package client_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/client"
	"github.com/corelens-ai/corelens/pkg/stream"
)

var _ = Describe("Client", func() {
	var (
		ctx    context.Context
		server *httptest.Server
		mux    *http.ServeMux
		cl     *client.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		cl = client.New(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Ping", func() {
		It("succeeds against a healthy server", func() {
			mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode("pong")
			})

			Expect(cl.Ping(ctx)).To(Succeed())
		})

		It("surfaces the API error envelope", func() {
			mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": "database unavailable"})
			})

			err := cl.Ping(ctx)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database unavailable"))
			Expect(err.Error()).To(ContainSubstring("500"))
		})
	})

	Describe("UploadDataset", func() {
		It("sends the file and name as multipart form data", func() {
			mux.HandleFunc("POST /datasets", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.ParseMultipartForm(1 << 20)).To(Succeed())

				file, header, err := r.FormFile("file")
				Expect(err).NotTo(HaveOccurred())
				defer file.Close()

				data, err := io.ReadAll(file)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(ContainSubstring("region,amount"))
				Expect(header.Filename).To(Equal("sales.csv"))
				Expect(r.FormValue("name")).To(Equal("sales"))

				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(map[string]any{
					"id":        "ds-1",
					"name":      "sales",
					"row_count": 2,
				})
			})

			csv := strings.NewReader("region,amount\neast,12.5\nwest,note\n")
			ds, err := cl.UploadDataset(ctx, "sales", "sales.csv", csv)
			Expect(err).NotTo(HaveOccurred())
			Expect(ds.ID).To(Equal("ds-1"))
			Expect(ds.RowCount).To(Equal(2))
		})
	})

	Describe("ListDatasets", func() {
		It("unwraps the datasets envelope", func() {
			mux.HandleFunc("GET /datasets", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"count": 2,
					"datasets": []map[string]any{
						{"id": "ds-1", "name": "sales"},
						{"id": "ds-2", "name": "churn"},
					},
				})
			})

			datasets, err := cl.ListDatasets(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(datasets).To(HaveLen(2))
			Expect(datasets[1].Name).To(Equal("churn"))
		})
	})

	Describe("Query", func() {
		It("posts the SQL and decodes the result", func() {
			mux.HandleFunc("POST /explorer/query", func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["sql"]).To(Equal("SELECT region FROM ds_sales"))

				json.NewEncoder(w).Encode(map[string]any{
					"columns":   []string{"region"},
					"rows":      [][]any{{"east"}, {"west"}},
					"row_count": 2,
				})
			})

			result, err := cl.Query(ctx, "SELECT region FROM ds_sales")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Columns).To(Equal([]string{"region"}))
			Expect(result.RowCount).To(Equal(2))
		})
	})

	Describe("SearchDictionary", func() {
		It("passes the query and limit as URL parameters", func() {
			mux.HandleFunc("GET /datasets/ds-1/dictionary/search", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("query")).To(Equal("revenue"))
				Expect(r.URL.Query().Get("limit")).To(Equal("3"))

				json.NewEncoder(w).Encode(map[string]any{
					"query": "revenue",
					"count": 1,
					"results": []map[string]any{
						{"entry": map[string]any{"column": "amount"}, "score": 0.9},
					},
				})
			})

			results, err := cl.SearchDictionary(ctx, "ds-1", "revenue", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Entry.Column).To(Equal("amount"))
		})
	})

	Describe("run lifecycle", func() {
		It("hits the transition endpoints", func() {
			var gotMetrics map[string]float64
			mux.HandleFunc("POST /runs/run-1/start", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"id": "run-1", "status": "running"})
			})
			mux.HandleFunc("POST /runs/run-1/complete", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Metrics map[string]float64 `json:"metrics"`
				}
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				gotMetrics = body.Metrics
				json.NewEncoder(w).Encode(map[string]any{"id": "run-1", "status": "succeeded", "metrics": body.Metrics})
			})

			run, err := cl.StartRun(ctx, "run-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Status).To(Equal("running"))

			run, err = cl.CompleteRun(ctx, "run-1", map[string]float64{"accuracy": 0.91})
			Expect(err).NotTo(HaveOccurred())
			Expect(run.Status).To(Equal("succeeded"))
			Expect(gotMetrics).To(HaveKeyWithValue("accuracy", 0.91))
		})

		It("reports transition conflicts", func() {
			mux.HandleFunc("POST /runs/run-1/complete", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid run transition from pending to completed"})
			})

			_, err := cl.CompleteRun(ctx, "run-1", nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid run transition"))
		})
	})

	Describe("Chat", func() {
		It("requests a buffered response", func() {
			mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["stream"]).To(BeFalse())
				Expect(body["content"]).To(Equal("how many rows?"))

				json.NewEncoder(w).Encode(map[string]any{
					"message_id": "msg-1",
					"content":    "There are 42 rows.",
				})
			})

			msg, err := cl.Chat(ctx, client.ChatRequest{Content: "how many rows?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(msg.MessageID).To(Equal("msg-1"))
			Expect(msg.Content).To(Equal("There are 42 rows."))
		})
	})

	Describe("StreamChat", func() {
		It("returns the SSE body for the stream reader", func() {
			mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				Expect(body["stream"]).To(BeTrue())

				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, "data: {\"type\":\"delta\",\"content\":\"The answer\"}\n\n")
				fmt.Fprint(w, "data: {\"type\":\"delta\",\"content\":\" is 42.\"}\n\n")
				fmt.Fprint(w, "data: {\"type\":\"done\",\"message_id\":\"msg-9\"}\n\n")
			})

			body, err := cl.StreamChat(ctx, client.ChatRequest{Content: "how many rows?"})
			Expect(err).NotTo(HaveOccurred())
			defer body.Close()

			var (
				content string
				doneID  string
			)
			reader := stream.NewReader(body, stream.Handlers{
				OnDelta: func(text string) { content = text },
				OnDone:  func(messageID string) { doneID = messageID },
			})
			Expect(reader.Run()).To(Succeed())
			Expect(content).To(Equal("The answer is 42."))
			Expect(doneID).To(Equal("msg-9"))
		})

		It("decodes the error envelope before streaming starts", func() {
			mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "unknown assistant: oracle"})
			})

			_, err := cl.StreamChat(ctx, client.ChatRequest{Content: "hi", Assistant: "oracle"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown assistant"))
		})
	})
})
