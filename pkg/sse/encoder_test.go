package sse

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("pipe closed")
}

var _ = Describe("Encoder", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	Describe("WriteEvent", func() {
		It("writes the event line, data line, and blank-line delimiter", func() {
			enc := NewEncoder(buf)

			err := enc.WriteEvent(Event{Type: "delta", Data: `{"content":"A"}`})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("event: delta\ndata: {\"content\":\"A\"}\n\n"))
		})

		It("frames consecutive events independently", func() {
			enc := NewEncoder(buf)

			Expect(enc.WriteEvent(Event{Type: "delta", Data: `{"content":"A"}`})).To(Succeed())
			Expect(enc.WriteEvent(Event{Type: "done", Data: `{"message_id":"m1"}`})).To(Succeed())

			Expect(buf.String()).To(Equal(
				"event: delta\ndata: {\"content\":\"A\"}\n\n" +
					"event: done\ndata: {\"message_id\":\"m1\"}\n\n",
			))
		})

		It("propagates writer failures", func() {
			enc := NewEncoder(failWriter{})

			err := enc.WriteEvent(Event{Type: "delta", Data: "{}"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("pipe closed"))
		})
	})

	Describe("WriteJSON", func() {
		It("marshals the payload into the data field", func() {
			enc := NewEncoder(buf)

			err := enc.WriteJSON("tool_call", map[string]any{"tool_name": "list_tables"})
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(Equal("event: tool_call\ndata: {\"tool_name\":\"list_tables\"}\n\n"))
		})
	})
})
