package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/corelens-ai/corelens/pkg/eventstream"
	"github.com/corelens-ai/corelens/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("accepts events without side effects", func() {
		p := nop.NewPublisher()
		ev := eventstream.NewDatasetIngested(eventstream.DatasetIngestedPayload{DatasetID: "ds-1"})

		Expect(p.Publish(context.Background(), ev)).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})

	It("rejects nil events", func() {
		p := nop.NewPublisher()

		Expect(p.Publish(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})
})
