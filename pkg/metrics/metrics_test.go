package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/companion/pkg/metrics"
)

var _ = Describe("Metrics", func() {
	It("counts by label", func() {
		m := metrics.New(nil)
		m.ObserveMessage("venting", time.Millisecond)
		m.ObserveMessage("venting", time.Millisecond)
		m.ObserveOverflow("conversation_length")
		m.ObserveJob("turn", "dropped")

		Expect(testutil.ToFloat64(m.MessagesProcessed.WithLabelValues("venting"))).To(Equal(2.0))
		Expect(testutil.ToFloat64(m.Overflows.WithLabelValues("conversation_length"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(m.WorkerJobs.WithLabelValues("turn", "dropped"))).To(Equal(1.0))
	})

	It("tracks the session gauge", func() {
		m := metrics.New(nil)
		m.SetSessions(4)
		Expect(testutil.ToFloat64(m.ActiveSessions)).To(Equal(4.0))
	})

	It("is safe on a nil receiver", func() {
		var m *metrics.Metrics
		Expect(func() {
			m.ObserveMessage("x", 0)
			m.ObserveOverflow("x")
			m.ObserveFact("x")
			m.SetSessions(1)
			m.ObserveEviction("x")
			m.ObserveJob("x", "ok")
		}).NotTo(Panic())
	})
})
