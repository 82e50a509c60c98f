package session_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/metrics"
	"github.com/papercomputeco/companion/pkg/session"
)

// fakeClock is advanced by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var _ = Describe("CacheStore", func() {
	var (
		clock *fakeClock
		m     *metrics.Metrics
		store *session.CacheStore
	)

	BeforeEach(func() {
		clock = &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		m = metrics.New(nil)
		store = session.NewCacheStore(session.Config{
			MaxSessions: 3,
			Memory:      memory.Config{MaxMessages: 5},
			Metrics:     m,
			Now:         clock.Now,
		})
	})

	AfterEach(func() {
		store.Close()
	})

	It("creates once and then returns the same session", func() {
		first, created := store.GetOrCreate("a")
		Expect(created).To(BeTrue())
		Expect(first.Memory.Config().MaxMessages).To(Equal(5))

		second, created := store.GetOrCreate("a")
		Expect(created).To(BeFalse())
		Expect(second).To(BeIdenticalTo(first))
		Expect(store.Len()).To(Equal(1))
	})

	It("evicts the least recently active session at capacity", func() {
		for _, id := range []string{"a", "b", "c"} {
			store.GetOrCreate(id)
			clock.Advance(time.Minute)
		}
		_, ok := store.Get("a")
		Expect(ok).To(BeTrue())
		clock.Advance(time.Minute)

		store.GetOrCreate("d")
		Expect(store.Len()).To(Equal(3))
		_, ok = store.Get("b")
		Expect(ok).To(BeFalse())
		Expect(testutil.ToFloat64(m.SessionEvictions.WithLabelValues(session.CauseCapacity))).To(Equal(1.0))
	})

	It("cleans up idle sessions", func() {
		store.GetOrCreate("old")
		clock.Advance(2 * time.Hour)
		store.GetOrCreate("fresh")

		Expect(store.Cleanup(time.Hour)).To(Equal(1))
		_, ok := store.Get("old")
		Expect(ok).To(BeFalse())
		_, ok = store.Get("fresh")
		Expect(ok).To(BeTrue())
	})

	It("deletes explicitly", func() {
		store.GetOrCreate("a")
		Expect(store.Delete("a")).To(BeTrue())
		Expect(store.Delete("a")).To(BeFalse())
		Expect(testutil.ToFloat64(m.ActiveSessions)).To(Equal(0.0))
	})

	It("does not bring a deleted session back on a later lookup", func() {
		store.GetOrCreate("a")
		Expect(store.Delete("a")).To(BeTrue())

		_, ok := store.Get("a")
		Expect(ok).To(BeFalse())
		Expect(store.Len()).To(BeZero())

		sess, created := store.GetOrCreate("a")
		Expect(created).To(BeTrue())
		Expect(sess.Memory.Len()).To(BeZero())
	})

	It("keeps a session deleted while other goroutines read it", func() {
		first, _ := store.GetOrCreate("a")

		var wg sync.WaitGroup
		start := make(chan struct{})
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for range 200 {
					store.Get("a")
				}
			}()
		}
		close(start)
		Expect(store.Delete("a")).To(BeTrue())
		wg.Wait()

		_, ok := store.Get("a")
		Expect(ok).To(BeFalse())
		Expect(store.Len()).To(BeZero())

		again, created := store.GetOrCreate("a")
		Expect(created).To(BeTrue())
		Expect(again).NotTo(BeIdenticalTo(first))
	})

	It("orders snapshots by recent activity", func() {
		store.GetOrCreate("a")
		clock.Advance(time.Second)
		store.GetOrCreate("b")
		snap := store.Snapshot()
		Expect(snap).To(HaveLen(2))
		Expect(snap[0].ID).To(Equal("b"))
	})

	It("creates each session once under concurrent access", func() {
		store = session.NewCacheStore(session.Config{MaxSessions: 100})
		var wg sync.WaitGroup
		var mu sync.Mutex
		created := 0
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := store.GetOrCreate(fmt.Sprintf("conv-%d", i%5))
				if ok {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		Expect(created).To(Equal(5))
	})
})

var _ = Describe("Sweeper", func() {
	It("rejects a non-positive interval", func() {
		_, err := session.NewSweeper(session.NewCacheStore(session.Config{}), 0, time.Hour, nil)
		Expect(err).To(HaveOccurred())
	})

	It("sweeps on demand", func() {
		clock := &fakeClock{now: time.Now()}
		store := session.NewCacheStore(session.Config{Now: clock.Now})
		store.GetOrCreate("a")
		clock.Advance(2 * time.Hour)

		sweeper, err := session.NewSweeper(store, time.Minute, time.Hour, nil)
		Expect(err).NotTo(HaveOccurred())
		sweeper.Start()
		sweeper.Sweep()
		sweeper.Stop(context.Background())

		Expect(store.Len()).To(Equal(0))
	})
})
