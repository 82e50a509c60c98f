package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/respond"
	"github.com/papercomputeco/companion/pkg/session"
	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/storage/inmemory"
	"github.com/papercomputeco/companion/pkg/worker"
)

// testEnv is a server over an in-memory driver and a private session store.
type testEnv struct {
	server *Server
	svc    *companion.Service
	driver *inmemory.Driver
	pool   *worker.Pool
}

func newTestEnv(config Config, mem memory.Config) *testEnv {
	log := logger.Nop()
	driver := inmemory.NewDriver(storage.DefaultPolicy())
	store := session.NewCacheStore(session.Config{Memory: mem, Logger: log})
	svc := companion.New(companion.Config{
		Store:    store,
		Selector: respond.NewRandSelector(11),
		Logger:   log,
	})
	wc := &worker.Config{Driver: driver, NumWorkers: 1, Logger: log}
	if config.Events != nil {
		wc.Publisher = config.Events
	}
	pool, err := worker.NewPool(wc)
	Expect(err).NotTo(HaveOccurred())

	if config.ListenAddr == "" {
		config.ListenAddr = ":0"
	}
	server, err := NewServer(config, svc, driver, pool, log)
	Expect(err).NotTo(HaveOccurred())

	DeferCleanup(func() {
		pool.Close()
		store.Close()
	})
	return &testEnv{server: server, svc: svc, driver: driver, pool: pool}
}

// call performs a request and decodes a JSON body into out when non-nil.
func (e *testEnv) call(method, path string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.server.app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	if out != nil {
		Expect(json.Unmarshal(raw, out)).To(Succeed(), string(raw))
	}
	return resp.StatusCode
}

func (e *testEnv) chat(req ChatRequest) ChatResponse {
	var res ChatResponse
	status := e.call(http.MethodPost, "/v1/chat", req, &res)
	ExpectWithOffset(1, status).To(Equal(http.StatusOK))
	return res
}

// messageCount waits on the async worker by polling storage.
func (e *testEnv) messageCount(conversationID string) func() int {
	return func() int {
		counts, err := e.driver.CountMessages(context.Background(), conversationID)
		if err != nil {
			return -1
		}
		return counts.Total
	}
}

var _ = Describe("NewServer", func() {
	It("requires its dependencies", func() {
		_, err := NewServer(Config{}, nil, nil, nil, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("companion service is required")))
	})
})

func stringReader(s string) io.Reader {
	return bytes.NewReader([]byte(s))
}
