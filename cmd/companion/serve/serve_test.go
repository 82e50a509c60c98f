package servecmder

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/config"
	"github.com/papercomputeco/companion/pkg/eventstream/nop"
	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/storage/inmemory"
	"github.com/papercomputeco/companion/pkg/storage/sqlite"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the serve flags", func() {
		cmd := NewServeCmd()
		for _, name := range []string{"listen", "storage", "sqlite", "postgres", "eventstream", "kafka-brokers", "redis-url", "workers", "seed"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})
})

var _ = Describe("ServeCommander", func() {
	var (
		cmder *ServeCommander
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		cmder = &ServeCommander{config: config.NewDefaultConfig(), logger: logger.Nop()}
	})

	Describe("createStorer", func() {
		It("builds an in-memory driver", func() {
			cmder.config.Storage.Driver = "inmemory"
			storer, err := cmder.createStorer(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(storer).To(BeAssignableToTypeOf(&inmemory.Driver{}))
			Expect(storer.Close()).To(Succeed())
		})

		It("builds a migrated SQLite driver", func() {
			cmder.config.Storage.Driver = "sqlite"
			cmder.config.Storage.SQLitePath = filepath.Join(GinkgoT().TempDir(), "companion.db")
			storer, err := cmder.createStorer(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(storer).To(BeAssignableToTypeOf(&sqlite.Driver{}))
			DeferCleanup(storer.Close)

			_, created, err := storer.EnsureUser(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())
		})

		It("rejects unknown drivers", func() {
			cmder.config.Storage.Driver = "mongodb"
			_, err := cmder.createStorer(ctx)
			Expect(err).To(MatchError(ContainSubstring("unknown storage driver")))
		})
	})

	Describe("createPublisher", func() {
		It("defaults to the no-op publisher", func() {
			p, err := cmder.createPublisher(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeAssignableToTypeOf(&nop.Publisher{}))
		})

		It("requires kafka brokers", func() {
			cmder.config.EventStream.Driver = "kafka"
			cmder.config.EventStream.KafkaBrokers = ""
			_, err := cmder.createPublisher(ctx)
			Expect(err).To(HaveOccurred())
		})

		It("rejects unknown drivers", func() {
			cmder.config.EventStream.Driver = "nats"
			_, err := cmder.createPublisher(ctx)
			Expect(err).To(MatchError(ContainSubstring("unknown event stream driver")))
		})
	})
})
