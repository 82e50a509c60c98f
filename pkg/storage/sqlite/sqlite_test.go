package sqlite_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/storage/sqldriver"
	"github.com/papercomputeco/companion/pkg/storage/sqlite"
	"github.com/papercomputeco/companion/pkg/storage/storagetest"
)

var _ = Describe("Driver", func() {
	storagetest.DriverSpecs(newMemoryDriver)

	Describe("NewDriver", func() {
		It("creates a driver with file database", func() {
			dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")

			s, err := sqlite.NewDriver(context.Background(), dbPath, sqldriver.Options{})
			Expect(err).NotTo(HaveOccurred())
			defer s.Close()

			// Verify file was created
			_, err = os.Stat(dbPath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("reopens a migrated database", func() {
			ctx := context.Background()
			dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")

			first, err := sqlite.NewDriver(ctx, dbPath, sqldriver.Options{})
			Expect(err).NotTo(HaveOccurred())
			_, _, err = first.EnsureUser(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Close()).To(Succeed())

			second, err := sqlite.NewDriver(ctx, dbPath, sqldriver.Options{})
			Expect(err).NotTo(HaveOccurred())
			defer second.Close()
			_, err = second.GetUser(ctx, "1")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

func newMemoryDriver() storage.Driver {
	d, err := sqlite.NewDriver(context.Background(), ":memory:", sqldriver.Options{})
	Expect(err).NotTo(HaveOccurred())
	return d
}
