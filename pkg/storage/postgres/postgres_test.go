package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"

	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/storage/postgres"
	"github.com/papercomputeco/companion/pkg/storage/sqldriver"
	"github.com/papercomputeco/companion/pkg/storage/storagetest"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("COMPANION_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("COMPANION_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	storagetest.DriverSpecs(func() storage.Driver {
		ctx := context.Background()
		d, err := postgres.NewDriver(ctx, connStr(), sqldriver.Options{})
		if err != nil {
			Fail(err.Error())
		}
		_, err = d.DB.ExecContext(ctx, `TRUNCATE users, conversations, messages, user_facts,
			conversation_themes, response_feedback, conversation_summaries CASCADE`)
		if err != nil {
			Fail(err.Error())
		}
		return d
	})
})
