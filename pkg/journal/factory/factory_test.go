package factory_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/journal/bolt"
	"github.com/papercomputeco/playground/pkg/journal/factory"
	"github.com/papercomputeco/playground/pkg/journal/inmemory"
	"github.com/papercomputeco/playground/pkg/journal/sqlite"
)

var _ = Describe("New", func() {
	ctx := context.Background()

	It("defaults to the in-memory driver", func() {
		d, err := factory.New(ctx, factory.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(d).To(BeAssignableToTypeOf(&inmemory.Driver{}))
	})

	It("opens sqlite at the configured path", func() {
		dir, err := os.MkdirTemp("", "journal-factory-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		d, err := factory.New(ctx, factory.Config{Provider: "SQLite", SQLitePath: filepath.Join(dir, "j.sqlite")})
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()
		Expect(d).To(BeAssignableToTypeOf(&sqlite.Driver{}))
	})

	It("opens bolt at the configured path", func() {
		d, err := factory.New(ctx, factory.Config{Provider: "bolt", BoltPath: filepath.Join(GinkgoT().TempDir(), "j.db")})
		Expect(err).NotTo(HaveOccurred())
		defer d.Close()
		Expect(d).To(BeAssignableToTypeOf(&bolt.Driver{}))
	})

	It("requires a path for sqlite and a DSN for postgres", func() {
		_, err := factory.New(ctx, factory.Config{Provider: "sqlite"})
		Expect(err).To(MatchError(ContainSubstring("journal.sqlite_path")))

		_, err = factory.New(ctx, factory.Config{Provider: "bolt"})
		Expect(err).To(MatchError(ContainSubstring("journal.bolt_path")))

		_, err = factory.New(ctx, factory.Config{Provider: "postgres"})
		Expect(err).To(MatchError(ContainSubstring("journal.postgres_dsn")))
	})

	It("rejects unknown providers", func() {
		_, err := factory.New(ctx, factory.Config{Provider: "redis"})
		Expect(err).To(MatchError(ContainSubstring("unknown journal provider")))
	})
})
