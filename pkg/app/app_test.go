package app_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/playground/pkg/app"
	"github.com/papercomputeco/playground/pkg/assembler"
	"github.com/papercomputeco/playground/pkg/config"
	"github.com/papercomputeco/playground/pkg/devserver"
	"github.com/papercomputeco/playground/pkg/journal"
	"github.com/papercomputeco/playground/pkg/journal/factory"
)

var _ = Describe("SettingsFromViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "app-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("resolves defaults", func() {
		v, err := config.NewViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		s, err := app.SettingsFromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.APITarget).To(Equal("http://localhost:8000"))
		Expect(s.UserID).To(Equal("0"))
		Expect(s.Timeout).To(Equal(30 * time.Second))
		Expect(s.Policy).To(Equal(assembler.SkipMalformed))
		Expect(s.PersistWorkers).To(Equal(uint(3)))
		Expect(s.QueueSize).To(Equal(uint(256)))
		Expect(s.Journal.Provider).To(Equal("memory"))
	})

	It("reads the config file", func() {
		data := `[chat]
malformed_policy = "abort"
markdown = true

[journal]
provider = "sqlite"
sqlite_path = "/tmp/j.db"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.NewViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		s, err := app.SettingsFromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Policy).To(Equal(assembler.AbortOnMalformed))
		Expect(s.Markdown).To(BeTrue())
		Expect(s.Journal.SQLitePath).To(Equal("/tmp/j.db"))
	})

	It("rejects a bad timeout", func() {
		v, err := config.NewViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		v.Set("client.timeout", "eventually")

		_, err = app.SettingsFromViper(v)
		Expect(err).To(MatchError(ContainSubstring("client.timeout")))
	})
})

var _ = Describe("App", func() {
	var (
		ctx    context.Context
		server *httptest.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(devserver.NewServer(devserver.Config{}).Handler())
	})

	AfterEach(func() {
		server.Close()
	})

	It("rejects an unusable API target", func() {
		_, err := app.Open(ctx, app.Settings{APITarget: "not a url"}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown journal provider", func() {
		_, err := app.Open(ctx, app.Settings{
			APITarget: server.URL,
			Journal:   factory.Config{Provider: "cassette"},
		}, nil)
		Expect(err).To(MatchError(ContainSubstring("opening journal")))
	})

	It("runs a chat end to end and journals the exchange", func() {
		a, err := app.Open(ctx, app.Settings{APITarget: server.URL}, nil)
		Expect(err).NotTo(HaveOccurred())

		ws := a.Workspace(a.SessionOptions(nil))
		out, err := ws.StartChat(ctx, "hello there")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Err).NotTo(HaveOccurred())
		Expect(out.Result.Content).To(Equal(devserver.Reply("hello there")))

		chatID := ws.Active().Chat().ID
		Eventually(func() []*journal.Entry {
			entries, _ := a.Journal.List(ctx, journal.Filter{ChatID: chatID})
			return entries
		}).Should(HaveLen(1))

		Eventually(func() string {
			detail, err := a.Client.GetConversation(ctx, chatID)
			if err != nil {
				return ""
			}
			return detail.Title
		}).Should(Equal("hello there"))

		Expect(a.Close()).To(Succeed())
	})
})

var _ = Describe("LoadViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "app-load-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("lets explicitly set flags win over the config file", func() {
		data := `[client]
user_id = "from-file"
api_target = "http://file:1"
`
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().String("config-dir", "", "")
		var target, user, timeout string
		config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &target)
		config.AddStringFlag(cmd, config.ClientFlags, config.FlagUserID, &user)
		config.AddStringFlag(cmd, config.ClientFlags, config.FlagTimeout, &timeout)
		Expect(cmd.Flags().Set("config-dir", tmpDir)).To(Succeed())
		Expect(cmd.Flags().Set("user", "from-flag")).To(Succeed())

		s, err := app.Load(cmd, config.ClientFlags)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.UserID).To(Equal("from-flag"))
		Expect(s.APITarget).To(Equal("http://file:1"))
	})
})

var _ = Describe("OpenLogFile", func() {
	It("creates the log in the dot dir", func() {
		tmpDir, err := os.MkdirTemp("", "app-log-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tmpDir)

		f, err := app.OpenLogFile(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		_, err = f.WriteString("line\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, app.LogFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("line\n"))
	})
})
