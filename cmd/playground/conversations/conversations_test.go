package conversationscmder_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	conversationscmder "github.com/papercomputeco/playground/cmd/playground/conversations"
	"github.com/papercomputeco/playground/pkg/chatbot"
	"github.com/papercomputeco/playground/pkg/devserver"
	"github.com/papercomputeco/playground/pkg/dotdir"
)

var _ = Describe("NewConversationsCmd", func() {
	It("has every subcommand", func() {
		cmd := conversationscmder.NewConversationsCmd()
		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ConsistOf("list", "new", "show", "rename", "delete"))
	})

	It("registers client flags on subcommands", func() {
		cmd := conversationscmder.NewConversationsCmd()
		list, _, err := cmd.Find([]string{"list"})
		Expect(err).NotTo(HaveOccurred())

		flag := list.Flags().Lookup("api-target")
		Expect(flag).NotTo(BeNil())
		Expect(flag.DefValue).To(Equal("http://localhost:8000"))
	})
})

var _ = Describe("Conversations command execution", func() {
	var (
		ctx    context.Context
		tmpDir string
		server *httptest.Server
		client *chatbot.Client
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		tmpDir, err = os.MkdirTemp("", "playground-conversations-test-*")
		Expect(err).NotTo(HaveOccurred())

		server = httptest.NewServer(devserver.NewServer(devserver.Config{}).Handler())
		client, err = chatbot.NewClient(chatbot.Config{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) error {
		cmd := conversationscmder.NewConversationsCmd()
		cmd.PersistentFlags().String("config-dir", "", "")
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append(args, "--config-dir", tmpDir, "--api-target", server.URL))
		return cmd.Execute()
	}

	It("says so when there are no conversations", func() {
		Expect(run("list")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No conversations yet"))
	})

	It("creates a conversation and makes it active", func() {
		Expect(run("new", "Numbers")).To(Succeed())

		convs, err := client.ListConversations(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(convs).To(HaveLen(1))
		Expect(convs[0].Title).To(Equal("Numbers"))

		active, err := dotdir.NewManager().LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(active).NotTo(BeNil())
		Expect(active.ID).To(Equal(convs[0].ID))
		Expect(active.UserID).To(Equal("0"))
	})

	It("defaults the title", func() {
		Expect(run("new")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(chatbot.DefaultTitle))
	})

	It("lists conversations", func() {
		conv, err := client.CreateConversation(ctx, "Listed")
		Expect(err).NotTo(HaveOccurred())

		Expect(run("list")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(conv.ID))
		Expect(out.String()).To(ContainSubstring("Listed"))
		Expect(out.String()).To(ContainSubstring("(1)"))
	})

	It("shows a transcript", func() {
		conv, err := client.CreateConversation(ctx, "Shown")
		Expect(err).NotTo(HaveOccurred())
		Expect(client.SaveMessages(ctx, conv.ID,
			chatbot.NewSaveMessagesRequest("what is up", "the sky", "looking up", map[string]any{"stage": "done"}),
		)).To(Succeed())

		Expect(run("show", conv.ID)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("what is up"))
		Expect(out.String()).To(ContainSubstring("the sky"))
		Expect(out.String()).To(ContainSubstring("Thought for"))
		Expect(out.String()).To(ContainSubstring("Stage: done"))
	})

	It("reports unknown conversations", func() {
		err := run("show", "missing")
		Expect(err).To(MatchError(ContainSubstring("not found")))
	})

	It("renames a conversation", func() {
		conv, err := client.CreateConversation(ctx, "Before")
		Expect(err).NotTo(HaveOccurred())

		Expect(run("rename", conv.ID, "After")).To(Succeed())

		detail, err := client.GetConversation(ctx, conv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(detail.Title).To(Equal("After"))
	})

	It("refuses an empty title", func() {
		Expect(run("rename", "any", "   ")).NotTo(Succeed())
	})

	It("deletes a conversation and forgets it as active", func() {
		Expect(run("new", "Doomed")).To(Succeed())
		active, err := dotdir.NewManager().LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(run("delete", active.ID)).To(Succeed())

		convs, err := client.ListConversations(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(convs).To(BeEmpty())

		active, err = dotdir.NewManager().LoadActive(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(active).To(BeNil())
	})

	It("fails to delete unknown conversations", func() {
		Expect(run("delete", "missing")).NotTo(Succeed())
	})
})
