package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/journal"
)

// MockJournal is a test journal driver that records appends and can be made
// to fail.
type MockJournal struct {
	mu      sync.Mutex
	entries []*journal.Entry

	// FailAppend causes Append to return an error.
	FailAppend bool
}

func NewMockJournal() *MockJournal {
	return &MockJournal{}
}

func (m *MockJournal) Append(_ context.Context, e *journal.Entry) error {
	if m.FailAppend {
		return errors.New("mock journal append failure")
	}

	journal.Prepare(e, time.Now())

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MockJournal) List(_ context.Context, f journal.Filter) ([]*journal.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*journal.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if f.ChatID == "" || m.entries[i].ChatID == f.ChatID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

func (m *MockJournal) Get(_ context.Context, id string) (*journal.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, journal.NotFoundError{ID: id}
}

func (m *MockJournal) Clear(_ context.Context, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	m.entries = nil
	return n, nil
}

func (m *MockJournal) Close() error {
	return nil
}

// Entries returns a copy of everything appended so far, oldest first.
func (m *MockJournal) Entries() []*journal.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*journal.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ItBehavesLikeAJournalDriver registers the shared driver contract specs.
// newDriver is called before each spec and must return an empty driver.
func ItBehavesLikeAJournalDriver(newDriver func() journal.Driver) {
	var (
		ctx    context.Context
		driver journal.Driver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			Expect(driver.Close()).To(Succeed())
		}
	})

	entry := func(chatID, user string) *journal.Entry {
		return &journal.Entry{
			ChatID:           chatID,
			Origin:           "persisted",
			UserMessage:      user,
			AssistantContent: "re: " + user,
		}
	}

	It("fills in the ID and creation time", func() {
		e := entry("c1", "hello")
		Expect(driver.Append(ctx, e)).To(Succeed())
		Expect(e.ID).NotTo(BeEmpty())
		Expect(e.CreatedAt).NotTo(BeZero())
	})

	It("round trips every field", func() {
		e := &journal.Entry{
			ID:                "fixed-id",
			ChatID:            "c1",
			Origin:            "local",
			UserMessage:       "q",
			AssistantContent:  "a",
			AssistantThinking: "t",
			Metadata:          map[string]any{"stage": "done"},
			CreatedAt:         time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		}
		Expect(driver.Append(ctx, e)).To(Succeed())

		got, err := driver.Get(ctx, "fixed-id")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ChatID).To(Equal("c1"))
		Expect(got.Origin).To(Equal("local"))
		Expect(got.UserMessage).To(Equal("q"))
		Expect(got.AssistantContent).To(Equal("a"))
		Expect(got.AssistantThinking).To(Equal("t"))
		Expect(got.Metadata).To(Equal(map[string]any{"stage": "done"}))
		Expect(got.CreatedAt.Equal(e.CreatedAt)).To(BeTrue())
	})

	It("returns NotFoundError for unknown IDs", func() {
		_, err := driver.Get(ctx, "missing")

		var nf journal.NotFoundError
		Expect(errors.As(err, &nf)).To(BeTrue())
		Expect(nf.ID).To(Equal("missing"))
	})

	It("lists newest first with chat filter and limit", func() {
		for _, e := range []*journal.Entry{entry("c1", "one"), entry("c2", "two"), entry("c1", "three")} {
			Expect(driver.Append(ctx, e)).To(Succeed())
		}

		all, err := driver.List(ctx, journal.Filter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
		Expect(all[0].UserMessage).To(Equal("three"))
		Expect(all[2].UserMessage).To(Equal("one"))

		c1, err := driver.List(ctx, journal.Filter{ChatID: "c1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c1).To(HaveLen(2))

		limited, err := driver.List(ctx, journal.Filter{Limit: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(limited).To(HaveLen(1))
		Expect(limited[0].UserMessage).To(Equal("three"))
	})

	It("clears one chat or everything", func() {
		for _, e := range []*journal.Entry{entry("c1", "one"), entry("c2", "two"), entry("c1", "three")} {
			Expect(driver.Append(ctx, e)).To(Succeed())
		}

		n, err := driver.Clear(ctx, "c1")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		rest, err := driver.List(ctx, journal.Filter{})
		Expect(err).NotTo(HaveOccurred())
		Expect(rest).To(HaveLen(1))
		Expect(rest[0].ChatID).To(Equal("c2"))

		n, err = driver.Clear(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
	})

	It("rejects nil entries", func() {
		Expect(driver.Append(ctx, nil)).NotTo(Succeed())
	})
}
