package chat_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playground/pkg/chat"
)

var _ = Describe("Store", func() {
	var (
		now   time.Time
		store *chat.Store
	)

	BeforeEach(func() {
		now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		store = chat.NewStore(chat.WithClock(func() time.Time { return now }))
	})

	It("hands out snapshots that later dispatches do not change", func() {
		u, a := chat.NewPair("hi", now)
		store.Dispatch(chat.AppendPair{User: u, Assistant: a})

		snap := store.Snapshot()
		store.Dispatch(chat.AppendContent{Text: "hello"})

		Expect(snap[1].Content).To(BeEmpty())
		Expect(store.Snapshot()[1].Content).To(Equal("hello"))
	})

	It("stamps durations with its clock", func() {
		u, a := chat.NewPair("hi", now)
		store.Dispatch(chat.AppendPair{User: u, Assistant: a})

		now = now.Add(2 * time.Second)
		store.Dispatch(chat.AppendContent{Text: "x"})

		last, ok := store.Last()
		Expect(ok).To(BeTrue())
		Expect(last.ThinkingDuration).To(Equal(2 * time.Second))
	})

	It("counts dispatches", func() {
		Expect(store.Version()).To(BeZero())
		store.Dispatch(chat.Load{})
		store.Dispatch(chat.Load{})
		Expect(store.Version()).To(Equal(uint64(2)))
	})

	It("can be seeded with messages", func() {
		seeded := chat.NewStore(chat.WithMessages([]chat.Message{{ID: "0", Role: chat.RoleUser, Content: "x"}}))
		Expect(seeded.Len()).To(Equal(1))
	})

	Describe("Subscribe", func() {
		It("signals after a dispatch", func() {
			ch, cancel := store.Subscribe()
			defer cancel()

			store.Dispatch(chat.Load{})
			Eventually(ch).Should(Receive())
		})

		It("coalesces signals for slow readers", func() {
			ch, cancel := store.Subscribe()
			defer cancel()

			for range 10 {
				store.Dispatch(chat.Load{})
			}

			Expect(ch).To(Receive())
			Consistently(ch, 50*time.Millisecond).ShouldNot(Receive())
		})

		It("closes the channel on cancel", func() {
			ch, cancel := store.Subscribe()
			cancel()
			cancel()

			Eventually(ch).Should(BeClosed())
		})
	})

	It("is safe for concurrent readers during dispatch", func() {
		u, a := chat.NewPair("hi", now)
		store.Dispatch(chat.AppendPair{User: u, Assistant: a})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				store.Dispatch(chat.AppendContent{Text: "a"})
			}
		}()

		for range 200 {
			snap := store.Snapshot()
			Expect(snap).To(HaveLen(2))
		}
		wg.Wait()

		last, _ := store.Last()
		Expect(last.Content).To(HaveLen(200))
	})
})
