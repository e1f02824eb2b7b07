package history_test

import (
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hybridchat/pkg/history"
	"github.com/papercomputeco/hybridchat/pkg/llm"
)

var _ = Describe("Log", func() {
	var log *history.Log

	BeforeEach(func() {
		log = history.NewLog()
	})

	Describe("NewLog", func() {
		It("starts empty", func() {
			Expect(log.Len()).To(Equal(0))
			Expect(log.Snapshot()).To(BeEmpty())
			Expect(log.Head()).To(BeNil())
		})
	})

	Describe("Append", func() {
		It("keeps insertion order, oldest first", func() {
			log.Append(llm.ConversationTurn{User: "one", AI: "1"})
			log.Append(llm.ConversationTurn{User: "two", AI: "2"})
			log.Append(llm.ConversationTurn{User: "three", AI: "3"})

			Expect(log.Snapshot()).To(Equal([]llm.ConversationTurn{
				{User: "one", AI: "1"},
				{User: "two", AI: "2"},
				{User: "three", AI: "3"},
			}))
		})

		It("chains each entry to the previous head", func() {
			first := log.Append(llm.ConversationTurn{User: "one", AI: "1"})
			second := log.Append(llm.ConversationTurn{User: "two", AI: "2"})

			Expect(first.ParentHash).To(BeNil())
			Expect(*second.ParentHash).To(Equal(first.Hash))
			Expect(log.Head()).To(Equal(second))
		})

		It("stores repeated turns as distinct entries", func() {
			log.Append(llm.ConversationTurn{User: "same", AI: "same"})
			log.Append(llm.ConversationTurn{User: "same", AI: "same"})

			Expect(log.Len()).To(Equal(2))
		})

		It("never loses or duplicates concurrent appends", func() {
			const n = 64
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = log.Snapshot()
					log.Append(llm.ConversationTurn{User: fmt.Sprintf("q%d", i), AI: fmt.Sprintf("a%d", i)})
				}(i)
			}
			wg.Wait()

			Expect(log.Len()).To(Equal(n))

			seen := make(map[string]int)
			for _, t := range log.Snapshot() {
				seen[t.User]++
			}
			Expect(seen).To(HaveLen(n))
			for user, count := range seen {
				Expect(count).To(Equal(1), user)
			}

			entries := log.Entries()
			for i := 1; i < len(entries); i++ {
				Expect(*entries[i].ParentHash).To(Equal(entries[i-1].Hash))
			}
		})
	})

	Describe("Snapshot", func() {
		It("is not affected by later appends", func() {
			log.Append(llm.ConversationTurn{User: "one", AI: "1"})
			snap := log.Snapshot()

			log.Append(llm.ConversationTurn{User: "two", AI: "2"})

			Expect(snap).To(HaveLen(1))
		})
	})

	Describe("Window", func() {
		BeforeEach(func() {
			for i := 1; i <= 5; i++ {
				log.Append(llm.ConversationTurn{User: fmt.Sprintf("q%d", i), AI: fmt.Sprintf("a%d", i)})
			}
		})

		It("returns the newest n turns, oldest first", func() {
			Expect(log.Window(2)).To(Equal([]llm.ConversationTurn{
				{User: "q4", AI: "a4"},
				{User: "q5", AI: "a5"},
			}))
		})

		It("returns everything when n is zero", func() {
			Expect(log.Window(0)).To(HaveLen(5))
		})

		It("returns everything when n exceeds the length", func() {
			Expect(log.Window(10)).To(HaveLen(5))
		})

		It("does not truncate the stored log", func() {
			log.Window(1)

			Expect(log.Len()).To(Equal(5))
		})
	})

	Describe("returned entries", func() {
		var first *history.Entry

		BeforeEach(func() {
			first = log.Append(llm.ConversationTurn{User: "one", AI: "1"})
			log.Append(llm.ConversationTurn{User: "two", AI: "2"})
		})

		It("are detached from the stored log", func() {
			first.Turn.AI = "rewritten"

			entries := log.Entries()
			entries[0].Turn.User = "rewritten"
			*entries[1].ParentHash = "bogus"

			head := log.Head()
			head.Turn.AI = "rewritten"

			got, err := log.Get(first.Hash)
			Expect(err).NotTo(HaveOccurred())
			got.Turn.User = "rewritten"

			Expect(log.Snapshot()).To(Equal([]llm.ConversationTurn{
				{User: "one", AI: "1"},
				{User: "two", AI: "2"},
			}))
			Expect(*log.Head().ParentHash).To(Equal(first.Hash))
		})
	})

	Describe("Get", func() {
		It("retrieves an entry by hash", func() {
			e := log.Append(llm.ConversationTurn{User: "q", AI: "a"})

			got, err := log.Get(e.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(e))
		})

		It("returns ErrNotFound for an unknown hash", func() {
			_, err := log.Get("nonexistent")
			Expect(err).To(HaveOccurred())

			var notFoundErr history.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
			Expect(err.Error()).To(ContainSubstring("nonexistent"))
		})
	})
})
