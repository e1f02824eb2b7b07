package chatbot_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/hybridchat/pkg/chatbot"
	"github.com/papercomputeco/hybridchat/pkg/history"
	"github.com/papercomputeco/hybridchat/pkg/llm"
)

type fakeSearcher struct {
	digest string
	err    error

	mu      sync.Mutex
	queries []string
}

func (f *fakeSearcher) Digest(_ context.Context, query string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.digest, f.err
}

type fakeCompleter struct {
	text string
	err  error

	mu      sync.Mutex
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

var _ = Describe("Bot", func() {
	var (
		ctx       context.Context
		searcher  *fakeSearcher
		completer *fakeCompleter
		log       *history.Log
		bot       *chatbot.Bot
	)

	BeforeEach(func() {
		ctx = context.Background()
		searcher = &fakeSearcher{digest: "Paris is the capital of France."}
		completer = &fakeCompleter{text: "  The capital of France is Paris.\n"}
		log = history.NewLog()
		bot = chatbot.New(searcher, completer, log, chatbot.Options{}, zap.NewNop())
	})

	Describe("Chat", func() {
		It("searches with the user message", func() {
			_, err := bot.Chat(ctx, "What is the capital of France?")
			Expect(err).NotTo(HaveOccurred())

			Expect(searcher.queries).To(Equal([]string{"What is the capital of France?"}))
		})

		It("sends the assembled prompt to the completer", func() {
			_, err := bot.Chat(ctx, "What is the capital of France?")
			Expect(err).NotTo(HaveOccurred())

			Expect(completer.prompts).To(Equal([]string{"You are a helpful assistant.\n" +
				"User: What is the capital of France?\n" +
				"Relevant info:\n" +
				"Paris is the capital of France.\n" +
				"AI:"}))
		})

		It("returns the trimmed completion", func() {
			answer, err := bot.Chat(ctx, "q")
			Expect(err).NotTo(HaveOccurred())

			Expect(answer).To(Equal("The capital of France is Paris."))
		})

		It("appends the turn to history", func() {
			_, err := bot.Chat(ctx, "q")
			Expect(err).NotTo(HaveOccurred())

			Expect(log.Snapshot()).To(Equal([]llm.ConversationTurn{
				{User: "q", AI: "The capital of France is Paris."},
			}))
		})

		It("includes earlier turns in later prompts", func() {
			_, err := bot.Chat(ctx, "first")
			Expect(err).NotTo(HaveOccurred())
			_, err = bot.Chat(ctx, "second")
			Expect(err).NotTo(HaveOccurred())

			Expect(completer.prompts[1]).To(ContainSubstring(
				"User: first\nAI: The capital of France is Paris.\nUser: second\n"))
		})

		It("grows history by one per successful call", func() {
			for i := 0; i < 5; i++ {
				_, err := bot.Chat(ctx, "q")
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(log.Len()).To(Equal(5))
		})

		Context("when the search fails", func() {
			BeforeEach(func() {
				searcher.err = errors.New("network down")
			})

			It("returns the error without calling the completer", func() {
				_, err := bot.Chat(ctx, "q")

				Expect(err).To(MatchError(ContainSubstring("search: network down")))
				Expect(completer.prompts).To(BeEmpty())
			})

			It("leaves history unchanged", func() {
				_, _ = bot.Chat(ctx, "q")

				Expect(log.Len()).To(Equal(0))
			})
		})

		Context("when the completion fails", func() {
			BeforeEach(func() {
				completer.err = errors.New("bad gateway")
			})

			It("returns the wrapped error", func() {
				_, err := bot.Chat(ctx, "q")

				Expect(errors.Is(err, completer.err)).To(BeTrue())
				Expect(err.Error()).To(HavePrefix("completion:"))
			})

			It("leaves history unchanged", func() {
				_, _ = bot.Chat(ctx, "q")

				Expect(log.Len()).To(Equal(0))
			})
		})

		Context("with a history window", func() {
			BeforeEach(func() {
				bot = chatbot.New(searcher, completer, log, chatbot.Options{HistoryWindow: 1}, zap.NewNop())
				log.Append(llm.ConversationTurn{User: "old", AI: "old answer"})
				log.Append(llm.ConversationTurn{User: "recent", AI: "recent answer"})
			})

			It("only puts the newest turns in the prompt", func() {
				_, err := bot.Chat(ctx, "now")
				Expect(err).NotTo(HaveOccurred())

				Expect(completer.prompts[0]).NotTo(ContainSubstring("User: old"))
				Expect(completer.prompts[0]).To(ContainSubstring("User: recent\nAI: recent answer\n"))
			})

			It("still stores every turn", func() {
				_, err := bot.Chat(ctx, "now")
				Expect(err).NotTo(HaveOccurred())

				Expect(log.Len()).To(Equal(3))
			})
		})

		It("records both of two concurrent requests exactly once", func() {
			var wg sync.WaitGroup
			for _, msg := range []string{"A", "B"} {
				wg.Add(1)
				go func(msg string) {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := bot.Chat(ctx, msg)
					Expect(err).NotTo(HaveOccurred())
				}(msg)
			}
			wg.Wait()

			users := []string{}
			for _, t := range log.Snapshot() {
				users = append(users, t.User)
			}
			Expect(users).To(ConsistOf("A", "B"))
		})
	})

	Describe("History", func() {
		It("exposes the injected log", func() {
			Expect(bot.History()).To(BeIdenticalTo(log))
		})
	})
})
