package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/katakuxiko/deenbot/internal/logger"
)

var _ = Describe("FatwaService", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	newService := func(a Answerer) *FatwaService {
		return NewFatwaService(a, 10, time.Second, logger.Nop())
	}

	It("returns a well-formed answer unmodified", func() {
		answer := "  الصيام واجب على كل مسلم بالغ عاقل.\n"
		s := newService(staticAnswer(answer, nil))
		Expect(s.Ask(ctx, "ما حكم الصيام؟", "")).To(Equal(answer))
	})

	It("accepts an answer of exactly five characters", func() {
		s := newService(staticAnswer("yes!!", nil))
		Expect(s.Ask(ctx, "q", "")).To(Equal("yes!!"))
	})

	DescribeTable("substitutes the no-answer apology for near-empty answers",
		func(answer string) {
			s := newService(staticAnswer(answer, nil))
			Expect(s.Ask(ctx, "q", "")).To(Equal(NoAnswerApology))
		},
		Entry("empty", ""),
		Entry("whitespace", " \n\t "),
		Entry("four characters", "abcd"),
		Entry("four characters padded", "   abcd   "),
		Entry("four arabic letters", "نعمم"),
	)

	It("substitutes the error apology when the answerer fails", func() {
		s := newService(staticAnswer("partial answer", errors.New("rag exploded")))
		Expect(s.Ask(ctx, "q", "")).To(Equal(ErrorApology))
	})

	It("substitutes the error apology when the answerer panics", func() {
		s := newService(answererFunc(func(context.Context, string) (string, error) {
			panic("nil map")
		}))
		Expect(s.Ask(ctx, "q", "")).To(Equal(ErrorApology))
	})

	It("passes only the question to the answerer", func() {
		var seen []string
		s := newService(answererFunc(func(_ context.Context, q string) (string, error) {
			seen = append(seen, q)
			return "answer for " + q, nil
		}))

		a1 := s.Ask(ctx, "same question", "video-1")
		a2 := s.Ask(ctx, "same question", "video-2")
		a3 := s.Ask(ctx, "same question", "")

		Expect(a1).To(Equal(a2))
		Expect(a2).To(Equal(a3))
		Expect(seen).To(Equal([]string{"same question", "same question", "same question"}))
	})

	It("gives up after the timeout", func() {
		s := NewFatwaService(answererFunc(func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}), 1, 20*time.Millisecond, logger.Nop())

		Expect(s.Ask(ctx, "slow", "")).To(Equal(ErrorApology))
	})

	It("bounds concurrent answers", func() {
		var inflight, peak int32
		release := make(chan struct{})
		s := NewFatwaService(answererFunc(func(context.Context, string) (string, error) {
			n := atomic.AddInt32(&inflight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&inflight, -1)
			return "a long enough answer", nil
		}), 2, 0, logger.Nop())

		done := make(chan string, 5)
		for i := 0; i < 5; i++ {
			go func() { done <- s.Ask(ctx, "q", "") }()
		}

		Eventually(func() int32 { return atomic.LoadInt32(&inflight) }).Should(Equal(int32(2)))
		Consistently(func() int32 { return atomic.LoadInt32(&inflight) }, 50*time.Millisecond).Should(BeNumerically("<=", 2))
		close(release)

		for i := 0; i < 5; i++ {
			Eventually(done).Should(Receive(Equal("a long enough answer")))
		}
		Expect(atomic.LoadInt32(&peak)).To(Equal(int32(2)))
	})

	It("gives up waiting for a slot after the timeout", func() {
		started := make(chan struct{}, 1)
		block := make(chan struct{})
		defer close(block)
		s := NewFatwaService(answererFunc(func(context.Context, string) (string, error) {
			started <- struct{}{}
			<-block
			return "never mind", nil
		}), 1, 30*time.Millisecond, logger.Nop())

		go s.Ask(context.Background(), "first", "")
		Eventually(started).Should(Receive())

		// a caller context that never ends, like fasthttp's request context
		done := make(chan string, 1)
		go func() { done <- s.Ask(context.Background(), "second", "") }()
		Eventually(done, time.Second).Should(Receive(Equal(ErrorApology)))
	})

	It("returns the error apology when the caller gives up waiting for a slot", func() {
		started := make(chan struct{}, 1)
		block := make(chan struct{})
		defer close(block)
		s := NewFatwaService(answererFunc(func(context.Context, string) (string, error) {
			started <- struct{}{}
			<-block
			return "never mind", nil
		}), 1, 0, logger.Nop())

		go s.Ask(ctx, "first", "")
		Eventually(started).Should(Receive())

		waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		Expect(s.Ask(waitCtx, "second", "")).To(Equal(ErrorApology))
	})
})
