package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"github.com/katakuxiko/deenbot/internal/util"
)

const (
	// NoAnswerApology replaces answers too short to be useful.
	NoAnswerApology = "عذراً، لم أتمكن من الإجابة على سؤالك. يرجى إعادة صياغة السؤال أو طرح سؤال آخر."
	// ErrorApology replaces the answer when answering failed.
	ErrorApology = "عذراً، حدث خطأ أثناء معالجة سؤالك. يرجى المحاولة مرة أخرى بعد قليل."

	minAnswerRunes = 5
	previewRunes   = 100
)

type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// FatwaService wraps an Answerer so that callers always get a displayable
// answer back.
type FatwaService struct {
	answerer Answerer
	slots    *semaphore.Weighted
	timeout  time.Duration
	logger   *slog.Logger
}

// NewFatwaService bounds concurrent answers to maxInflight (unbounded when
// <= 0) and each call, slot wait included, to timeout (none when <= 0).
func NewFatwaService(answerer Answerer, maxInflight int64, timeout time.Duration, logger *slog.Logger) *FatwaService {
	s := &FatwaService{answerer: answerer, timeout: timeout, logger: logger}
	if maxInflight > 0 {
		s.slots = semaphore.NewWeighted(maxInflight)
	}
	return s
}

// Ask never fails: errors and near-empty answers become an apology. videoID
// is accepted for the frontend's benefit only.
func (s *FatwaService) Ask(ctx context.Context, question, videoID string) string {
	s.logger.Info("received question", "question", question)
	s.logger.Debug("ignoring video id", "video_id", videoID)

	answer, err := s.answer(ctx, question)
	if err != nil {
		s.logger.Error("answering question failed", "error", err)
		return ErrorApology
	}

	s.logger.Info("generated answer", "preview", util.TruncateRunes(answer, previewRunes))

	if utf8.RuneCountInString(strings.TrimSpace(answer)) < minAnswerRunes {
		return NoAnswerApology
	}
	return answer
}

func (s *FatwaService) answer(ctx context.Context, question string) (answer string, err error) {
	// the timeout covers the wait for a slot as well as the answer
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.slots != nil {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return "", fmt.Errorf("waiting for an answer slot: %w", err)
		}
		defer s.slots.Release(1)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("answerer panicked: %v", r)
		}
	}()

	return s.answerer.Answer(ctx, question)
}
