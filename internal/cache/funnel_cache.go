package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Funnel counter fields. Per-step counters are prefixed with the step id.
const (
	FieldStarts      = "starts"
	FieldCompletions = "completions"
	FieldRedirects   = "redirects"
	FieldEnds        = "ends"
	viewsPrefix      = "views:"
	answersPrefix    = "answers:"
)

// FunnelCache counts how respondents move through a quiz
type FunnelCache interface {
	Incr(ctx context.Context, quizID, field string) error
	RecordView(ctx context.Context, quizID, stepID string) error
	RecordAnswer(ctx context.Context, quizID, stepID string) error
	GetFunnel(ctx context.Context, quizID string) (*Funnel, error)
	Reset(ctx context.Context, quizID string) error
}

// Funnel is the counter snapshot for one quiz
type Funnel struct {
	QuizID      string           `json:"quizId"`
	Starts      int64            `json:"starts"`
	Completions int64            `json:"completions"`
	Redirects   int64            `json:"redirects"`
	Ends        int64            `json:"ends"`
	Views       map[string]int64 `json:"views"`
	Answers     map[string]int64 `json:"answers"`
}

type funnelCache struct {
	client *redis.Client
}

// NewFunnelCache creates a new funnel counter cache
func NewFunnelCache(client *redis.Client) FunnelCache {
	return &funnelCache{
		client: client,
	}
}

func (c *funnelCache) key(quizID string) string {
	return fmt.Sprintf("quiz:%s:funnel", quizID)
}

func (c *funnelCache) Incr(ctx context.Context, quizID, field string) error {
	return c.client.HIncrBy(ctx, c.key(quizID), field, 1).Err()
}

func (c *funnelCache) RecordView(ctx context.Context, quizID, stepID string) error {
	return c.Incr(ctx, quizID, viewsPrefix+stepID)
}

func (c *funnelCache) RecordAnswer(ctx context.Context, quizID, stepID string) error {
	return c.Incr(ctx, quizID, answersPrefix+stepID)
}

func (c *funnelCache) GetFunnel(ctx context.Context, quizID string) (*Funnel, error) {
	raw, err := c.client.HGetAll(ctx, c.key(quizID)).Result()
	if err != nil {
		return nil, err
	}

	funnel := &Funnel{
		QuizID:  quizID,
		Views:   make(map[string]int64),
		Answers: make(map[string]int64),
	}
	for field, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		switch {
		case field == FieldStarts:
			funnel.Starts = n
		case field == FieldCompletions:
			funnel.Completions = n
		case field == FieldRedirects:
			funnel.Redirects = n
		case field == FieldEnds:
			funnel.Ends = n
		case strings.HasPrefix(field, viewsPrefix):
			funnel.Views[strings.TrimPrefix(field, viewsPrefix)] = n
		case strings.HasPrefix(field, answersPrefix):
			funnel.Answers[strings.TrimPrefix(field, answersPrefix)] = n
		}
	}
	return funnel, nil
}

func (c *funnelCache) Reset(ctx context.Context, quizID string) error {
	return c.client.Del(ctx, c.key(quizID)).Err()
}
