package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ScoreBoard handles Redis ZSET operations for per-quiz session scores
type ScoreBoard interface {
	Record(ctx context.Context, quizID, sessionID string, score int) error
	Top(ctx context.Context, quizID string, limit int) ([]ScoreEntry, error)
	Rank(ctx context.Context, quizID, sessionID string) (int64, error)
	Remove(ctx context.Context, quizID string) error
}

// ScoreEntry represents a single score board entry
type ScoreEntry struct {
	SessionID string `json:"sessionId"`
	Score     int    `json:"score"`
	Rank      int    `json:"rank"`
}

type scoreBoard struct {
	client *redis.Client
}

// NewScoreBoard creates a new score board
func NewScoreBoard(client *redis.Client) ScoreBoard {
	return &scoreBoard{
		client: client,
	}
}

func (c *scoreBoard) key(quizID string) string {
	return fmt.Sprintf("quiz:%s:scores", quizID)
}

func (c *scoreBoard) Record(ctx context.Context, quizID, sessionID string, score int) error {
	return c.client.ZAdd(ctx, c.key(quizID), redis.Z{
		Score:  float64(score),
		Member: sessionID,
	}).Err()
}

func (c *scoreBoard) Top(ctx context.Context, quizID string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		return []ScoreEntry{}, nil
	}
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(quizID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]ScoreEntry, len(results))
	for i, z := range results {
		member, _ := z.Member.(string)
		entries[i] = ScoreEntry{
			SessionID: member,
			Score:     int(z.Score),
			Rank:      i + 1,
		}
	}
	return entries, nil
}

// Rank is 1-indexed; -1 means the session has no score yet
func (c *scoreBoard) Rank(ctx context.Context, quizID, sessionID string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(quizID), sessionID).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err
}

func (c *scoreBoard) Remove(ctx context.Context, quizID string) error {
	return c.client.Del(ctx, c.key(quizID)).Err()
}
