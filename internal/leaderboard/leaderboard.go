// Package leaderboard keeps per-group point totals and a short activity feed
// in Redis.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/illegalcall/mentor-tracker/internal/models"
)

const (
	totalsKey      = "leaderboard:groups"
	activityLength = 50
	seenTTLSeconds = 7 * 24 * 60 * 60
)

func activityKey(mentor string) string { return "activity:" + mentor }
func seenKey(eventID string) string { return "leaderboard:seen:" + eventID }

// record applies an award once per event id.
var record = redis.NewScript(`
if redis.call('SET', KEYS[1], '1', 'NX', 'EX', ARGV[4]) then
	redis.call('ZINCRBY', KEYS[2], ARGV[1], ARGV[2])
	redis.call('LPUSH', KEYS[3], ARGV[3])
	redis.call('LTRIM', KEYS[3], 0, ARGV[5])
	return 1
end
return 0
`)

type Board struct {
	redis *redis.Client
}

func New(rdb *redis.Client) *Board {
	return &Board{redis: rdb}
}

// Record adds a group award to the totals and the group's feed. It reports
// false when eventID was already recorded.
func (b *Board) Record(ctx context.Context, eventID string, event models.Event) (bool, error) {
	if event.Type != models.EventGroupPointsAdded || event.MentorName == "" {
		return false, fmt.Errorf("not a group award: %q", event.Type)
	}

	entry, err := json.Marshal(models.Activity{
		PointsAdded:  event.PointsAdded,
		UpdatedCount: event.UpdatedCount,
		OccurredAt:   event.OccurredAt,
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode activity: %w", err)
	}

	total := event.PointsAdded * event.UpdatedCount
	keys := []string{seenKey(eventID), totalsKey, activityKey(event.MentorName)}
	applied, err := record.Run(ctx, b.redis, keys, total, event.MentorName, entry, seenTTLSeconds, activityLength-1).Int()
	if err != nil {
		return false, fmt.Errorf("failed to record award for %s: %w", event.MentorName, err)
	}
	return applied == 1, nil
}

// Top returns the groups with the most awarded points, highest first.
func (b *Board) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	scores, err := b.redis.ZRevRangeWithScores(ctx, totalsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	out := make([]models.LeaderboardEntry, 0, len(scores))
	for _, z := range scores {
		name, _ := z.Member.(string)
		out = append(out, models.LeaderboardEntry{MentorName: name, Points: int64(z.Score)})
	}
	return out, nil
}

// Activity returns the most recent awards of a group, newest first.
func (b *Board) Activity(ctx context.Context, mentorName string, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > activityLength {
		limit = activityLength
	}

	raw, err := b.redis.LRange(ctx, activityKey(mentorName), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity for %s: %w", mentorName, err)
	}

	out := make([]models.Activity, 0, len(raw))
	for _, r := range raw {
		var a models.Activity
		if err := json.Unmarshal([]byte(r), &a); err != nil {
			return nil, fmt.Errorf("failed to decode activity: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}
