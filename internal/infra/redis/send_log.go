package redis

import (
	"context"
	"math"
	"strconv"
	"time"

	"telegram-automation/internal/domain/ports/repository"
)

var _ repository.SendLog = (*SendLog)(nil)

// SendLog keeps each account's send instants in a sorted set scored by unix
// microseconds (exact in a float64), trimmed to the retention window on every
// write. Members carry the nanosecond value.
type SendLog struct {
	client    RedisClient
	retention time.Duration
}

func NewSendLog(client RedisClient, retention time.Duration) *SendLog {
	if retention <= 0 {
		retention = 25 * time.Hour
	}
	return &SendLog{client: client, retention: retention}
}

func sendLogKey(accountID string) string { return "tgauto:sendlog:" + accountID }

func (l *SendLog) Record(ctx context.Context, accountID string, at time.Time) error {
	key := sendLogKey(accountID)
	if err := l.client.ZAdd(ctx, key, float64(at.UnixMicro()), strconv.FormatInt(at.UnixNano(), 10)); err != nil {
		return err
	}
	cut := at.Add(-l.retention).UnixMicro()
	if err := l.client.ZRemRangeByScore(ctx, key, math.Inf(-1), float64(cut)); err != nil {
		return err
	}
	return l.client.Expire(ctx, key, l.retention)
}

func (l *SendLog) Since(ctx context.Context, accountID string, from time.Time) ([]time.Time, error) {
	members, err := l.client.ZRangeByScore(ctx, sendLogKey(accountID), float64(from.UnixMicro()), math.Inf(1))
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(members))
	for _, m := range members {
		ns, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, time.Unix(0, ns).UTC())
	}
	return out, nil
}
