package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KAOS-CODM/KaosSub/internal/logger"
	"github.com/KAOS-CODM/KaosSub/internal/metrics"
)

const (
	reviewKey = "reconciliation_review"
	deadKey   = "reconciliation_dead"

	maxTries = 3
)

// ReviewItem is a settlement we could not apply on the spot: the order
// was missing, the outcome contradicted a terminal state, or the store
// errored. The queue retries a few times, then parks the item on a dead
// list for an operator.
type ReviewItem struct {
	RequestID string    `json:"request_id"`
	Outcome   string    `json:"outcome"`
	RawStatus string    `json:"raw_status"`
	Reason    string    `json:"reason"`
	Tries     int       `json:"tries"`
	Created   time.Time `json:"created"`
}

type ReviewQueue struct {
	redis   *redis.Client
	settler Settler
}

func NewReviewQueue(redisAddr string, settler Settler) *ReviewQueue {
	return &ReviewQueue{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		settler: settler,
	}
}

func (q *ReviewQueue) Enqueue(ctx context.Context, item ReviewItem) error {
	if item.Created.IsZero() {
		item.Created = time.Now()
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	if err := q.redis.LPush(ctx, reviewKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue settlement %s for review: %v", item.RequestID, err)
		return err
	}

	logger.Infof("Settlement queued for review: %s (%s)", item.RequestID, item.Reason)
	q.updateLengthGauge(ctx)
	return nil
}

func (q *ReviewQueue) Start(ctx context.Context) {
	logger.Info("Reconciliation review worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reconciliation review worker stopped")
			return
		default:
			q.processNext(ctx)
		}
	}
}

func (q *ReviewQueue) processNext(ctx context.Context) {
	result, err := q.redis.BRPop(ctx, 2*time.Second, reviewKey).Result()
	if err != nil {
		return
	}
	q.updateLengthGauge(ctx)

	var item ReviewItem
	if err := json.Unmarshal([]byte(result[1]), &item); err != nil {
		logger.Errorf("Bad review item: %v", err)
		return
	}

	item.Tries++
	logger.Infof("Retrying settlement %s (attempt %d)", item.RequestID, item.Tries)
	if _, err := q.settler.Finalize(ctx, item.RequestID, item.Outcome); err != nil {
		logger.Warnf("Settlement %s still failing: %v", item.RequestID, err)

		if item.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(item)
			q.redis.LPush(context.Background(), reviewKey, data)
		} else {
			logger.Errorf("Settlement %s failed after %d attempts, parking for operator", item.RequestID, maxTries)
			q.parkDead(item, err)
		}
		return
	}

	logger.Infof("Settlement %s resolved on retry", item.RequestID)
}

func (q *ReviewQueue) parkDead(item ReviewItem, err error) {
	dead := map[string]interface{}{
		"item":  item,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(dead)
	q.redis.LPush(context.Background(), deadKey, data)
}

func (q *ReviewQueue) updateLengthGauge(ctx context.Context) {
	length, err := q.redis.LLen(ctx, reviewKey).Result()
	if err != nil {
		return
	}
	metrics.ReviewQueueLength.Set(float64(length))
}

func (q *ReviewQueue) Length(ctx context.Context) int64 {
	length, _ := q.redis.LLen(ctx, reviewKey).Result()
	return length
}

func (q *ReviewQueue) Close() error {
	return q.redis.Close()
}
