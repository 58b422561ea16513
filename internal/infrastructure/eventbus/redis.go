package eventbus

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// RedisBus publishes lifecycle events over redis pub/sub. Redis preserves
// order within one channel, which is all the bus contract asks for.
type RedisBus struct {
	rdb *redis.Client
}

func NewRedisBus(rdb *redis.Client) *RedisBus { return &RedisBus{rdb: rdb} }

// Publish is best-effort: the record mutation has already committed by the
// time we get here, so failures are logged and swallowed.
func (b *RedisBus) Publish(ctx context.Context, channel string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("eventbus: marshal for %s: %v", channel, err)
		return
	}

	// detach from the request context so cancellation after commit does
	// not drop the notification
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := b.rdb.Publish(pctx, channel, body).Err(); err != nil {
		log.Printf("eventbus: publish to %s: %v", channel, err)
	}
}
