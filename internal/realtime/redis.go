package realtime

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// eventsChannel fans application events out across API instances.
const eventsChannel = "hustlefy:events"

// NewRedis creates a new Redis client
func NewRedis() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	log.Printf("Redis client created (addr: %s)\n", redisAddr)
	return rdb
}

// PublishEvent pushes an event onto the shared channel. Delivery to
// open sockets happens in the relay, possibly on another instance.
func PublishEvent(ctx context.Context, rdb *redis.Client, target uuid.UUID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Target: target, Type: eventType, Data: data})
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}
	if err := rdb.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		log.Printf("Error publishing event: %v", err)
	}
}

// StartEventRelay subscribes to the shared channel and forwards each
// event to the targeted user's sockets on this instance. Runs until
// the context is cancelled.
func StartEventRelay(ctx context.Context, rdb *redis.Client, hub *Hub) {
	sub := rdb.Subscribe(ctx, eventsChannel)
	ch := sub.Channel()

	go func() {
		defer sub.Close()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("Error decoding event: %v", err)
					continue
				}
				hub.SendToUser(ev.Target, ev)
			case <-ctx.Done():
				return
			}
		}
	}()
}
