package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Bridge replicates room events across nodes through a redis pub/sub channel
// and a NATS queue subject. Each node filters out its own publications by
// node id, so local delivery happens exactly once per node.
type Bridge struct {
	registry *Registry
	redis    *redis.Client
	channel  string
	nats     *nats.Conn
	subject  string
	nodeID   string
	log      zerolog.Logger
}

type roomEvent struct {
	Source  string          `json:"source"`
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SentAt  time.Time       `json:"sent_at"`
}

// NewBridge wires a registry to the shared channel base. Either client may be
// nil; the bridge then only uses the other transport.
func NewBridge(registry *Registry, redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *Bridge {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":rooms"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".rooms"
	}

	return &Bridge{
		registry: registry,
		redis:    redisClient,
		channel:  channel,
		nats:     natsConn,
		subject:  subject,
		nodeID:   uuid.NewString(),
		log:      logger.With().Str("component", "room_bridge").Logger(),
	}
}

// Start launches the consumer goroutines. Safe to call with no transports
// configured; the bridge then degrades to local-only delivery.
func (b *Bridge) Start(ctx context.Context) {
	if b.redis != nil && b.channel != "" {
		go b.consumeRedis(ctx)
	}
	if b.nats != nil && b.subject != "" {
		go b.consumeNATS(ctx)
	}
}

// Publish forwards a room event to peer nodes. Failures are logged and
// swallowed; cross-node fan-out is best effort like everything else here.
func (b *Bridge) Publish(room, event string, payload any) {
	if (b.redis == nil || b.channel == "") && (b.nats == nil || b.subject == "") {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		b.log.Warn().Err(err).Str("event", event).Msg("failed to marshal room event payload")
		return
	}

	data, err := json.Marshal(roomEvent{
		Source:  b.nodeID,
		Room:    room,
		Event:   event,
		Payload: raw,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to marshal room event")
		return
	}

	if b.redis != nil && b.channel != "" {
		if err := b.redis.Publish(context.Background(), b.channel, data).Err(); err != nil {
			b.log.Warn().Err(err).Msg("failed to publish room event to redis")
		}
	}

	if b.nats != nil && b.subject != "" {
		if err := b.nats.Publish(b.subject, data); err != nil {
			b.log.Warn().Err(err).Msg("failed to publish room event to nats")
		}
	}
}

func (b *Bridge) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.channel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			b.log.Error().Err(err).Msg("room bridge redis subscription closed")
			return
		}
		b.handle([]byte(msg.Payload))
	}
}

func (b *Bridge) consumeNATS(ctx context.Context) {
	sub, err := b.nats.QueueSubscribe(b.subject, "haven-rooms", func(msg *nats.Msg) {
		b.handle(msg.Data)
	})
	if err != nil {
		b.log.Error().Err(err).Msg("failed to subscribe to nats room subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.log.Warn().Err(err).Msg("failed to drain room bridge nats subscription")
		}
	}()
}

func (b *Bridge) handle(data []byte) {
	var event roomEvent
	if err := json.Unmarshal(data, &event); err != nil {
		b.log.Warn().Err(err).Msg("invalid room event")
		return
	}

	if event.Source == b.nodeID {
		return
	}

	b.registry.deliverLocal(event.Room, event.Event, event.Payload)
}
