package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/havencare/haven-go-api/internal/dto"
)

func TestBridgeFansOutToPeerNodesOnly(t *testing.T) {
	mr := miniredis.RunT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := NewRegistry(zerolog.Nop())
	localBridge := NewBridge(local, redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil, "haven", zerolog.Nop())
	local.AttachBridge(localBridge)
	localBridge.Start(ctx)

	peer := NewRegistry(zerolog.Nop())
	peerBridge := NewBridge(peer, redis.NewClient(&redis.Options{Addr: mr.Addr()}), nil, "haven", zerolog.Nop())
	peer.AttachBridge(peerBridge)
	peerBridge.Start(ctx)

	// both consumers must be subscribed before the publish; a non-JSON
	// probe is discarded by the bridges but reports the subscriber count
	require.Eventually(t, func() bool {
		return mr.Publish("haven:rooms", "probe") == 2
	}, time.Second, 10*time.Millisecond)

	_, localConn := addSession(t, local, "alice")
	_, peerConn := addSession(t, peer, "alice")

	local.SendToRoom(PersonalRoom("alice"), "chat:message", dto.PresenceEvent{UserID: "bob"})

	require.Eventually(t, func() bool {
		return len(peerConn.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	require.Equal(t, "chat:message", peerConn.snapshot()[0].Event)

	// the origin node already delivered locally; its own publication is
	// filtered out by node id
	time.Sleep(50 * time.Millisecond)
	require.Len(t, localConn.snapshot(), 1)
}

func TestBridgeWithoutTransportsIsLocalOnly(t *testing.T) {
	registry := NewRegistry(zerolog.Nop())
	bridge := NewBridge(registry, nil, nil, "haven", zerolog.Nop())
	registry.AttachBridge(bridge)
	bridge.Start(context.Background())

	_, conn := addSession(t, registry, "alice")
	registry.SendToRoom(PersonalRoom("alice"), "chat:message", dto.PresenceEvent{UserID: "bob"})

	require.Eventually(t, func() bool {
		return len(conn.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
}
