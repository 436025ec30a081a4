package service

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/havencare/haven-go-api/internal/dto"
	"github.com/havencare/haven-go-api/internal/realtime"
)

func TestPresenceServiceAnnouncesToEveryoneButSelf(t *testing.T) {
	registry := realtime.NewRegistry(zerolog.Nop())
	svc := NewPresenceService(registry, zerolog.Nop())

	alice, aliceConn := connect(t, registry, "alice", "subject")
	_, bobConn := connect(t, registry, "bob", "guardian")
	_, carolConn := connect(t, registry, "carol", "guardian")

	svc.Connected(alice)

	for _, conn := range []*recorderConn{bobConn, carolConn} {
		events := conn.await(t, 1)
		require.Equal(t, dto.EventPresenceOnline, events[0].Event)
		require.Equal(t, dto.PresenceEvent{UserID: "alice"}, events[0].Data)
	}
	aliceConn.assertSilent(t)

	svc.Disconnected(alice)

	events := bobConn.await(t, 2)
	require.Equal(t, dto.EventPresenceOffline, events[1].Event)
	require.Equal(t, dto.PresenceEvent{UserID: "alice"}, events[1].Data)
	aliceConn.assertSilent(t)
}
