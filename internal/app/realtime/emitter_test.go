package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopstream/internal/app/presence"
	"shopstream/internal/app/store"
	"shopstream/internal/pkg/auth/jwt"
)

func newTestEmitter(t *testing.T, h *Hub, tracker *presence.Tracker, cfg EmitterConfig) *Emitter {
	t.Helper()

	stats := NewStats(h, store.NewMemoryStore(), tracker)
	return NewEmitter(h, stats, tracker, cfg)
}

func TestEmitSystemStatsTargetsAdminRoom(t *testing.T) {
	h, tracker := newTestHub(t, adminVerifier("a1"))

	admin := connect(h)
	require.NoError(t, h.Authenticate(context.Background(), admin, "token", jwt.RoleAdmin))
	drain(admin)

	anon := connect(h)

	e := newTestEmitter(t, h, tracker, EmitterConfig{})
	e.EmitSystemStats()

	env := receive(t, admin)
	assert.Equal(t, EventSystemStatsUpdate, env.Type)

	stats := env.Data.(map[string]any)
	assert.EqualValues(t, 2, stats["connectedClients"])

	assert.Empty(t, drain(anon))
}

func TestEmitVisitorUpdateBounded(t *testing.T) {
	h, tracker := newTestHub(t, adminVerifier("a1"))

	admin := connect(h)
	require.NoError(t, h.Authenticate(context.Background(), admin, "token", jwt.RoleAdmin))
	drain(admin)

	e := newTestEmitter(t, h, tracker, EmitterConfig{})

	for i := 0; i < 20; i++ {
		e.EmitVisitorUpdate()

		env := receive(t, admin)
		require.Equal(t, EventVisitorUpdate, env.Type)

		payload := env.Data.(map[string]any)
		count := int(payload["count"].(float64))
		assert.GreaterOrEqual(t, count, visitorJitterMin)
		assert.LessOrEqual(t, count, visitorJitterMax+tracker.OnlineCount())
	}
}

func TestEmitHeartbeatReachesEveryConnection(t *testing.T) {
	h, tracker := newTestHub(t, adminVerifier("a1"))

	admin := connect(h)
	require.NoError(t, h.Authenticate(context.Background(), admin, "token", jwt.RoleAdmin))
	drain(admin)

	anon := connect(h)

	e := newTestEmitter(t, h, tracker, EmitterConfig{})
	e.EmitHeartbeat()

	for _, c := range []*Client{admin, anon} {
		env := receive(t, c)
		require.Equal(t, EventHeartbeat, env.Type)

		hb := env.Data.(map[string]any)
		assert.EqualValues(t, 2, hb["connections"])
	}
}

func TestHeartbeatCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("cadence test sleeps")
	}

	h, tracker := newTestHub(t, userVerifier("u1"))
	anon := connect(h)

	// Compress the production cadence into a sub-second run: several beats
	// with no client activity, timestamps never decreasing.
	e := newTestEmitter(t, h, tracker, EmitterConfig{
		StatsInterval:     time.Hour,
		VisitorInterval:   time.Hour,
		HeartbeatInterval: 100 * time.Millisecond,
	})
	require.NoError(t, e.Start())

	time.Sleep(450 * time.Millisecond)
	e.Stop()

	var beats []Envelope
	for {
		select {
		case raw := <-anon.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			beats = append(beats, env)
			continue
		default:
		}
		break
	}

	require.GreaterOrEqual(t, len(beats), 3)
	require.LessOrEqual(t, len(beats), 5)

	var last time.Time
	for i, env := range beats {
		assert.Equal(t, EventHeartbeat, env.Type)
		assert.Falsef(t, env.Timestamp.Before(last), "heartbeat %d has decreasing timestamp", i)
		last = env.Timestamp
	}
}

func TestLoopsAreIndependent(t *testing.T) {
	if testing.Short() {
		t.Skip("scheduler test sleeps")
	}

	h, tracker := newTestHub(t, adminVerifier("a1"))

	admin := connect(h)
	require.NoError(t, h.Authenticate(context.Background(), admin, "token", jwt.RoleAdmin))
	drain(admin)

	e := newTestEmitter(t, h, tracker, EmitterConfig{
		StatsInterval:     120 * time.Millisecond,
		VisitorInterval:   120 * time.Millisecond,
		HeartbeatInterval: 120 * time.Millisecond,
	})
	require.NoError(t, e.Start())

	time.Sleep(300 * time.Millisecond)
	e.Stop()

	seen := map[EventType]int{}
	for _, eventType := range drain(admin) {
		seen[eventType]++
	}

	assert.Greater(t, seen[EventSystemStatsUpdate], 0)
	assert.Greater(t, seen[EventVisitorUpdate], 0)
	assert.Greater(t, seen[EventHeartbeat], 0)
}
