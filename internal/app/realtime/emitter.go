/*
Package realtime contains the core logic for the real-time event distribution layer.

This file defines the periodic emitter: three independent fixed-interval jobs
(system stats, simulated visitor counts, heartbeats) that push to subscribers
for the lifetime of the process, independent of any client action. A slow or
panicking iteration of one job never blocks or cancels the others.
*/
package realtime

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"shopstream/internal/app/presence"
	"shopstream/internal/pkg/logx"
)

// Default emission cadences.
const (
	DefaultStatsInterval     = 30 * time.Second
	DefaultVisitorInterval   = 10 * time.Second
	DefaultHeartbeatInterval = 5 * time.Second
)

// Bounds for the simulated share of the visitor count.
const (
	visitorJitterMin = 5
	visitorJitterMax = 50
)

// EmitterConfig carries the three loop intervals. Zero values fall back to
// the defaults.
type EmitterConfig struct {
	StatsInterval     time.Duration
	VisitorInterval   time.Duration
	HeartbeatInterval time.Duration
}

// Emitter is the process-wide background scheduler. It is started once at
// server boot and stopped once at shutdown.
type Emitter struct {
	cron    *cron.Cron
	hub     *Hub
	stats   *Stats
	tracker *presence.Tracker
	cfg     EmitterConfig
	logger  zerolog.Logger
}

// NewEmitter constructs the emitter. Jobs are scheduled on Start.
func NewEmitter(hub *Hub, stats *Stats, tracker *presence.Tracker, cfg EmitterConfig) *Emitter {
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = DefaultStatsInterval
	}
	if cfg.VisitorInterval <= 0 {
		cfg.VisitorInterval = DefaultVisitorInterval
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}

	logger := logx.Component("emitter")

	return &Emitter{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{logger: logger}),
		)),
		hub:     hub,
		stats:   stats,
		tracker: tracker,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start schedules the three interval jobs and starts the scheduler.
func (e *Emitter) Start() error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func()
	}{
		{"system-stats", e.cfg.StatsInterval, e.EmitSystemStats},
		{"visitors", e.cfg.VisitorInterval, e.EmitVisitorUpdate},
		{"heartbeat", e.cfg.HeartbeatInterval, e.EmitHeartbeat},
	}

	for _, job := range jobs {
		spec := fmt.Sprintf("@every %s", job.interval)
		if _, err := e.cron.AddFunc(spec, job.run); err != nil {
			return fmt.Errorf("schedule %s job: %w", job.name, err)
		}

		e.logger.Info().
			Str("job", job.name).
			Dur("interval", job.interval).
			Msg("Scheduled periodic emission.")
	}

	e.cron.Start()

	return nil
}

// Stop halts the scheduler and waits for any running job to finish.
func (e *Emitter) Stop() {
	ctx := e.cron.Stop()
	<-ctx.Done()

	e.logger.Info().Msg("Emitter stopped.")
}

// EmitSystemStats recomputes the system snapshot and pushes it to the admin room.
func (e *Emitter) EmitSystemStats() {
	e.hub.EmitToRoom(AdminRoom, NewEnvelope(EventSystemStatsUpdate, e.stats.System()))
}

// EmitVisitorUpdate pushes a simulated online-visitor count to the admin room:
// the live presence count plus bounded random noise standing in for
// unauthenticated browsers.
func (e *Emitter) EmitVisitorUpdate() {
	count := e.tracker.OnlineCount() + visitorJitterMin + rand.Intn(visitorJitterMax-visitorJitterMin+1)

	e.hub.EmitToRoom(AdminRoom, NewEnvelope(EventVisitorUpdate, VisitorPayload{Count: count}))
}

// EmitHeartbeat pushes a liveness pulse to every connection, authenticated or not.
func (e *Emitter) EmitHeartbeat() {
	e.hub.EmitToAll(NewEnvelope(EventHeartbeat, HeartbeatPayload{
		Connections: e.hub.ConnectedClients(),
		ServerTime:  time.Now(),
	}))
}

// cronLogger adapts zerolog to the cron.Logger interface so recovered job
// panics land in structured logs.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
