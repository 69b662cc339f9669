package handler

import (
	"shopstream/internal/app/presence"
	"shopstream/internal/app/realtime"
	"shopstream/internal/app/store"
	"shopstream/internal/configs"
	"shopstream/internal/pkg/auth/jwt"
)

// AppDeps bundles the collaborators handlers need. The broadcaster handle is
// injected here rather than reached through any global.
type AppDeps struct {
	Hub         *realtime.Hub
	Broadcaster realtime.Broadcaster
	Stats       *realtime.Stats
	Presence    *presence.Tracker
	Store       store.Store
	Verifier    jwt.Verifier
	Config      *configs.AppConfig
}
