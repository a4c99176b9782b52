package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
)

// Pinger is a backing service with a connectivity check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionDefaults seed the viewport of every new touch session.
type SessionDefaults struct {
	Bounds       domain.Bounds
	ScreenWidth  float64
	ScreenHeight float64
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionRegistry
	Datasets *usecases.DatasetService
	Settings *usecases.SettingsService
	Index    *features.Index
	Sampler  *raster.Sampler
	Defaults SessionDefaults
	Events   ports.EventPublisher // optional
	NATS     *nats.Conn           // optional, readiness only
	DB       Pinger               // optional
	Cache    Pinger               // optional
}

func (d *Dependencies) sessionDeps() usecases.SessionDeps {
	return usecases.SessionDeps{
		Index:    d.Index,
		Sampler:  d.Sampler,
		Settings: d.Settings,
		Events:   d.Events,
	}
}
