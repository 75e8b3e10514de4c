// Package candidates is the candidate lifecycle bounded context: the stage
// machine, offer and revenue tracking, and placement safety monitoring.
package candidates

import (
	"talenttrack_backend/internal/candidates/handler"
	"talenttrack_backend/internal/candidates/lifecycle"
	"talenttrack_backend/internal/candidates/ports"
	"talenttrack_backend/internal/candidates/repository"
	"talenttrack_backend/internal/candidates/safety"
	"talenttrack_backend/internal/events"
	apphttp "talenttrack_backend/internal/http"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"
	"talenttrack_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the candidates bounded context implementing http.Module.
type Module struct {
	handler   *handler.Handler
	lifecycle *lifecycle.Service
	safety    *safety.Service
	repo      *repository.Repository
}

// NewModule wires the candidates module. The fee terms reader and follow-up
// scheduler are ports implemented by the clients and scheduler modules.
func NewModule(
	pool *pgxpool.Pool,
	feeTerms ports.FeeTermsReader,
	followups ports.FollowUpScheduler,
	bus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
	cfg config.PlacementConfig,
) *Module {
	repo := repository.New(pool)
	lc := lifecycle.NewService(repo, feeTerms, followups, bus, log, cfg)
	sf := safety.NewService(repo, bus, log, cfg)
	h := handler.New(lc, sf, val)

	return &Module{
		handler:   h,
		lifecycle: lc,
		safety:    sf,
		repo:      repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "candidates"
}

// Lifecycle returns the lifecycle service for other modules and the
// composition root.
func (m *Module) Lifecycle() *lifecycle.Service {
	return m.lifecycle
}

// Safety returns the placement safety service, used by the sweep loop.
func (m *Module) Safety() *safety.Service {
	return m.safety
}

// Repository returns the candidate store for modules that record timeline
// activity directly.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts candidate routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	candidates := ctx.Protected.Group("/candidates")
	candidates.POST("", m.handler.Create)
	candidates.GET("", m.handler.List)
	candidates.GET("/:id", m.handler.Get)
	candidates.POST("/:id/transition", m.handler.Transition)
	candidates.POST("/:id/offer", m.handler.RecordOffer)
	candidates.POST("/:id/renege", m.handler.Renege)
	candidates.GET("/:id/timeline", m.handler.Timeline)
	candidates.POST("/:id/notes", m.handler.AddNote)
	candidates.GET("/:id/safety", m.handler.GetSafety)
	candidates.POST("/:id/safety/follow-up", m.handler.RecordFollowUp)

	ctx.Protected.GET("/placements/at-risk", m.handler.ListAtRisk)
}
