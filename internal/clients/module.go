package clients

import (
	apphttp "talenttrack_backend/internal/http"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"
	"talenttrack_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the clients bounded context implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger, cfg config.PlacementConfig) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, log, cfg)
	return &Module{
		handler: NewHandler(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "clients"
}

// Service exposes the clients service; the composition root passes it to the
// candidates module as its fee terms source.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts client and job routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/clients")
	group.POST("", m.handler.CreateClient)
	group.GET("", m.handler.ListClients)
	group.GET("/:id", m.handler.GetClient)
	group.PUT("/:id/terms", m.handler.UpdateTerms)

	jobs := ctx.Protected.Group("/jobs")
	jobs.POST("", m.handler.CreateJob)
	jobs.GET("", m.handler.ListJobs)
}
