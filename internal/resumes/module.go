package resumes

import (
	apphttp "talenttrack_backend/internal/http"
)

// Module is the resume processing bounded context implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the resume module around an already-constructed service.
// The composition root decides whether storage and extraction are available.
func NewModule(service *Service) *Module {
	return &Module{
		handler: NewHandler(service),
		service: service,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "resumes"
}

// Service returns the resume service for the composition root.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts resume routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	resumes := ctx.Protected.Group("/resumes")
	resumes.POST("", m.handler.Upload)
	resumes.GET("/download", m.handler.Download)
}
