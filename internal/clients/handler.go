package clients

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"talenttrack_backend/platform/httpkit"
	"talenttrack_backend/platform/validator"
)

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

type createClientRequest struct {
	Name                string   `json:"name" validate:"required,min=2,max=200"`
	ContactName         *string  `json:"contactName" validate:"omitempty,max=100"`
	ContactEmail        *string  `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone        *string  `json:"contactPhone" validate:"omitempty,max=20"`
	FeePercentage       *float64 `json:"feePercentage" validate:"omitempty,gt=0,lte=100"`
	GuaranteePeriodDays *int     `json:"guaranteePeriodDays" validate:"omitempty,gte=0,lte=365"`
}

type updateTermsRequest struct {
	FeePercentage       *float64 `json:"feePercentage" validate:"omitempty,gt=0,lte=100"`
	GuaranteePeriodDays *int     `json:"guaranteePeriodDays" validate:"omitempty,gte=0,lte=365"`
}

type createJobRequest struct {
	ClientID string `json:"clientId" validate:"required,uuid"`
	Title    string `json:"title" validate:"required,min=2,max=200"`
}

type clientResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	ContactName         *string   `json:"contactName,omitempty"`
	ContactEmail        *string   `json:"contactEmail,omitempty"`
	ContactPhone        *string   `json:"contactPhone,omitempty"`
	FeePercentage       *float64  `json:"feePercentage,omitempty"`
	GuaranteePeriodDays *int      `json:"guaranteePeriodDays,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func toClientResponse(c Client) clientResponse {
	return clientResponse{
		ID:                  c.ID,
		Name:                c.Name,
		ContactName:         c.ContactName,
		ContactEmail:        c.ContactEmail,
		ContactPhone:        c.ContactPhone,
		FeePercentage:       c.FeePercentage,
		GuaranteePeriodDays: c.GuaranteePeriodDays,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// CreateClient registers a client company.
// POST /api/v1/clients
func (h *Handler) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	client, err := h.svc.CreateClient(c.Request.Context(), CreateClientParams{
		Name:                req.Name,
		ContactName:         req.ContactName,
		ContactEmail:        req.ContactEmail,
		ContactPhone:        req.ContactPhone,
		FeePercentage:       req.FeePercentage,
		GuaranteePeriodDays: req.GuaranteePeriodDays,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, toClientResponse(client))
}

// ListClients returns all clients.
// GET /api/v1/clients
func (h *Handler) ListClients(c *gin.Context) {
	items, err := h.svc.ListClients(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]clientResponse, len(items))
	for i, client := range items {
		out[i] = toClientResponse(client)
	}
	httpkit.OK(c, gin.H{"clients": out})
}

// GetClient returns one client.
// GET /api/v1/clients/:id
func (h *Handler) GetClient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
		return
	}
	client, err := h.svc.GetClient(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toClientResponse(client))
}

// UpdateTerms replaces a client's contract terms.
// PUT /api/v1/clients/:id/terms
func (h *Handler) UpdateTerms(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
		return
	}
	var req updateTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	client, err := h.svc.UpdateTerms(c.Request.Context(), UpdateTermsParams{
		ClientID:            id,
		FeePercentage:       req.FeePercentage,
		GuaranteePeriodDays: req.GuaranteePeriodDays,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toClientResponse(client))
}

// CreateJob opens a requisition at a client.
// POST /api/v1/jobs
func (h *Handler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
		return
	}

	job, err := h.svc.CreateJob(c.Request.Context(), CreateJobParams{ClientID: clientID, Title: req.Title})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, job)
}

// ListJobs returns jobs, optionally filtered by client.
// GET /api/v1/jobs
func (h *Handler) ListJobs(c *gin.Context) {
	var clientID *uuid.UUID
	if raw := c.Query("clientId"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid client ID", nil)
			return
		}
		clientID = &parsed
	}
	items, err := h.svc.ListJobs(c.Request.Context(), clientID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"jobs": items})
}
