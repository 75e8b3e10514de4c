package resumes

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"talenttrack_backend/internal/candidates/lifecycle"
	"talenttrack_backend/platform/httpkit"
)

// maxUploadBytes caps in-memory reads of uploaded files before the
// storage layer applies its own configured limit.
const maxUploadBytes = 25 << 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload accepts a resume file and runs it through the processing pipeline.
// POST /api/v1/resumes
func (h *Handler) Upload(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	jobID, err := uuid.Parse(c.PostForm("job_id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid job ID", nil)
		return
	}
	var teamID *uuid.UUID
	if raw := c.PostForm("team_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid team ID", nil)
			return
		}
		teamID = &parsed
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fileHeader.Size > maxUploadBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}

	result, err := h.service.Upload(c.Request.Context(), UploadParams{
		JobID:       jobID,
		TeamID:      teamID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}, lifecycle.Actor{ID: identity.UserID(), Name: identity.Name()})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.Created(c, result)
}

// Download returns a short-lived presigned URL for a stored resume.
// GET /api/v1/resumes/download?key=...
func (h *Handler) Download(c *gin.Context) {
	url, expiresAt, err := h.service.DownloadURL(c.Request.Context(), c.Query("key"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"url": url, "expires_at": expiresAt})
}
