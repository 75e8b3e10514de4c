// Package resumes handles resume upload, text parsing, AI field
// extraction, and automatic candidate creation from the extracted fields.
package resumes

import (
	"context"
	"time"

	"talenttrack_backend/internal/candidates/lifecycle"
	"talenttrack_backend/internal/candidates/repository"
	ievents "talenttrack_backend/internal/events"
	"talenttrack_backend/platform/apperr"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"

	"github.com/google/uuid"
)

// CandidateCreator adds candidates to the pipeline. Satisfied by the
// lifecycle service.
type CandidateCreator interface {
	Create(ctx context.Context, params lifecycle.CreateParams, actor lifecycle.Actor) (repository.Candidate, error)
}

// ObjectStore persists uploaded resume documents.
type ObjectStore interface {
	Upload(ctx context.Context, bucket, folder, fileName, contentType string, data []byte) (string, error)
	PresignedDownloadURL(ctx context.Context, bucket, objectKey string) (string, time.Time, error)
}

// TimelineAppender records resume activity on candidate timelines.
type TimelineAppender interface {
	AppendTimelineEntry(ctx context.Context, params repository.TimelineParams) (repository.TimelineEntry, error)
}

type Service struct {
	parser    *Parser
	extractor FieldExtractor
	store     ObjectStore
	timeline  TimelineAppender
	creator   CandidateCreator
	bus       ievents.Bus
	log       *logger.Logger
	bucket    string
}

// NewService creates the resume processing service. extractor and store
// may be nil when the corresponding feature is not configured.
func NewService(
	parser *Parser,
	extractor FieldExtractor,
	store ObjectStore,
	timeline TimelineAppender,
	creator CandidateCreator,
	bus ievents.Bus,
	log *logger.Logger,
	cfg config.StorageConfig,
) *Service {
	return &Service{
		parser:    parser,
		extractor: extractor,
		store:     store,
		timeline:  timeline,
		creator:   creator,
		bus:       bus,
		log:       log,
		bucket:    cfg.GetMinioBucketResumes(),
	}
}

// UploadParams describes an incoming resume upload.
type UploadParams struct {
	JobID       uuid.UUID
	TeamID      *uuid.UUID
	FileName    string
	ContentType string
	Data        []byte
}

// UploadResult reports what the pipeline produced for an upload.
type UploadResult struct {
	ObjectKey   string           `json:"object_key"`
	FileName    string           `json:"file_name"`
	CandidateID *uuid.UUID       `json:"candidate_id,omitempty"`
	Extracted   *ExtractedFields `json:"extracted,omitempty"`
}

// Upload runs the resume pipeline: parse the document text, store the
// original file, extract candidate fields, and create the candidate when
// extraction yields enough identity to work with. Extraction failure is
// soft: the file is still stored and the recruiter can create the
// candidate manually.
func (s *Service) Upload(ctx context.Context, params UploadParams, actor lifecycle.Actor) (UploadResult, error) {
	const op = "resumes.Upload"

	if params.JobID == uuid.Nil {
		return UploadResult{}, apperr.Validation("job_id is required").WithOp(op)
	}
	if len(params.Data) == 0 {
		return UploadResult{}, apperr.Validation("file is empty").WithOp(op)
	}
	if !s.parser.SupportedExtension(params.FileName) {
		return UploadResult{}, apperr.Validation("unsupported file type").WithOp(op)
	}

	text, err := s.parser.Parse(params.FileName, params.Data)
	if err != nil {
		return UploadResult{}, apperr.Wrap(apperr.KindValidation, "could not read resume text", err).WithOp(op)
	}

	objectKey, err := s.store.Upload(ctx, s.bucket, "resumes", params.FileName, params.ContentType, params.Data)
	if err != nil {
		return UploadResult{}, apperr.Wrap(apperr.KindUnavailable, "failed to store resume", err).WithOp(op)
	}

	result := UploadResult{ObjectKey: objectKey, FileName: params.FileName}

	if s.extractor == nil {
		return result, nil
	}

	fields, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.log.Warn("resume field extraction failed", "file", params.FileName, "error", err)
		return result, nil
	}
	result.Extracted = fields

	if fields.Phone == "" {
		s.log.Info("resume has no phone number, skipping candidate creation", "file", params.FileName)
		return result, nil
	}

	candidate, err := s.creator.Create(ctx, lifecycle.CreateParams{
		JobID:                params.JobID,
		TeamID:               params.TeamID,
		FirstName:            fields.FirstName,
		LastName:             fields.LastName,
		Email:                strPtrOrNil(fields.Email),
		Phone:                fields.Phone,
		TotalExperienceYears: fields.ExperienceYears,
	}, actor)
	if err != nil {
		s.log.Warn("could not create candidate from resume", "file", params.FileName, "error", err)
		return result, nil
	}
	result.CandidateID = &candidate.ID

	if _, err := s.timeline.AppendTimelineEntry(ctx, repository.TimelineParams{
		CandidateID:  candidate.ID,
		ActivityType: repository.ActivityResumeUploaded,
		Title:        repository.TitleResumeUploaded,
		ActorType:    repository.ActorTypeRecruiter,
		ActorName:    actor.Name,
		Metadata: map[string]any{
			"file_name":  params.FileName,
			"object_key": objectKey,
		},
	}); err != nil {
		s.log.Error("failed to record resume upload on timeline", "candidate_id", candidate.ID, "error", err)
	}

	s.bus.Publish(ctx, ievents.ResumeProcessed{
		BaseEvent:   ievents.NewBaseEvent(),
		CandidateID: candidate.ID,
		JobID:       params.JobID,
		ObjectKey:   objectKey,
		FileName:    params.FileName,
	})

	return result, nil
}

// DownloadURL returns a presigned URL for a stored resume.
func (s *Service) DownloadURL(ctx context.Context, objectKey string) (string, time.Time, error) {
	const op = "resumes.DownloadURL"
	if objectKey == "" {
		return "", time.Time{}, apperr.Validation("object key is required").WithOp(op)
	}
	url, expiresAt, err := s.store.PresignedDownloadURL(ctx, s.bucket, objectKey)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindUnavailable, "failed to generate download URL", err).WithOp(op)
	}
	return url, expiresAt, nil
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
