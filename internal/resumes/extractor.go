package resumes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"

	"google.golang.org/genai"
)

// maxExtractionChars caps how much resume text we send to the model.
// Resumes longer than this carry no additional identity information.
const maxExtractionChars = 20000

// ExtractedFields holds candidate details pulled from resume text.
type ExtractedFields struct {
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	CurrentCompany  string   `json:"current_company"`
	CurrentTitle    string   `json:"current_title"`
	ExperienceYears float64  `json:"experience_years"`
	Skills          []string `json:"skills"`
	// Confidence is the model's own 0-1 estimate of how reliably the
	// identity fields were read. Display-only; never gates creation.
	Confidence float64 `json:"confidence"`
}

// FieldExtractor pulls structured candidate fields from resume text.
type FieldExtractor interface {
	Extract(ctx context.Context, resumeText string) (*ExtractedFields, error)
}

// GeminiExtractor extracts candidate fields using the Gemini API with a
// constrained JSON response schema.
type GeminiExtractor struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGeminiExtractor creates a Gemini-backed field extractor. Returns nil
// without error when extraction is not configured, so callers can treat a
// nil extractor as "skip extraction".
func NewGeminiExtractor(ctx context.Context, cfg config.ExtractionConfig, log *logger.Logger) (*GeminiExtractor, error) {
	if !cfg.IsExtractionEnabled() {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiExtractor{
		client: client,
		model:  cfg.GetExtractionModel(),
		log:    log,
	}, nil
}

var extractionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"first_name":       {Type: genai.TypeString},
		"last_name":        {Type: genai.TypeString},
		"email":            {Type: genai.TypeString},
		"phone":            {Type: genai.TypeString},
		"current_company":  {Type: genai.TypeString},
		"current_title":    {Type: genai.TypeString},
		"experience_years": {Type: genai.TypeNumber},
		"skills":           {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"confidence":       {Type: genai.TypeNumber},
	},
	Required: []string{"first_name", "last_name"},
}

const extractionPrompt = `You are given the plain text of a resume. Extract the candidate's details.
Rules:
- Use the candidate's own details, never those of references or employers.
- Leave a field empty when the resume does not state it. Do not guess.
- experience_years is total professional experience, 0 when unstated.
- skills is a flat list of the most prominent technical skills, at most 15.
- confidence is your 0 to 1 estimate of how reliably the identity fields were read.

Resume text:
`

// Extract pulls structured candidate fields from resume text.
func (e *GeminiExtractor) Extract(ctx context.Context, resumeText string) (*ExtractedFields, error) {
	if len(resumeText) > maxExtractionChars {
		resumeText = resumeText[:maxExtractionChars]
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model,
		genai.Text(extractionPrompt+resumeText),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   extractionSchema,
			Temperature:      genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("field extraction request failed: %w", err)
	}

	raw := strings.TrimSpace(resp.Text())
	if raw == "" {
		return nil, fmt.Errorf("field extraction returned an empty response")
	}

	var fields ExtractedFields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}
	if fields.FirstName == "" {
		return nil, fmt.Errorf("extraction produced no candidate name")
	}
	return &fields, nil
}
