package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/draftforge/draftforge/internal/domain"
	"github.com/draftforge/draftforge/internal/repository/index"
	"github.com/draftforge/draftforge/internal/repository/templates"
	healthuc "github.com/draftforge/draftforge/internal/usecase/health"
	pipelineuc "github.com/draftforge/draftforge/internal/usecase/pipeline"
)

// Server hosts the draft generation HTTP API.
type Server struct {
	pipeline   *pipelineuc.Service
	documents  *index.Repo
	templates  *templates.Store
	health     *healthuc.Service
	collection string
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	pipeline *pipelineuc.Service,
	documents *index.Repo,
	tplStore *templates.Store,
	health *healthuc.Service,
	collection string,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:   pipeline,
		documents:  documents,
		templates:  tplStore,
		health:     health,
		collection: collection,
		logger:     logger,
	}
}

// Routes mounts all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/drafts", s.handleCreateDraft)
		r.Post("/documents", s.handleIngestDocument)
		r.Get("/templates/{name}", s.handleGetTemplate)
		r.Put("/templates/{name}", s.handlePutTemplate)
	})
}

// --- drafts ---

type draftRequest struct {
	RequestID        string                 `json:"request_id,omitempty"`
	UserID           string                 `json:"user_id"`
	Topics           []string               `json:"topics"`
	CampaignText     string                 `json:"campaign_text"`
	AssetType        string                 `json:"asset_type"`
	ICP              string                 `json:"icp,omitempty"`
	TargetCompetitor string                 `json:"target_competitor,omitempty"`
	TemplateOverride string                 `json:"template_override,omitempty"`
	CompanyName      string                 `json:"company_name,omitempty"`
	CompanyContext   *domain.CompanyContext `json:"company_context,omitempty"`
}

type draftResponse struct {
	RunID         string                  `json:"run_id"`
	GeneratedText string                  `json:"generated_text"`
	Sources       []string                `json:"sources"`
	RetrievedDocs []domain.SourceDocument `json:"retrieved_docs"`
	FinalPrompt   string                  `json:"final_prompt"`
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var body draftRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if body.AssetType == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "asset_type is required")
		return
	}

	// The execution fingerprint covers the request id only when the client
	// supplied one; a synthesized id would make every id-less request unique
	// and the duplicate guard unreachable. The run id exists for tracing only.
	runID := body.RequestID
	if runID == "" {
		runID = uuid.NewString()
	}

	result, err := s.pipeline.Run(r.Context(), domain.DraftRequest{
		RequestID:        body.RequestID,
		UserID:           body.UserID,
		Topics:           body.Topics,
		CampaignText:     body.CampaignText,
		AssetType:        body.AssetType,
		ICP:              body.ICP,
		TargetCompetitor: body.TargetCompetitor,
		TemplateOverride: body.TemplateOverride,
		CompanyName:      body.CompanyName,
		Company:          body.CompanyContext,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	sources := result.Sources
	if sources == nil {
		sources = []string{}
	}
	docs := result.RetrievedDocs
	if docs == nil {
		docs = []domain.SourceDocument{}
	}

	writeJSON(w, http.StatusOK, draftResponse{
		RunID:         runID,
		GeneratedText: result.GeneratedText,
		Sources:       sources,
		RetrievedDocs: docs,
		FinalPrompt:   result.FinalPrompt,
	})
}

// --- documents ---

func (s *Server) handleIngestDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.SourceDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if _, err := domain.ParseSourceType(string(doc.Source)); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "source must be thread, video or audio")
		return
	}
	if doc.Citation == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "citation is required")
		return
	}

	if err := s.documents.Upsert(r.Context(), s.collection, &doc); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "stored"})
}

// --- templates ---

type templateResponse struct {
	Name     string    `json:"name"`
	Body     string    `json:"body"`
	EditedBy string    `json:"edited_by,omitempty"`
	EditedAt time.Time `json:"edited_at,omitempty"`
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	tpl, err := s.templates.GetLatest(r.Context(), name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templateResponse{
		Name:     tpl.Name,
		Body:     tpl.Body,
		EditedBy: tpl.EditedBy,
		EditedAt: tpl.EditedAt,
	})
}

func (s *Server) handlePutTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		Body     string `json:"body"`
		EditedBy string `json:"edited_by,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if body.Body == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "body is required")
		return
	}

	err := s.templates.Put(r.Context(), domain.Template{
		Name:     name,
		Body:     body.Body,
		EditedBy: body.EditedBy,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// --- health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// --- error mapping ---

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoTopics),
		errors.Is(err, domain.ErrUnknownSourceType):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrDuplicateExecution):
		writeError(w, http.StatusConflict, "duplicate_execution", err.Error())
	case errors.Is(err, domain.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, "template_not_found", err.Error())
	case errors.Is(err, domain.ErrGenerationFailed),
		errors.Is(err, domain.ErrCompletionProviderError),
		errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, "llm_error", err.Error())
	default:
		s.logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
