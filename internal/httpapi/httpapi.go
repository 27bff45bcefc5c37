// Package httpapi is the thin, contract-only HTTP surface named in
// spec.md §1/§6 and given concrete shape in SPEC_FULL.md §4.13: just
// enough transport to invoke the Orchestrator, the Introspector, and
// Scoring. Session auth, full CRUD, and UI are explicitly out of
// scope; this package never re-implements them, not even minimally.
//
// Routing is chi (github.com/go-chi/chi/v5) with go-chi/cors, matching
// the pack's iruldev-golang-api-hexagonal/jordigilh-kubernaut usage.
// Request-body validation is go-playground/validator/v10, the one
// binding check the surface performs on the one request body it owns.
// The type-switch "route on request kind" shape is adapted from the
// teacher's handleMessage (server/server.go), here expressed as chi's
// native path-based routing instead.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/OmprakashShyamalan/querybench/internal/catalog"
	"github.com/OmprakashShyamalan/querybench/internal/introspect"
	"github.com/OmprakashShyamalan/querybench/internal/metrics"
	"github.com/OmprakashShyamalan/querybench/internal/models"
	"github.com/OmprakashShyamalan/querybench/internal/orchestrator"
	"github.com/OmprakashShyamalan/querybench/internal/scoring"
)

var validate = validator.New()

// Server wires the core pipeline to chi routes.
type Server struct {
	orch      *orchestrator.Orchestrator
	intro     *introspect.Introspector
	cat       *catalog.Catalog
	met       *metrics.Metrics
	log       *zap.Logger
	target    func() models.TargetSelector
	introSrc  introspect.Source
	schemaKey string
}

// New constructs the chi-backed HTTP handler. target supplies the
// TargetSelector every request should evaluate against (usually a
// router-backed selector pointed at the configured primary/replicas).
// schemaKey identifies the target for the Introspector's cache (the
// configured target is a single database per spec.md §6, so one key
// suffices).
func New(orch *orchestrator.Orchestrator, intro *introspect.Introspector, cat *catalog.Catalog, met *metrics.Metrics, log *zap.Logger, target func() models.TargetSelector, introSrc introspect.Source, schemaKey string) http.Handler {
	s := &Server{orch: orch, intro: intro, cat: cat, met: met, log: log, target: target, introSrc: introSrc, schemaKey: schemaKey}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "X-User-Id"},
	}))

	r.Post("/assignments/{assignmentID}/attempts", s.handleStartAttempt)
	r.Post("/attempts/{attemptID}/answers/{questionID}/submit", s.handleSubmit)
	r.Get("/assessments/{id}/schema", s.handleSchema)
	r.Get("/attempts/{id}/score", s.handleScore)
	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

type submitRequest struct {
	ParticipantSQL string `json:"participantSQL" validate:"required"`
}

type executionMetadataDTO struct {
	DurationMs   int64 `json:"duration_ms"`
	RowsReturned int   `json:"rows_returned"`
}

type verdictDTO struct {
	Status            string                `json:"status"`
	Feedback          string                `json:"feedback,omitempty"`
	ExecutionMetadata *executionMetadataDTO `json:"execution_metadata,omitempty"`
}

func verdictToDTO(v models.Verdict) verdictDTO {
	dto := verdictDTO{Status: string(v.Status), Feedback: v.Feedback}
	if v.Metadata != nil {
		dto.ExecutionMetadata = &executionMetadataDTO{
			DurationMs:   v.Metadata.DurationMs,
			RowsReturned: v.Metadata.RowsReturned,
		}
	}
	return dto
}

func (s *Server) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")
	id, err := s.cat.StartAttempt(r.Context(), assignmentID)
	if err != nil {
		http.Error(w, "failed to start attempt", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "attemptID")
	questionID := chi.URLParam(r, "questionID")
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		userID = attemptID
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "participantSQL is required", http.StatusBadRequest)
		return
	}

	question, err := s.cat.Question(r.Context(), questionID)
	if err != nil {
		http.Error(w, "unknown question", http.StatusNotFound)
		return
	}

	verdict := s.orch.Evaluate(r.Context(), userID, questionID, req.ParticipantSQL, question.SolutionSQL, s.target())
	if s.met != nil {
		s.met.ObserveVerdict(string(verdict.Status))
	}

	var durationMs int64
	var rowsReturned int
	if verdict.Metadata != nil {
		durationMs = verdict.Metadata.DurationMs
		rowsReturned = verdict.Metadata.RowsReturned
	}
	if err := s.cat.RecordAnswer(r.Context(), catalog.AnswerRecord{
		AttemptID:      attemptID,
		QuestionID:     questionID,
		ParticipantSQL: req.ParticipantSQL,
		Status:         string(verdict.Status),
		Feedback:       verdict.Feedback,
		DurationMs:     durationMs,
		RowsReturned:   rowsReturned,
	}); err != nil && s.log != nil {
		s.log.Warn("failed to record answer", zap.Error(err), zap.String("attempt", attemptID))
	}

	writeJSON(w, http.StatusOK, verdictToDTO(verdict))
}

type schemaColumnDTO struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	IsNullable   bool    `json:"isNullable"`
	IsPrimaryKey bool    `json:"isPrimaryKey"`
	IsForeignKey bool    `json:"isForeignKey"`
	References   *refDTO `json:"references,omitempty"`
}

type refDTO struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

type schemaTableDTO struct {
	Name    string            `json:"name"`
	Columns []schemaColumnDTO `json:"columns"`
}

type schemaSnapshotDTO struct {
	Error  string           `json:"error,omitempty"`
	Tables []schemaTableDTO `json:"tables"`
}

func snapshotToDTO(snap models.SchemaSnapshot) schemaSnapshotDTO {
	dto := schemaSnapshotDTO{Error: snap.Error, Tables: []schemaTableDTO{}}
	for _, t := range snap.Tables {
		tbl := schemaTableDTO{Name: t.Name}
		for _, c := range t.Columns {
			col := schemaColumnDTO{
				Name:         c.Name,
				Type:         c.Type,
				IsNullable:   c.IsNullable,
				IsPrimaryKey: c.IsPrimaryKey,
				IsForeignKey: c.IsForeignKey,
			}
			if c.HasReferences {
				col.References = &refDTO{Table: c.RefTable, Column: c.RefColumn}
			}
			tbl.Columns = append(tbl.Columns, col)
		}
		dto.Tables = append(dto.Tables, tbl)
	}
	return dto
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	snap := s.intro.Inspect(r.Context(), s.schemaKey, s.introSrc)
	writeJSON(w, http.StatusOK, snapshotToDTO(snap))
}

type scoreDTO struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	attemptID := chi.URLParam(r, "id")
	records, err := s.cat.AnswersForAttempt(r.Context(), attemptID)
	if err != nil {
		http.Error(w, "unknown attempt", http.StatusNotFound)
		return
	}

	answers := make([]scoring.Answer, len(records))
	for i, rec := range records {
		answers[i] = scoring.Answer{Verdict: models.Verdict{Status: models.VerdictStatus(rec.Status)}}
	}
	score := scoring.Summarize(answers)
	writeJSON(w, http.StatusOK, scoreDTO{Correct: score.Correct, Total: score.Total, Percent: score.Percent})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
