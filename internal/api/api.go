package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/propdesk/propdesk/internal/health"
	"github.com/propdesk/propdesk/internal/lifecycle"
	"github.com/propdesk/propdesk/internal/llm"
	"github.com/propdesk/propdesk/internal/models"
	"github.com/propdesk/propdesk/internal/store"
)

// Server provides the REST API handlers.
type Server struct {
	store   store.Store
	manager *lifecycle.Manager
	scorer  *health.Scorer
	llm     *llm.Client
}

// NewServer creates a new API server.
// The llmClient may be nil if no API key is configured.
func NewServer(s store.Store, m *lifecycle.Manager, llmClient *llm.Client) *Server {
	return &Server{
		store:   s,
		manager: m,
		scorer:  health.NewScorer(m.SLA()),
		llm:     llmClient,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/properties", s.listProperties)
	mux.HandleFunc("POST /api/v1/properties", s.createProperty)
	mux.HandleFunc("GET /api/v1/properties/{id}", s.getProperty)
	mux.HandleFunc("PUT /api/v1/properties/{id}", s.updateProperty)
	mux.HandleFunc("DELETE /api/v1/properties/{id}", s.deleteProperty)
	mux.HandleFunc("GET /api/v1/properties/{id}/issues", s.listPropertyIssues)
	mux.HandleFunc("GET /api/v1/properties/{id}/metrics", s.propertyMetrics)
	mux.HandleFunc("GET /api/v1/properties/{id}/health", s.propertyHealth)

	mux.HandleFunc("GET /api/v1/vendors", s.listVendors)
	mux.HandleFunc("POST /api/v1/vendors", s.createVendor)
	mux.HandleFunc("GET /api/v1/vendors/{id}", s.getVendor)
	mux.HandleFunc("PUT /api/v1/vendors/{id}", s.updateVendor)
	mux.HandleFunc("DELETE /api/v1/vendors/{id}", s.deleteVendor)

	mux.HandleFunc("GET /api/v1/issues", s.listIssues)
	mux.HandleFunc("POST /api/v1/issues", s.createIssue)
	mux.HandleFunc("POST /api/v1/issues/intake", s.intakeIssues)
	mux.HandleFunc("GET /api/v1/issues/attention", s.attentionIssues)
	mux.HandleFunc("GET /api/v1/issues/{id}", s.getIssue)
	mux.HandleFunc("PATCH /api/v1/issues/{id}", s.updateIssue)
	mux.HandleFunc("POST /api/v1/issues/{id}/transition", s.transitionIssue)
	mux.HandleFunc("POST /api/v1/issues/{id}/assign", s.assignIssue)
	mux.HandleFunc("POST /api/v1/issues/{id}/escalate", s.escalateIssue)
	mux.HandleFunc("POST /api/v1/issues/{id}/priority", s.setIssuePriority)
	mux.HandleFunc("POST /api/v1/issues/{id}/images", s.addIssueImage)
	mux.HandleFunc("GET /api/v1/issues/{id}/activities", s.listIssueActivities)

	mux.HandleFunc("GET /api/v1/metrics", s.overviewMetrics)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Actor-Id, X-Actor-Name, X-Actor-Role")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLifecycleError maps the error taxonomy to HTTP statuses:
// not-found 404, invalid transition 409, unauthorized 403, validation 400.
func writeLifecycleError(w http.ResponseWriter, err error) {
	var itErr *lifecycle.InvalidTransitionError
	var uErr *lifecycle.UnauthorizedError
	var vErr *lifecycle.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &itErr):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &uErr):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// actorFromRequest builds the acting identity from request headers.
func actorFromRequest(r *http.Request) (models.Actor, error) {
	actor := models.Actor{
		ID:   r.Header.Get("X-Actor-Id"),
		Name: r.Header.Get("X-Actor-Name"),
		Role: models.Role(r.Header.Get("X-Actor-Role")),
	}
	if actor.ID == "" {
		return models.Actor{}, fmt.Errorf("X-Actor-Id header is required")
	}
	if !models.ValidRole(actor.Role) {
		return models.Actor{}, fmt.Errorf("X-Actor-Role header must be one of tenant, manager, owner, admin")
	}
	return actor, nil
}

// patchString applies a string value from a JSON patch map to the target if the key is present and non-empty.
func patchString(patch map[string]any, key string, target *string) {
	if v, ok := patch[key]; ok {
		if str, ok := v.(string); ok && str != "" {
			*target = str
		}
	}
}

// --- Properties ---

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := s.store.ListProperties(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	property, err := s.store.GetProperty(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request) {
	var p models.Property
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateProperty(r.Context(), &p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProperty(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.GetProperty(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Selectively merge only keys present in the patch with non-empty values.
	// Empty strings are treated as "not provided" to avoid wiping existing data.
	patchString(patch, "name", &existing.Name)
	patchString(patch, "address", &existing.Address)
	patchString(patch, "manager_name", &existing.ManagerName)
	patchString(patch, "owner_name", &existing.OwnerName)
	patchString(patch, "notes", &existing.Notes)
	if v, ok := patch["units"]; ok {
		if n, ok := v.(float64); ok && n > 0 {
			existing.Units = int(n)
		}
	}

	if err := s.store.UpdateProperty(r.Context(), existing); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) deleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProperty(r.Context(), r.PathValue("id")); err != nil {
		writeLifecycleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPropertyIssues(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter := issueFilterFromQuery(r)
	filter.PropertyID = r.PathValue("id")
	issues, err := s.manager.List(r.Context(), actor, filter)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) propertyMetrics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.store.GetProperty(r.Context(), id); err != nil {
		writeLifecycleError(w, err)
		return
	}
	metrics, err := s.manager.ComputeMetrics(r.Context(), id)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) propertyHealth(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	property, err := s.store.GetProperty(r.Context(), id)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	issues, err := s.store.ListIssues(r.Context(), store.IssueListFilter{PropertyID: id, ShowClosed: true})
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	score := s.scorer.Compute(issues, time.Now().UTC())
	writeJSON(w, http.StatusOK, map[string]any{
		"property": property,
		"health":   score,
	})
}

// --- Vendors ---

func (s *Server) listVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.store.ListVendors(r.Context(), r.URL.Query().Get("trade"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, vendors)
}

func (s *Server) getVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := s.store.GetVendor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, vendor)
}

func (s *Server) createVendor(w http.ResponseWriter, r *http.Request) {
	var v models.Vendor
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if v.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.CreateVendor(r.Context(), &v); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) updateVendor(w http.ResponseWriter, r *http.Request) {
	existing, err := s.store.GetVendor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	patchString(patch, "name", &existing.Name)
	patchString(patch, "trade", &existing.Trade)
	patchString(patch, "phone", &existing.Phone)
	patchString(patch, "email", &existing.Email)
	patchString(patch, "notes", &existing.Notes)
	if v, ok := patch["hourly_rate"]; ok {
		if rate, ok := v.(float64); ok {
			existing.HourlyRate = &rate
		}
	}

	if err := s.store.UpdateVendor(r.Context(), existing); err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) deleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteVendor(r.Context(), r.PathValue("id")); err != nil {
		writeLifecycleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Issues ---

func issueFilterFromQuery(r *http.Request) store.IssueListFilter {
	q := r.URL.Query()
	filter := store.IssueListFilter{
		PropertyID: q.Get("property_id"),
		ReporterID: q.Get("reporter_id"),
		AssigneeID: q.Get("assignee_id"),
	}
	for _, st := range splitCSV(q.Get("status")) {
		filter.Statuses = append(filter.Statuses, models.IssueStatus(st))
	}
	for _, p := range splitCSV(q.Get("priority")) {
		filter.Priorities = append(filter.Priorities, models.IssuePriority(p))
	}
	for _, c := range splitCSV(q.Get("category")) {
		filter.Categories = append(filter.Categories, models.IssueCategory(c))
	}
	if v := q.Get("show_closed"); v != "" {
		filter.ShowClosed, _ = strconv.ParseBool(v)
	}
	return filter
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issues, err := s.manager.List(r.Context(), actor, issueFilterFromQuery(r))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		PropertyID  string `json:"property_id"`
		Unit        string `json:"unit"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Category    string `json:"category"`
		Priority    string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	issue, err := s.manager.Create(r.Context(), actor, lifecycle.CreateInput{
		PropertyID:  body.PropertyID,
		Unit:        body.Unit,
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		Category:    models.IssueCategory(body.Category),
		Priority:    models.IssuePriority(body.Priority),
	})
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issue, err := s.manager.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) updateIssue(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Title         *string           `json:"title"`
		Description   *string           `json:"description"`
		Location      *string           `json:"location"`
		Unit          *string           `json:"unit"`
		EstimatedCost *float64          `json:"estimated_cost"`
		ActualCost    *float64          `json:"actual_cost"`
		Payer         *models.CostPayer `json:"payer"`
		CostNotes     *string           `json:"cost_notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	issue, err := s.manager.Update(r.Context(), actor, r.PathValue("id"), lifecycle.UpdateInput{
		Title:         body.Title,
		Description:   body.Description,
		Location:      body.Location,
		Unit:          body.Unit,
		EstimatedCost: body.EstimatedCost,
		ActualCost:    body.ActualCost,
		Payer:         body.Payer,
		CostNotes:     body.CostNotes,
	})
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) transitionIssue(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	issue, err := s.manager.Transition(r.Context(), actor, r.PathValue("id"), models.IssueStatus(body.Status), body.Notes)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) assignIssue(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		AssigneeID    string     `json:"assignee_id"`
		AssigneeName  string     `json:"assignee_name"`
		AssigneeType  string     `json:"assignee_type"`
		ScheduledDate *time.Time `json:"scheduled_date"`
		TimeSlot      string     `json:"time_slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	issue, err := s.manager.Assign(r.Context(), actor, r.PathValue("id"), lifecycle.AssignInput{
		AssigneeID:    body.AssigneeID,
		AssigneeName:  body.AssigneeName,
		AssigneeType:  models.AssigneeType(body.AssigneeType),
		ScheduledDate: body.ScheduledDate,
		TimeSlot:      body.TimeSlot,
	})
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) escalateIssue(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	issue, err := s.manager.Escalate(r.Context(), actor, r.PathValue("id"), body.Reason)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) setIssuePriority(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	issue, err := s.manager.SetPriority(r.Context(), actor, r.PathValue("id"), models.IssuePriority(body.Priority))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) addIssueImage(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		URL     string `json:"url"`
		Tag     string `json:"tag"`
		Caption string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	issue, err := s.manager.AddImage(r.Context(), actor, r.PathValue("id"), lifecycle.ImageInput{
		URL:     body.URL,
		Tag:     models.ImageTag(body.Tag),
		Caption: body.Caption,
	})
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) listIssueActivities(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issue, err := s.manager.Get(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue.Activities)
}

func (s *Server) attentionIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := s.manager.Attention(r.Context())
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	if issues == nil {
		issues = []*models.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) overviewMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.manager.ComputeMetrics(r.Context(), "")
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// --- Intake ---

func (s *Server) intakeIssues(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		writeError(w, http.StatusServiceUnavailable, "LLM not configured (set ANTHROPIC_API_KEY)")
		return
	}

	actor, err := actorFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		PropertyID string `json:"property_id"`
		Unit       string `json:"unit"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	extracted, err := s.llm.ExtractRequests(r.Context(), body.Text, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("LLM extraction failed: %v", err))
		return
	}

	var created []*models.Issue
	for _, req := range extracted {
		unit := req.Unit
		if unit == "" {
			unit = body.Unit
		}
		issue, err := s.manager.Create(r.Context(), actor, lifecycle.CreateInput{
			PropertyID:  body.PropertyID,
			Unit:        unit,
			Title:       req.Title,
			Description: req.Description,
			Location:    req.Location,
			Category:    models.IssueCategory(req.Category),
			Priority:    models.IssuePriority(req.Priority),
		})
		if err != nil {
			writeLifecycleError(w, err)
			return
		}
		created = append(created, issue)
	}
	writeJSON(w, http.StatusCreated, created)
}
