package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkpress/inkpress-api/internal/api/middleware"
	"github.com/inkpress/inkpress-api/internal/api/shared"
	"github.com/inkpress/inkpress-api/internal/domain"
	"github.com/inkpress/inkpress-api/internal/service"
	"github.com/inkpress/inkpress-api/internal/store"
)

// ContentHandler serves the tenant-facing content generation endpoints.
type ContentHandler struct {
	logger  *slog.Logger
	content *service.ContentService
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(log *slog.Logger, content *service.ContentService) *ContentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ContentHandler{
		logger:  log.With("component", "content_handler"),
		content: content,
	}
}

// GenerateRequest is the content generation payload.
type GenerateRequest struct {
	Topic    string   `json:"topic" validate:"required,min=1,max=500"`
	Keywords []string `json:"keywords,omitempty" validate:"omitempty,max=20,dive,min=1,max=100"`
}

// TaskListResponse wraps a task page with the pre-pagination total.
type TaskListResponse struct {
	Tasks []*domain.ContentTask `json:"tasks"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// Generate handles POST /api/content/generate. Generation runs in the
// background; the response is 202 with the task in PENDING state.
func (h *ContentHandler) Generate(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request data", err)
		return
	}

	task, err := h.content.Generate(r.Context(), tenant.ID, req.Topic, req.Keywords)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, task)
}

// ListTasks handles GET /api/content/tasks with optional status, page and
// limit query parameters.
func (h *ContentHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	filter := store.TaskListFilter{
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 20),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		parsed := domain.TaskStatus(status)
		if !parsed.IsValid() {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter", nil)
			return
		}
		filter.Status = parsed
	}

	tasks, total, err := h.content.ListTasks(r.Context(), tenant.ID, filter)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.ContentTask{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskListResponse{
		Tasks: tasks,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// GetTask handles GET /api/content/tasks/{taskID}, returning the task with
// its execution log timeline.
func (h *ContentHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}

	detail, err := h.content.GetTask(r.Context(), tenant.ID, taskID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}
	if detail.Logs == nil {
		detail.Logs = []*domain.TaskLog{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// RetryTask handles POST /api/content/tasks/{taskID}/retry.
func (h *ContentHandler) RetryTask(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	taskID, ok := h.taskID(w, r)
	if !ok {
		return
	}

	task, err := h.content.RetryTask(r.Context(), tenant.ID, taskID)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, task)
}

// tenant pulls the authenticated tenant from the context. Absence means the
// route was wired without the tenant middleware.
func (h *ContentHandler) tenant(w http.ResponseWriter, r *http.Request) (*domain.Tenant, bool) {
	tenant, ok := middleware.TenantFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "An unexpected error occurred", nil)
		return nil, false
	}
	return tenant, true
}

func (h *ContentHandler) taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID format", err)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
