package comment

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	commonhttp "github.com/AlibekovAA/civic-reports-backend/internal/common/http"
)

type commentView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func toView(c *Comment) commentView {
	return commentView{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Body:      c.Body,
		CreatedAt: c.CreatedAt,
	}
}

type Handler struct {
	service     *Service
	gate        *auth.Gate
	commentRate *commonhttp.RateLimiter
}

func NewHandler(service *Service, gate *auth.Gate) *Handler {
	return &Handler{
		service:     service,
		gate:        gate,
		commentRate: commonhttp.NewRateLimiter(constants.CommentRateLimitPerMinute, constants.CommentRateLimitPerMinute),
	}
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/reports/{id}/comments", wrap(h.commentRate.Middleware(h.gate.Optional(h.handleCreate))))
	mux.HandleFunc("GET /api/reports/{id}/comments", wrap(h.handleList))
	mux.HandleFunc("DELETE /api/comments/{id}", wrap(h.gate.Require()(h.handleDelete)))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input CreateInput
	if err := commonhttp.DecodeJSON(r, &input); err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.service.Create(r.Context(), identity, r.PathValue("id"), input)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, toView(c))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	comments, total, err := h.service.List(r.Context(), r.PathValue("id"), limit, offset)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	views := make([]commentView, 0, len(comments))
	for i := range comments {
		views = append(views, toView(&comments[i]))
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{
		"items": views,
		"total": total,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.service.Delete(r.Context(), identity, r.PathValue("id")); err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
