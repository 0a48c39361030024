package contact

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/civic-reports-backend/internal/common/http"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

type createInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=200"`
	Org     string `json:"org" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type messageView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Org       string    `json:"org,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Handler struct {
	repo     Repository
	gate     *auth.Gate
	validate *validator.Validate
}

func NewHandler(repo Repository, gate *auth.Gate) *Handler {
	return &Handler{repo: repo, gate: gate, validate: validator.New()}
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/contact", wrap(h.handleCreate))
	mux.HandleFunc("GET /api/admin/contacts", wrap(h.gate.Require(user.RoleAdmin)(h.handleList)))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input createInput
	if err := commonhttp.DecodeJSON(r, &input); err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(input); err != nil {
		commonhttp.WriteDomainError(w, commonerrors.ErrInvalidInput.WithCause(err))
		return
	}

	m := &Message{
		Name:  input.Name,
		Email: input.Email,
		Org:   input.Org,
		Body:  input.Message,
	}

	if err := h.repo.Create(r.Context(), m); err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": m.ID})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = constants.DefaultListLimit
	}
	if limit > constants.MaxListLimit {
		limit = constants.MaxListLimit
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	messages, total, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{ID: m.ID, Name: m.Name, Email: m.Email, Org: m.Org, Message: m.Body, CreatedAt: m.CreatedAt})
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{
		"items": views,
		"total": total,
	})
}
