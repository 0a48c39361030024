package category

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	commonhttp "github.com/AlibekovAA/civic-reports-backend/internal/common/http"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

type createInput struct {
	Key         string `json:"key" validate:"required,max=64"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Ord         int    `json:"ord" validate:"gte=0"`
}

type categoryView struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Ord         int    `json:"ord"`
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
	admin := h.gate.Require(user.RoleAdmin)

	mux.HandleFunc("GET /api/categories", wrap(h.handleList))
	mux.HandleFunc("POST /api/admin/categories", wrap(admin(h.handleCreate)))
	mux.HandleFunc("DELETE /api/admin/categories/{key}", wrap(admin(h.handleDelete)))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.List(r.Context())
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	views := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		views = append(views, categoryView{Key: c.Key, Title: c.Title, Description: c.Description, Ord: c.Ord})
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{"items": views})
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

	c := &Category{
		Key:         input.Key,
		Title:       input.Title,
		Description: input.Description,
		Ord:         input.Ord,
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, categoryView{Key: c.Key, Title: c.Title, Description: c.Description, Ord: c.Ord})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), r.PathValue("key")); err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
