package report

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	commonhttp "github.com/AlibekovAA/civic-reports-backend/internal/common/http"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

type photoView struct {
	ID         string     `json:"id"`
	Mime       string     `json:"mime,omitempty"`
	Size       int64      `json:"size,omitempty"`
	UploadedAt *time.Time `json:"uploadedAt,omitempty"`
}

type reportView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	ReporterID  string      `json:"reporterId,omitempty"`
	Lng         float64     `json:"lng"`
	Lat         float64     `json:"lat"`
	Categories  []string    `json:"categories"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Photos      []photoView `json:"photos,omitempty"`
}

func toView(rep *Report) reportView {
	view := reportView{
		ID:          rep.ID,
		Title:       rep.Title,
		Description: rep.Description,
		ReporterID:  rep.ReporterID,
		Lng:         rep.Lng,
		Lat:         rep.Lat,
		Categories:  rep.Categories,
		Status:      rep.Status,
		Priority:    rep.Priority,
		CreatedAt:   rep.CreatedAt,
		UpdatedAt:   rep.UpdatedAt,
	}
	if view.Categories == nil {
		view.Categories = []string{}
	}
	for _, p := range rep.Photos {
		view.Photos = append(view.Photos, photoView{ID: p.ID, Mime: p.Mime, Size: p.Size, UploadedAt: p.UploadedAt})
	}
	return view
}

type Handler struct {
	service      *Service
	gate         *auth.Gate
	downloadRate *commonhttp.RateLimiter
	log          *logger.Logger
}

func NewHandler(service *Service, gate *auth.Gate, log *logger.Logger) *Handler {
	return &Handler{
		service:      service,
		gate:         gate,
		downloadRate: commonhttp.NewRateLimiter(constants.DownloadRateLimitPerMinute, constants.DownloadRateLimitPerMinute),
		log:          log,
	}
}

func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	authed := h.gate.Require()
	admin := h.gate.Require(user.RoleAdmin)
	staff := h.gate.Require(user.RoleAdmin, user.RoleInspector)

	mux.HandleFunc("POST /api/reports", wrap(authed(h.handleCreate)))
	mux.HandleFunc("GET /api/reports", wrap(h.handleList))
	mux.HandleFunc("GET /api/reports/{id}", wrap(h.handleGet))
	mux.HandleFunc("PATCH /api/reports/{id}", wrap(authed(h.handleUpdate)))
	mux.HandleFunc("DELETE /api/reports/{id}", wrap(authed(h.handleDelete)))

	mux.HandleFunc("POST /api/reports/{id}/photos", wrap(authed(h.handleAttachPhoto)))
	mux.HandleFunc("GET /api/reports/{id}/photos/{photoID}", wrap(h.downloadRate.Middleware(h.handlePhoto)))
	mux.HandleFunc("DELETE /api/reports/{id}/photos/{photoID}", wrap(authed(h.handleRemovePhoto)))

	mux.HandleFunc("PATCH /api/admin/reports/{id}", wrap(staff(h.handleTriage)))
	mux.HandleFunc("DELETE /api/admin/reports/{id}", wrap(admin(h.handlePurge)))
	mux.HandleFunc("GET /api/admin/reports/{id}/audit", wrap(staff(h.handleAudit)))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input CreateInput
	if err := commonhttp.DecodeJSON(r, &input); err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, err := h.service.Create(r.Context(), identity, input)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, toView(rep))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	filter := ListFilter{
		Category:   q.Get("category"),
		Status:     q.Get("status"),
		Sort:       q.Get("sort"),
		Descending: q.Get("order") != "asc",
		Limit:      limit,
		Offset:     offset,
	}

	reports, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	views := make([]reportView, 0, len(reports))
	for i := range reports {
		views = append(views, toView(&reports[i]))
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{
		"items": views,
		"total": total,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toView(rep))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input UpdateInput
	if err := commonhttp.DecodeJSON(r, &input); err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, err := h.service.Update(r.Context(), identity, r.PathValue("id"), input)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toView(rep))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.service.Delete(r.Context(), identity, r.PathValue("id")); err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleTriage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	var input TriageInput
	if err := commonhttp.DecodeJSON(r, &input); err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, err := h.service.Triage(r.Context(), identity, r.PathValue("id"), input)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, toView(rep))
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.service.Purge(r.Context(), identity, r.PathValue("id")); err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Audit(r.Context(), r.PathValue("id"))
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	type auditView struct {
		Actor  string    `json:"actor"`
		Action string    `json:"action"`
		At     time.Time `json:"at"`
	}

	views := make([]auditView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditView{Actor: e.Actor, Action: e.Action, At: e.At})
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (h *Handler) handleAttachPhoto(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := r.ParseMultipartForm(constants.MaxPhotoSizeBytes); err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "missing photo field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxPhotoSizeBytes+1))
	if err != nil {
		commonhttp.WriteError(w, http.StatusBadRequest, "failed to read photo")
		return
	}

	photo, err := h.service.AttachPhoto(r.Context(), identity, r.PathValue("id"), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, photoView{ID: photo.ID, Mime: photo.Mime, Size: photo.Size, UploadedAt: photo.UploadedAt})
}

// handlePhoto redirects to a presigned URL when the backend provides one,
// otherwise streams the bytes directly.
func (h *Handler) handlePhoto(w http.ResponseWriter, r *http.Request) {
	url, reader, mime, err := h.service.PhotoContent(r.Context(), r.PathValue("id"), r.PathValue("photoID"))
	if err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	if url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	defer reader.Close()
	if mime != "" {
		w.Header().Set("Content-Type", mime)
	}
	if _, err := io.Copy(w, reader); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{"path": r.URL.Path}).Warnf("photo stream interrupted: %v", err)
	}
}

func (h *Handler) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	if err := h.service.RemovePhoto(r.Context(), identity, r.PathValue("id"), r.PathValue("photoID")); err != nil {
		commonhttp.WriteDomainError(w, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
