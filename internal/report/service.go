package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/observability/metrics"
	"github.com/AlibekovAA/civic-reports-backend/internal/storage"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

var ErrNotOwner = commonerrors.NewDomainError(
	"NOT_REPORT_OWNER",
	commonerrors.CategoryForbidden,
	http.StatusForbidden,
	"only the report owner or an admin may modify this report",
)

var ErrPhotoTooLarge = commonerrors.NewDomainError(
	"PHOTO_TOO_LARGE",
	commonerrors.CategoryValidation,
	http.StatusBadRequest,
	"photo exceeds the maximum allowed size",
)

type CreateInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	Lng         float64  `json:"lng" validate:"gte=-180,lte=180"`
	Lat         float64  `json:"lat" validate:"gte=-90,lte=90"`
	Categories  []string `json:"categories" validate:"max=10,dive,required,max=64"`
}

type UpdateInput struct {
	Title       *string   `json:"title" validate:"omitempty,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=5000"`
	Lng         *float64  `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Lat         *float64  `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Categories  *[]string `json:"categories" validate:"omitempty,max=10,dive,required,max=64"`
}

type TriageInput struct {
	Status   string `json:"status" validate:"omitempty,oneof=open triaged inspected resolved rejected"`
	Priority string `json:"priority" validate:"omitempty,oneof=low medium high"`
}

type Service struct {
	repo     Repository
	files    storage.FileStore
	idGen    crypto.IDGenerator
	validate *validator.Validate
	log      *logger.Logger
}

func NewService(repo Repository, files storage.FileStore, idGen crypto.IDGenerator, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		files:    files,
		idGen:    idGen,
		validate: validator.New(),
		log:      log,
	}
}

func (s *Service) Create(ctx context.Context, identity *auth.Identity, input CreateInput) (*Report, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, commonerrors.ErrInvalidInput.WithCause(err)
	}

	rep := &Report{
		ID:          s.idGen.NewID(),
		Title:       input.Title,
		Description: input.Description,
		ReporterID:  identity.UserID,
		Lng:         input.Lng,
		Lat:         input.Lat,
		Categories:  input.Categories,
		Status:      StatusOpen,
		Priority:    PriorityMedium,
	}
	if rep.Categories == nil {
		rep.Categories = []string{}
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}

	metrics.ReportsCreated.Inc()
	s.audit(ctx, rep.ID, identity.UserID, "created")

	return s.Get(ctx, rep.ID)
}

func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	rep, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	photos, err := s.repo.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}
	rep.Photos = photos

	return rep, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Report, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = constants.DefaultListLimit
	}
	if filter.Limit > constants.MaxListLimit {
		filter.Limit = constants.MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.List(ctx, filter)
}

func (s *Service) Update(ctx context.Context, identity *auth.Identity, id string, input UpdateInput) (*Report, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, commonerrors.ErrInvalidInput.WithCause(err)
	}

	rep, err := s.authorize(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		rep.Title = *input.Title
	}
	if input.Description != nil {
		rep.Description = *input.Description
	}
	if input.Lng != nil {
		rep.Lng = *input.Lng
	}
	if input.Lat != nil {
		rep.Lat = *input.Lat
	}
	if input.Categories != nil {
		rep.Categories = *input.Categories
	}

	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}

	s.audit(ctx, id, identity.UserID, "updated")

	return s.Get(ctx, id)
}

// Triage is the status/priority transition for admins and inspectors.
// Authorization happens at the routing layer via the role-gated middleware.
func (s *Service) Triage(ctx context.Context, identity *auth.Identity, id string, input TriageInput) (*Report, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, commonerrors.ErrInvalidInput.WithCause(err)
	}

	rep, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if input.Status != "" {
		rep.Status = input.Status
	}
	if input.Priority != "" {
		rep.Priority = input.Priority
	}

	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}

	s.audit(ctx, id, identity.UserID, fmt.Sprintf("triaged status=%s priority=%s", rep.Status, rep.Priority))

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	if _, err := s.authorize(ctx, identity, id); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.audit(ctx, id, identity.UserID, "deleted")

	return nil
}

// Purge removes the report row and its stored photo bytes. Admin only,
// enforced at the routing layer.
func (s *Service) Purge(ctx context.Context, identity *auth.Identity, id string) error {
	photos, err := s.repo.ListPhotos(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range photos {
		if err := s.files.Delete(ctx, p.Key); err != nil {
			s.log.WithFields(ctx, logger.Fields{
				"report_id": id,
				"key":       p.Key,
			}).Warnf("failed to delete photo bytes during purge: %v", err)
		}
	}

	return s.repo.HardDelete(ctx, id)
}

func (s *Service) AttachPhoto(ctx context.Context, identity *auth.Identity, reportID, filename, mime string, data []byte) (*Photo, error) {
	if int64(len(data)) > constants.MaxPhotoSizeBytes {
		return nil, ErrPhotoTooLarge
	}

	if _, err := s.authorize(ctx, identity, reportID); err != nil {
		return nil, err
	}

	photoID := s.idGen.NewID()
	key := fmt.Sprintf("reports/%s/%s%s", reportID, photoID, filepath.Ext(filename))

	stored, err := s.files.Put(ctx, key, mime, data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	photo := &Photo{
		ID:         photoID,
		ReportID:   reportID,
		Storage:    s.files.Backend(),
		Key:        stored.Key,
		Mime:       mime,
		Size:       stored.Size,
		UploadedAt: &now,
	}

	if err := s.repo.AddPhoto(ctx, photo); err != nil {
		return nil, err
	}

	s.audit(ctx, reportID, identity.UserID, "photo_added")

	return photo, nil
}

// PhotoContent resolves a photo to either a redirect URL or a byte stream,
// depending on the backend.
func (s *Service) PhotoContent(ctx context.Context, reportID, photoID string) (string, io.ReadCloser, string, error) {
	photo, err := s.repo.FindPhoto(ctx, reportID, photoID)
	if err != nil {
		return "", nil, "", err
	}

	url, err := s.files.URL(ctx, photo.Key)
	if err != nil {
		return "", nil, "", err
	}
	if url != "" {
		return url, nil, "", nil
	}

	reader, mime, err := s.files.Open(ctx, photo.Key)
	if err != nil {
		return "", nil, "", err
	}
	if mime == "" {
		mime = photo.Mime
	}

	return "", reader, mime, nil
}

func (s *Service) RemovePhoto(ctx context.Context, identity *auth.Identity, reportID, photoID string) error {
	if _, err := s.authorize(ctx, identity, reportID); err != nil {
		return err
	}

	photo, err := s.repo.FindPhoto(ctx, reportID, photoID)
	if err != nil {
		return err
	}

	if err := s.repo.DeletePhoto(ctx, reportID, photoID); err != nil {
		return err
	}

	if err := s.files.Delete(ctx, photo.Key); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"report_id": reportID,
			"key":       photo.Key,
		}).Warnf("failed to delete photo bytes: %v", err)
	}

	s.audit(ctx, reportID, identity.UserID, "photo_removed")

	return nil
}

func (s *Service) Audit(ctx context.Context, reportID string) ([]AuditEntry, error) {
	if _, err := s.repo.FindByID(ctx, reportID, true); err != nil {
		return nil, err
	}
	return s.repo.ListAudit(ctx, reportID)
}

// authorize loads the report and enforces the owner-or-admin rule.
func (s *Service) authorize(ctx context.Context, identity *auth.Identity, id string) (*Report, error) {
	rep, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if identity.Role != user.RoleAdmin && rep.ReporterID != identity.UserID {
		return nil, ErrNotOwner
	}

	return rep, nil
}

// audit failures are logged, never surfaced: the primary operation already
// succeeded.
func (s *Service) audit(ctx context.Context, reportID, actor, action string) {
	entry := AuditEntry{ReportID: reportID, Actor: actor, Action: action, At: time.Now()}
	if err := s.repo.AddAudit(ctx, entry); err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"report_id": reportID,
			"action":    action,
		}).Warnf("failed to record audit entry: %v", err)
	}
}
