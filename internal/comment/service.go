package comment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

type Service struct {
	repo     Repository
	idGen    crypto.IDGenerator
	validate *validator.Validate
}

func NewService(repo Repository, idGen crypto.IDGenerator) *Service {
	return &Service{
		repo:     repo,
		idGen:    idGen,
		validate: validator.New(),
	}
}

// Create accepts comments from both known users and anonymous visitors. An
// authenticated identity takes precedence over the submitted display name.
func (s *Service) Create(ctx context.Context, identity *auth.Identity, reportID string, input CreateInput) (*Comment, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, commonerrors.ErrInvalidInput.WithCause(err)
	}

	c := &Comment{
		ID:        s.idGen.NewID(),
		ReportID:  reportID,
		Name:      input.Name,
		Body:      input.Body,
		CreatedAt: time.Now(),
	}
	if identity != nil {
		c.UserID = identity.UserID
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) List(ctx context.Context, reportID string, limit, offset int) ([]Comment, int64, error) {
	if limit <= 0 {
		limit = constants.DefaultListLimit
	}
	if limit > constants.MaxListLimit {
		limit = constants.MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.ListByReport(ctx, reportID, limit, offset)
}

// Delete removes a comment. Admins may delete any comment; other users only
// their own. Anonymous comments have no owner and are admin-only.
func (s *Service) Delete(ctx context.Context, identity *auth.Identity, id string) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if identity.Role != user.RoleAdmin && (c.UserID == "" || c.UserID != identity.UserID) {
		return commonerrors.ErrForbidden
	}

	return s.repo.Delete(ctx, id)
}
