package comment

import (
	"context"
	"testing"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	commonerrors "github.com/AlibekovAA/civic-reports-backend/internal/common/errors"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

type mockRepo struct {
	findByIDFn func(ctx context.Context, id string) (*Comment, error)

	created []*Comment
	deleted []string
}

func (m *mockRepo) Create(ctx context.Context, c *Comment) error {
	m.created = append(m.created, c)
	return nil
}

func (m *mockRepo) FindByID(ctx context.Context, id string) (*Comment, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, ErrCommentNotFound
}

func (m *mockRepo) ListByReport(ctx context.Context, reportID string, limit, offset int) ([]Comment, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type fixedIDGen struct{}

func (fixedIDGen) NewID() string { return "comment-1" }

func TestCreateRequiresBody(t *testing.T) {
	svc := NewService(&mockRepo{}, fixedIDGen{})

	_, err := svc.Create(context.Background(), nil, "r1", CreateInput{Name: "anon"})
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Category() != commonerrors.CategoryValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateAnonymous(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, fixedIDGen{})

	c, err := svc.Create(context.Background(), nil, "r1", CreateInput{Name: "visitor", Body: "this pothole again"})
	if err != nil {
		t.Fatal(err)
	}

	if c.UserID != "" {
		t.Error("anonymous comment must not carry a user id")
	}
	if c.Name != "visitor" {
		t.Errorf("name = %q", c.Name)
	}
	if len(repo.created) != 1 {
		t.Error("comment not persisted")
	}
}

func TestCreateAuthenticated(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, fixedIDGen{})

	identity := &auth.Identity{UserID: "u1", Role: "citizen"}
	c, err := svc.Create(context.Background(), identity, "r1", CreateInput{Body: "fixed last week"})
	if err != nil {
		t.Fatal(err)
	}

	if c.UserID != "u1" {
		t.Errorf("user id = %q", c.UserID)
	}
}

func TestListClampsPagination(t *testing.T) {
	svc := NewService(&mockRepo{}, fixedIDGen{})

	if _, _, err := svc.List(context.Background(), "r1", 100000, -5); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteOwnerOrAdmin(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*Comment, error) {
			return &Comment{ID: id, ReportID: "r1", UserID: "owner"}, nil
		},
	}
	svc := NewService(repo, fixedIDGen{})

	err := svc.Delete(context.Background(), &auth.Identity{UserID: "intruder", Role: user.RoleCitizen}, "c1")
	de, ok := commonerrors.AsDomainError(err)
	if !ok || de.Category() != commonerrors.CategoryForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("nothing must be deleted on a forbidden attempt")
	}

	if err := svc.Delete(context.Background(), &auth.Identity{UserID: "owner", Role: user.RoleCitizen}, "c1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), &auth.Identity{UserID: "a1", Role: user.RoleAdmin}, "c1"); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if len(repo.deleted) != 2 {
		t.Errorf("expected 2 deletes, got %d", len(repo.deleted))
	}
}

func TestDeleteAnonymousCommentAdminOnly(t *testing.T) {
	repo := &mockRepo{
		findByIDFn: func(ctx context.Context, id string) (*Comment, error) {
			return &Comment{ID: id, ReportID: "r1", Name: "visitor"}, nil
		},
	}
	svc := NewService(repo, fixedIDGen{})

	if err := svc.Delete(context.Background(), &auth.Identity{UserID: "u1", Role: user.RoleCitizen}, "c1"); err == nil {
		t.Fatal("expected anonymous comment delete to be forbidden for citizens")
	}
	if err := svc.Delete(context.Background(), &auth.Identity{UserID: "a1", Role: user.RoleAdmin}, "c1"); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
}
