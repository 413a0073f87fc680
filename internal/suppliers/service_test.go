package suppliers

import (
	"context"
	"testing"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestGetBySlugRejectsMalformedSlug(t *testing.T) {
	svc, _ := NewService(&fakeSupplierRepo{})
	for _, slug := range []string{"", "UPPER", "has space", "trailing-", "-leading", "dots.are.bad"} {
		_, err := svc.GetBySlug(context.Background(), slug)
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", slug, err)
		}
	}
}

func TestGetBySlugHidesSuspendedSupplier(t *testing.T) {
	repo := &fakeSupplierRepo{
		supplier: &models.Supplier{
			ID:     uuid.New(),
			Slug:   "dead-cells",
			Status: enums.SupplierStatusSuspended,
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.GetBySlug(context.Background(), "dead-cells")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateValidatesFields(t *testing.T) {
	repo := &fakeSupplierRepo{
		supplier: &models.Supplier{
			ID:     uuid.New(),
			Name:   "Volt Cells",
			Status: enums.SupplierStatusActive,
		},
	}
	svc, _ := NewService(repo)

	empty := "  "
	_, err := svc.Update(context.Background(), repo.supplier.ID, UpdateSupplierInput{Name: &empty})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	badEmail := "not-an-email"
	_, err = svc.Update(context.Background(), repo.supplier.ID, UpdateSupplierInput{ContactEmail: &badEmail})
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	name := "Volt Cells Ltd"
	dto, err := svc.Update(context.Background(), repo.supplier.ID, UpdateSupplierInput{Name: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dto.Name != name {
		t.Fatalf("expected updated name, got %q", dto.Name)
	}
	if !repo.updated {
		t.Fatal("expected repository update")
	}
}

type fakeSupplierRepo struct {
	supplier *models.Supplier
	updated  bool
}

func (f *fakeSupplierRepo) Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error) {
	return supplier, nil
}

func (f *fakeSupplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if f.supplier == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.supplier, nil
}

func (f *fakeSupplierRepo) FindBySlug(ctx context.Context, slug string) (*models.Supplier, error) {
	if f.supplier == nil || f.supplier.Slug != slug {
		return nil, gorm.ErrRecordNotFound
	}
	return f.supplier, nil
}

func (f *fakeSupplierRepo) Update(ctx context.Context, supplier *models.Supplier) error {
	f.updated = true
	f.supplier = supplier
	return nil
}
