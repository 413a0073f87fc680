package suppliers

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	pkgerrors "github.com/voltline/voltline-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type supplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) (*models.Supplier, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	FindBySlug(ctx context.Context, slug string) (*models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier) error
}

// Service exposes supplier profile management.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*SupplierDTO, error)
	GetBySlug(ctx context.Context, slug string) (*SupplierDTO, error)
	Update(ctx context.Context, supplierID uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error)
}

type service struct {
	repo supplierRepository
}

// NewService builds the supplier service.
func NewService(repo supplierRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("supplier repository required")
	}
	return &service{repo: repo}, nil
}

// UpdateSupplierInput holds optional profile mutations.
type UpdateSupplierInput struct {
	Name             *string
	ContactEmail     *string
	PayoutAccountRef *string
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*SupplierDTO, error) {
	supplier, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return FromModel(supplier), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*SupplierDTO, error) {
	// Slugs are stored lowercase; anything else is a malformed request,
	// not a miss.
	slug = strings.TrimSpace(slug)
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier slug")
	}
	supplier, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if supplier.Status != enums.SupplierStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return FromModel(supplier), nil
}

func (s *service) Update(ctx context.Context, supplierID uuid.UUID, input UpdateSupplierInput) (*SupplierDTO, error) {
	supplier, err := s.repo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		supplier.Name = name
	}
	if input.ContactEmail != nil {
		email := strings.TrimSpace(strings.ToLower(*input.ContactEmail))
		if email == "" || !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact email")
		}
		supplier.ContactEmail = email
	}
	if input.PayoutAccountRef != nil {
		supplier.PayoutAccountRef = input.PayoutAccountRef
	}

	if err := s.repo.Update(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update supplier")
	}
	return FromModel(supplier), nil
}
