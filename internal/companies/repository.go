package companies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookd/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrCompanyNotFound = apperrors.NotFound("company")

type Repository interface {
	Create(ctx context.Context, company *Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
	GetByOrganiser(ctx context.Context, organiserID uuid.UUID) (*Company, error)
	List(ctx context.Context) ([]Company, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, company *Company) error {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		if apperrors.IsUniqueViolation(err) {
			return fmt.Errorf("%w: company already registered", apperrors.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *repository) first(ctx context.Context, query interface{}, args ...interface{}) (*Company, error) {
	var company Company
	if err := r.db.WithContext(ctx).Where(query, args...).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return &company, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) GetByOrganiser(ctx context.Context, organiserID uuid.UUID) (*Company, error) {
	return r.first(ctx, "organiser_id = ?", organiserID)
}

func (r *repository) List(ctx context.Context) ([]Company, error) {
	var companies []Company
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

func (r *repository) SetVerified(ctx context.Context, id uuid.UUID, verified bool, at time.Time) error {
	updates := map[string]interface{}{"verified": verified, "verified_at": nil}
	if verified {
		updates["verified_at"] = at
	}
	result := r.db.WithContext(ctx).Model(&Company{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update company: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCompanyNotFound
	}
	return nil
}
