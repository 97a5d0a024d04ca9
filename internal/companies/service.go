package companies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/middleware"
	"bookd/internal/users"
	"bookd/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	Register(ctx context.Context, caller middleware.Principal, req RegisterCompanyRequest) (*CompanyResponse, error)
	GetMine(ctx context.Context, caller middleware.Principal) (*CompanyResponse, error)
	List(ctx context.Context) ([]CompanyResponse, error)
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*CompanyResponse, error)

	// IsVerifiedOrganiser gates event creation
	IsVerifiedOrganiser(ctx context.Context, userID uuid.UUID) (bool, error)
}

type service struct {
	repo   Repository
	logger *logger.Logger
}

func NewService(repo Repository) Service {
	return &service{
		repo:   repo,
		logger: logger.GetDefault().WithComponent("companies"),
	}
}

func (s *service) Register(ctx context.Context, caller middleware.Principal, req RegisterCompanyRequest) (*CompanyResponse, error) {
	if caller.Role != users.RoleOrganiser {
		return nil, fmt.Errorf("%w: only organisers can register a company", apperrors.ErrForbidden)
	}

	company := &Company{
		OrganiserID:   caller.ID,
		BusinessID:    strings.TrimSpace(req.BusinessID),
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		GSTNumber:     strings.ToUpper(strings.TrimSpace(req.GSTNumber)),
		AadharNumber:  strings.TrimSpace(req.AadharNumber),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		IFSCCode:      strings.ToUpper(strings.TrimSpace(req.IFSCCode)),
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "company registered", "company_id", company.ID.String(), "organiser_id", caller.ID.String())
	return company.ToResponse(), nil
}

func (s *service) GetMine(ctx context.Context, caller middleware.Principal) (*CompanyResponse, error) {
	company, err := s.repo.GetByOrganiser(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return company.ToResponse(), nil
}

func (s *service) List(ctx context.Context) ([]CompanyResponse, error) {
	companies, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		out = append(out, *companies[i].ToResponse())
	}
	return out, nil
}

func (s *service) SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*CompanyResponse, error) {
	if err := s.repo.SetVerified(ctx, id, verified, time.Now().UTC()); err != nil {
		return nil, err
	}
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "company verification changed", "company_id", id.String(), "verified", verified)
	return company.ToResponse(), nil
}

func (s *service) IsVerifiedOrganiser(ctx context.Context, userID uuid.UUID) (bool, error) {
	company, err := s.repo.GetByOrganiser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return company.Verified, nil
}
