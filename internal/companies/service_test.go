package companies

import (
	"context"
	"testing"

	"bookd/internal/shared/apperrors"
	"bookd/internal/shared/database/dbtest"
	"bookd/internal/shared/middleware"
	"bookd/internal/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRequest(businessID, gst string) RegisterCompanyRequest {
	return RegisterCompanyRequest{
		BusinessID:    businessID,
		PhoneNumber:   "+919800000000",
		GSTNumber:     gst,
		AadharNumber:  "123412341234",
		AccountNumber: "000111222333",
		IFSCCode:      "hdfc0001234",
	}
}

func TestRegisterAndVerify(t *testing.T) {
	svc := NewService(NewRepository(dbtest.Open(t, &Company{})))
	ctx := context.Background()
	organiser := middleware.Principal{ID: uuid.New(), Role: users.RoleOrganiser}

	verified, err := svc.IsVerifiedOrganiser(ctx, organiser.ID)
	require.NoError(t, err)
	assert.False(t, verified)

	company, err := svc.Register(ctx, organiser, registerRequest("BIZ-1", "27aapfu0939f1zv"))
	require.NoError(t, err)
	assert.False(t, company.Verified)
	assert.Equal(t, "27AAPFU0939F1ZV", company.GSTNumber)
	assert.Equal(t, "HDFC0001234", company.IFSCCode)
	assert.Equal(t, "********1234", company.AadharNumber)
	assert.Equal(t, "********2333", company.AccountNumber)

	verified, err = svc.IsVerifiedOrganiser(ctx, organiser.ID)
	require.NoError(t, err)
	assert.False(t, verified)

	updated, err := svc.SetVerified(ctx, uuid.MustParse(company.ID), true)
	require.NoError(t, err)
	assert.True(t, updated.Verified)
	assert.NotNil(t, updated.VerifiedAt)

	verified, err = svc.IsVerifiedOrganiser(ctx, organiser.ID)
	require.NoError(t, err)
	assert.True(t, verified)

	mine, err := svc.GetMine(ctx, organiser)
	require.NoError(t, err)
	assert.Equal(t, company.ID, mine.ID)

	revoked, err := svc.SetVerified(ctx, uuid.MustParse(company.ID), false)
	require.NoError(t, err)
	assert.False(t, revoked.Verified)
	assert.Nil(t, revoked.VerifiedAt)
}

func TestRegisterRules(t *testing.T) {
	svc := NewService(NewRepository(dbtest.Open(t, &Company{})))
	ctx := context.Background()
	organiser := middleware.Principal{ID: uuid.New(), Role: users.RoleOrganiser}

	_, err := svc.Register(ctx, middleware.Principal{ID: uuid.New(), Role: users.RoleAudience}, registerRequest("BIZ-2", "27AAPFU0939F1ZA"))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Register(ctx, organiser, registerRequest("BIZ-2", "27AAPFU0939F1ZA"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, organiser, registerRequest("BIZ-3", "27AAPFU0939F1ZB"))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	other := middleware.Principal{ID: uuid.New(), Role: users.RoleOrganiser}
	_, err = svc.Register(ctx, other, registerRequest("BIZ-2", "27AAPFU0939F1ZC"))
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	_, err = svc.GetMine(ctx, other)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.SetVerified(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
