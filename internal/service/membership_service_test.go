package service

import (
	"context"
	"testing"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newTestMembershipService(t *testing.T) (MembershipService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewMembershipService(newTestConfig(), logger.NewNop(),
		repository.NewMembershipRepository(db),
		repository.NewConversionRepository(db),
		repository.NewWaitlistRepository(db),
		repository.NewUnitOfWork(db)), db
}

func TestPlans(t *testing.T) {
	got := Plans()
	require.Len(t, got, 3)
	assert.Equal(t, []string{dto.PlanBasic, dto.PlanPro, dto.PlanEnterprise}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.True(t, got[0].Price.IsZero())
	assert.Equal(t, "29.99", got[1].Price.StringFixed(2))

	// the catalogue is a copy
	got[0].Title = "changed"
	assert.Equal(t, "Básico", Plans()[0].Title)
}

func TestMembershipService_Subscribe(t *testing.T) {
	ctx := context.Background()
	s, db := newTestMembershipService(t)

	current, err := s.GetUserMembership(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, dto.PlanBasic, current.Plan.Name)

	_, err = s.Subscribe(ctx, 1, "pro")
	require.NoError(t, err)
	resp, err := s.Subscribe(ctx, 1, " Enterprise ")
	require.NoError(t, err)
	assert.Equal(t, dto.PlanEnterprise, resp.Plan.Name)

	current, err = s.GetUserMembership(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, dto.PlanEnterprise, current.Plan.Name)
	assert.Equal(t, model.MembershipStatusActive, current.Status)

	var cancelled int64
	require.NoError(t, db.Model(&model.Membership{}).Where("status = ?", model.MembershipStatusCancelled).Count(&cancelled).Error)
	assert.EqualValues(t, 1, cancelled)

	_, err = s.Subscribe(ctx, 1, "platinum")
	assert.ErrorIs(t, err, dto.ErrInvalidInput)

	metrics, err := s.ConversionMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, metrics.Days)
	assert.EqualValues(t, 2, metrics.Total)
	total, _ := metrics.TotalValue.Float64()
	avg, _ := metrics.AverageValue.Float64()
	assert.InDelta(t, 129.98, total, 0.001)
	assert.InDelta(t, 64.99, avg, 0.001)
	require.Len(t, metrics.ByEvent, 1)
	assert.Equal(t, dto.ConversionSubscription, metrics.ByEvent[0].Key)
}

func TestMembershipService_TrackConversion(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMembershipService(t)

	assert.ErrorIs(t, s.TrackConversion(ctx, dto.TrackConversionParam{Event: "  "}), dto.ErrInvalidInput)
	require.NoError(t, s.TrackConversion(ctx, dto.TrackConversionParam{
		Event:    "landing_click",
		Source:   "ads",
		Metadata: map[string]interface{}{"campaign": "spring"},
	}))

	metrics, err := s.ConversionMetrics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, metrics.Total)
	assert.True(t, metrics.AverageValue.IsZero())
	require.Len(t, metrics.BySource, 1)
	assert.Equal(t, "ads", metrics.BySource[0].Key)
}

func TestMembershipService_Waitlist(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestMembershipService(t)

	entry, err := s.JoinWaitlist(ctx, dto.JoinWaitlistRequest{Email: "Ana@Example.com", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistStatusPending, entry.Status)

	again, err := s.JoinWaitlist(ctx, dto.JoinWaitlistRequest{Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Equal(t, entry.ID, again.ID)

	pending, err := s.ListWaitlist(ctx, model.WaitlistStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	approved, err := s.ApproveWaitlist(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitlistStatusApproved, approved.Status)
	require.True(t, approved.InvitationKey.Valid)

	twice, err := s.ApproveWaitlist(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.InvitationKey.String, twice.InvitationKey.String)

	_, err = s.ApproveWaitlist(ctx, 999)
	assert.ErrorIs(t, err, dto.ErrNotFound)

	_, err = s.JoinWaitlist(ctx, dto.JoinWaitlistRequest{Email: " "})
	assert.ErrorIs(t, err, dto.ErrInvalidInput)
}

type failingConversionRepo struct {
	repository.ConversionRepository
}

func (failingConversionRepo) Create(ctx context.Context, conversion *model.Conversion, opts ...utils.DBOption) error {
	return errProvider
}

func TestMembershipService_WaitlistConversionFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	core, logs := observer.New(zapcore.WarnLevel)
	s := NewMembershipService(newTestConfig(), &logger.Logger{Logger: zap.New(core)},
		repository.NewMembershipRepository(db),
		failingConversionRepo{},
		repository.NewWaitlistRepository(db),
		repository.NewUnitOfWork(db))

	entry, err := s.JoinWaitlist(ctx, dto.JoinWaitlistRequest{Email: "bo@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)

	warnings := logs.FilterMessage("Failed to track waitlist conversion").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "bo@example.com", warnings[0].ContextMap()["email"])
}
