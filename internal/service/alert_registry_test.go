package service

import (
	"context"
	"testing"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAlertService(t *testing.T) AlertService {
	t.Helper()
	db := newTestDB(t)
	return NewAlertService(newTestConfig(), logger.NewNop(), repository.NewAlertRepository(db), repository.NewUnitOfWork(db))
}

func TestAlertService_Check(t *testing.T) {
	ctx := context.Background()
	s := newTestAlertService(t)

	above, err := s.Add(ctx, 1, dto.CreateAlertRequest{Symbol: "aapl", Kind: "price", Comparator: "above", Threshold: 200})
	require.NoError(t, err)
	below, err := s.Add(ctx, 1, dto.CreateAlertRequest{Symbol: "AAPL", Kind: "price", Comparator: "below", Threshold: 100})
	require.NoError(t, err)
	volume, err := s.Add(ctx, 1, dto.CreateAlertRequest{Symbol: "AAPL", Kind: "volume", Comparator: "above", Threshold: 10})
	require.NoError(t, err)
	untouched, err := s.Add(ctx, 1, dto.CreateAlertRequest{Symbol: "TSLA", Kind: "price", Comparator: "above", Threshold: 1})
	require.NoError(t, err)

	// exactly at the threshold does not trigger
	triggered, err := s.Check(ctx, map[string]float64{"AAPL": 200}, model.AlertKindPrice)
	require.NoError(t, err)
	assert.Empty(t, triggered)

	triggered, err = s.Check(ctx, map[string]float64{"aapl": 201}, model.AlertKindPrice)
	require.NoError(t, err)
	require.Len(t, triggered, 1)
	assert.Equal(t, above, triggered[0].ID)
	assert.True(t, triggered[0].TriggeredValue.Valid)
	assert.Equal(t, 201.0, triggered[0].TriggeredValue.Float64)

	// a triggered alert is latched
	triggered, err = s.Check(ctx, map[string]float64{"AAPL": 300}, model.AlertKindPrice)
	require.NoError(t, err)
	assert.Empty(t, triggered)

	alerts, err := s.List(ctx, 1, "")
	require.NoError(t, err)
	byID := map[string]model.Alert{}
	for _, a := range alerts {
		byID[a.ID] = a
	}
	assert.True(t, byID[above].Triggered)
	assert.Equal(t, 201.0, byID[above].TriggeredValue.Float64)
	assert.False(t, byID[below].Triggered)
	assert.True(t, byID[below].LastChecked.Valid)
	assert.False(t, byID[volume].LastChecked.Valid)
	assert.False(t, byID[untouched].LastChecked.Valid)
}

func TestAlertService_CheckAllKinds(t *testing.T) {
	ctx := context.Background()
	s := newTestAlertService(t)

	_, err := s.Add(ctx, 1, dto.CreateAlertRequest{Symbol: "AAPL", Kind: "technical", Comparator: "below", Threshold: -5})
	require.NoError(t, err)

	triggered, err := s.Check(ctx, map[string]float64{"AAPL": -6})
	require.NoError(t, err)
	assert.Len(t, triggered, 1)

	triggered, err = s.Check(ctx, map[string]float64{})
	require.NoError(t, err)
	assert.Empty(t, triggered)
}

func TestAlertService_CheckDuplicateSymbols(t *testing.T) {
	ctx := context.Background()
	s := newTestAlertService(t)

	_, err := s.Add(ctx, 1, dto.CreateAlertRequest{Symbol: "AAPL", Kind: "price", Comparator: "above", Threshold: 150})
	require.NoError(t, err)

	triggered, err := s.Check(ctx, map[string]float64{"aapl": 100, " AAPL": 200})
	assert.ErrorIs(t, err, dto.ErrInvalidInput)
	assert.Nil(t, triggered)

	alerts, err := s.List(ctx, 1, "AAPL")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].Triggered)
	assert.False(t, alerts[0].LastChecked.Valid)
}

func TestAlertService_Remove(t *testing.T) {
	ctx := context.Background()
	s := newTestAlertService(t)

	id, err := s.Add(ctx, 1, dto.CreateAlertRequest{Symbol: "MSFT", Kind: "price", Comparator: "above", Threshold: 500})
	require.NoError(t, err)

	removed, err := s.Remove(ctx, 2, id)
	require.NoError(t, err)
	assert.False(t, removed, "other users cannot remove the alert")

	removed, err = s.Remove(ctx, 1, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove(ctx, 1, id)
	require.NoError(t, err)
	assert.False(t, removed)

	symbols, err := s.PendingSymbols(ctx)
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestAlertService_Add_InvalidSymbol(t *testing.T) {
	s := newTestAlertService(t)
	_, err := s.Add(context.Background(), 1, dto.CreateAlertRequest{Symbol: "  ", Kind: "price", Comparator: "above"})
	assert.ErrorIs(t, err, dto.ErrInvalidSymbol)
}
