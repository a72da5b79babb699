package repository

import (
	"context"
	"testing"
	"time"

	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepository(newTestDB(t))

	alerts := []model.Alert{
		{ID: "a1", UserID: 1, Symbol: "AAPL", Kind: model.AlertKindPrice, Comparator: model.ComparatorAbove, Threshold: 200},
		{ID: "a2", UserID: 1, Symbol: "TSLA", Kind: model.AlertKindVolume, Comparator: model.ComparatorBelow, Threshold: 1000},
		{ID: "a3", UserID: 2, Symbol: "AAPL", Kind: model.AlertKindPrice, Comparator: model.ComparatorBelow, Threshold: 100},
	}
	for i := range alerts {
		require.NoError(t, repo.Create(ctx, &alerts[i]))
	}

	t.Run("filters", func(t *testing.T) {
		got, err := repo.Get(ctx, model.GetAlertParam{UserID: utils.ToPointer(uint(1))})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = repo.Get(ctx, model.GetAlertParam{Symbols: []string{"AAPL"}, Kinds: []model.AlertKind{model.AlertKindPrice}})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		_, err = repo.Get(ctx, model.GetAlertParam{})
		assert.Error(t, err)
	})

	t.Run("pending symbols", func(t *testing.T) {
		symbols, err := repo.PendingSymbols(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"AAPL", "TSLA"}, symbols)
	})

	t.Run("trigger latches", func(t *testing.T) {
		at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.MarkTriggered(ctx, "a1", at, 201))
		require.NoError(t, repo.MarkTriggered(ctx, "a1", at.Add(time.Hour), 250))

		got, err := repo.Get(ctx, model.GetAlertParam{IDs: []string{"a1"}})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Triggered)
		assert.True(t, got[0].TriggeredAt.Time.Equal(at))
		assert.Equal(t, 201.0, got[0].TriggeredValue.Float64)
	})

	t.Run("mark checked", func(t *testing.T) {
		at := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
		require.NoError(t, repo.MarkChecked(ctx, []string{"a2"}, at))
		require.NoError(t, repo.MarkChecked(ctx, nil, at))

		got, err := repo.Get(ctx, model.GetAlertParam{IDs: []string{"a2", "a3"}})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, a := range got {
			if a.ID == "a2" {
				assert.True(t, a.LastChecked.Valid)
			} else {
				assert.False(t, a.LastChecked.Valid)
			}
		}
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		removed, err := repo.Delete(ctx, "a3")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, "a3")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}
