package strategy

import (
	"context"
	"errors"
	"sync"
	"testing"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAlertChecker struct {
	mu       sync.Mutex
	symbols  []string
	checked  map[model.AlertKind]map[string]float64
	triggers map[model.AlertKind][]model.Alert
	err      error
}

func (f *fakeAlertChecker) PendingSymbols(ctx context.Context) ([]string, error) {
	return f.symbols, f.err
}

func (f *fakeAlertChecker) Check(ctx context.Context, values map[string]float64, kinds ...model.AlertKind) ([]model.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checked == nil {
		f.checked = map[model.AlertKind]map[string]float64{}
	}
	f.checked[kinds[0]] = values
	return f.triggers[kinds[0]], nil
}

type fakeQuotes map[string]*dto.Quote

func (f fakeQuotes) GetQuote(ctx context.Context, symbol string) (*dto.Quote, error) {
	q, ok := f[symbol]
	if !ok {
		return nil, dto.ErrInvalidSymbol
	}
	return q, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
	err      error
}

func (f *fakeNotifier) NotifyAlert(ctx context.Context, alert model.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, alert.ID)
	return f.err
}

type fakePriceCache map[string]float64

func (f fakePriceCache) CacheLastPrice(symbol string, price float64) { f[symbol] = price }

func TestAlertCheckStrategy_Execute(t *testing.T) {
	checker := &fakeAlertChecker{
		symbols: []string{"AAPL", "TSLA", "NOPE"},
		triggers: map[model.AlertKind][]model.Alert{
			model.AlertKindPrice: {{ID: "a1", Symbol: "AAPL"}},
		},
	}
	quotes := fakeQuotes{
		"AAPL": {Symbol: "AAPL", Price: 201, Volume: 5000, ChangePercent: 1.5},
		"TSLA": {Symbol: "TSLA", Price: 250, Volume: 800, ChangePercent: -2},
	}
	notifier := &fakeNotifier{}
	prices := fakePriceCache{}

	s := NewAlertCheckStrategy(&config.Config{}, logger.NewNop(), checker, quotes, notifier, prices)
	result, err := s.Execute(context.Background(), &model.Job{ID: 1, Payload: []byte(`{"concurrency":2}`)})
	require.NoError(t, err)

	assert.Equal(t, int32(JOB_EXIT_CODE_PARTIAL_SUCCESS), result.ExitCode)
	assert.Contains(t, result.Output, `"symbol":"NOPE"`)
	assert.Contains(t, result.Output, `"alert_id":"a1"`)
	assert.Equal(t, []string{"a1"}, notifier.notified)
	assert.Equal(t, fakePriceCache{"AAPL": 201, "TSLA": 250}, prices)

	assert.Equal(t, map[string]float64{"AAPL": 201, "TSLA": 250}, checker.checked[model.AlertKindPrice])
	assert.Equal(t, map[string]float64{"AAPL": 5000, "TSLA": 800}, checker.checked[model.AlertKindVolume])
	assert.Equal(t, map[string]float64{"AAPL": 1.5, "TSLA": -2}, checker.checked[model.AlertKindTechnical])
}

func TestAlertCheckStrategy_Execute_NoPending(t *testing.T) {
	s := NewAlertCheckStrategy(&config.Config{}, logger.NewNop(), &fakeAlertChecker{}, fakeQuotes{}, &fakeNotifier{}, fakePriceCache{})
	result, err := s.Execute(context.Background(), &model.Job{})
	require.NoError(t, err)
	assert.Equal(t, int32(JOB_EXIT_CODE_SKIPPED), result.ExitCode)
}

func TestAlertCheckStrategy_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		checker *fakeAlertChecker
		payload string
	}{
		{name: "invalid payload", checker: &fakeAlertChecker{}, payload: `{`},
		{name: "pending symbols failure", checker: &fakeAlertChecker{err: errors.New("db down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAlertCheckStrategy(&config.Config{}, logger.NewNop(), tt.checker, fakeQuotes{}, &fakeNotifier{}, fakePriceCache{})
			result, err := s.Execute(context.Background(), &model.Job{Payload: []byte(tt.payload)})
			assert.Error(t, err)
			assert.Equal(t, int32(JOB_EXIT_CODE_FAILED), result.ExitCode)
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, int32(JOB_EXIT_CODE_SKIPPED), exitCodeFor(0, 0))
	assert.Equal(t, int32(JOB_EXIT_CODE_SUCCESS), exitCodeFor(3, 0))
	assert.Equal(t, int32(JOB_EXIT_CODE_PARTIAL_SUCCESS), exitCodeFor(3, 1))
	assert.Equal(t, int32(JOB_EXIT_CODE_FAILED), exitCodeFor(3, 3))
}
