package strategy

import (
	"context"
	"errors"
	"testing"

	"finance-dashboard/config"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type fakeNewsWarmer struct {
	limit int
	count int
	err   error
}

func (f *fakeNewsWarmer) WarmNews(ctx context.Context, limit int) (int, error) {
	f.limit = limit
	return f.count, f.err
}

func TestNewsRefreshStrategy_Execute(t *testing.T) {
	tests := []struct {
		name     string
		warmer   *fakeNewsWarmer
		wantCode int32
		wantErr  bool
	}{
		{name: "warmed", warmer: &fakeNewsWarmer{count: 8}, wantCode: JOB_EXIT_CODE_SUCCESS},
		{name: "empty feed", warmer: &fakeNewsWarmer{}, wantCode: JOB_EXIT_CODE_SKIPPED},
		{name: "provider error", warmer: &fakeNewsWarmer{err: errors.New("down")}, wantCode: JOB_EXIT_CODE_FAILED, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewNewsRefreshStrategy(&config.Config{}, logger.NewNop(), tt.warmer)
			result, err := s.Execute(context.Background(), &model.Job{Payload: []byte(`{"limit":8}`)})
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.wantCode, result.ExitCode)
			assert.Equal(t, 8, tt.warmer.limit)
		})
	}
}
