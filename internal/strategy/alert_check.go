package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const defaultQuoteConcurrency = 4

// AlertChecker evaluates pending alerts against observed metric values.
type AlertChecker interface {
	PendingSymbols(ctx context.Context) ([]string, error)
	Check(ctx context.Context, values map[string]float64, kinds ...model.AlertKind) ([]model.Alert, error)
}

type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*dto.Quote, error)
}

type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert model.Alert) error
}

type PriceCache interface {
	CacheLastPrice(symbol string, price float64)
}

type AlertCheckPayload struct {
	Concurrency int `json:"concurrency"`
}

type AlertCheckResult struct {
	Symbol    string `json:"symbol,omitempty"`
	AlertID   string `json:"alert_id,omitempty"`
	Triggered bool   `json:"triggered,omitempty"`
	Errors    string `json:"errors,omitempty"`
}

type AlertCheckStrategy struct {
	cfg      *config.Config
	log      *logger.Logger
	alerts   AlertChecker
	quotes   QuoteProvider
	notifier AlertNotifier
	prices   PriceCache
}

func NewAlertCheckStrategy(
	cfg *config.Config,
	log *logger.Logger,
	alerts AlertChecker,
	quotes QuoteProvider,
	notifier AlertNotifier,
	prices PriceCache,
) JobExecutionStrategy {
	return &AlertCheckStrategy{
		cfg:      cfg,
		log:      log,
		alerts:   alerts,
		quotes:   quotes,
		notifier: notifier,
		prices:   prices,
	}
}

func (s *AlertCheckStrategy) GetType() JobType {
	return JobTypeAlertCheck
}

// Execute quotes every symbol with a pending alert, evaluates each alert kind against its
// metric and notifies the owners of the alerts that triggered.
func (s *AlertCheckStrategy) Execute(ctx context.Context, job *model.Job) (JobResult, error) {
	s.log.DebugContext(ctx, "Executing alert check job", logger.IntField("job_id", int(job.ID)))

	var payload AlertCheckPayload
	if len(job.Payload) > 0 {
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			s.log.ErrorContext(ctx, "Failed to unmarshal job payload", logger.ErrorField(err), logger.IntField("job_id", int(job.ID)))
			return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to unmarshal job payload: %v", err)}, fmt.Errorf("failed to unmarshal job payload: %w", err)
		}
	}
	if payload.Concurrency <= 0 {
		payload.Concurrency = defaultQuoteConcurrency
	}

	symbols, err := s.alerts.PendingSymbols(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get pending symbols", logger.ErrorField(err))
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to get pending symbols: %v", err)}, err
	}
	if len(symbols) == 0 {
		return JobResult{ExitCode: JOB_EXIT_CODE_SKIPPED, Output: "no pending alerts"}, nil
	}

	quotes, results := s.prefetch(ctx, symbols, payload.Concurrency)
	failed := len(results)

	for symbol, quote := range quotes {
		s.prices.CacheLastPrice(symbol, quote.Price)
	}

	for kind, values := range metricValues(quotes) {
		triggered, err := s.alerts.Check(ctx, values, kind)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to check alerts", logger.ErrorField(err), logger.StringField("kind", string(kind)))
			results = append(results, AlertCheckResult{Errors: fmt.Sprintf("check %s: %v", kind, err)})
			failed++
			continue
		}

		for _, alert := range triggered {
			result := AlertCheckResult{Symbol: alert.Symbol, AlertID: alert.ID, Triggered: true}
			if err := s.notifier.NotifyAlert(ctx, alert); err != nil {
				s.log.WarnContext(ctx, "Failed to notify alert", logger.ErrorField(err), logger.StringField("alert_id", alert.ID))
				result.Errors = err.Error()
			}
			results = append(results, result)
		}
	}

	output, err := json.Marshal(results)
	if err != nil {
		return JobResult{ExitCode: JOB_EXIT_CODE_FAILED, Output: fmt.Sprintf("failed to marshal output message: %v", err)}, fmt.Errorf("failed to marshal output message: %w", err)
	}
	return JobResult{ExitCode: exitCodeFor(len(symbols), failed), Output: string(output)}, nil
}

// prefetch quotes symbols with bounded concurrency. Failed symbols are reported, not fatal.
func (s *AlertCheckStrategy) prefetch(ctx context.Context, symbols []string, limit int) (map[string]*dto.Quote, []AlertCheckResult) {
	var (
		mu     sync.Mutex
		quotes = make(map[string]*dto.Quote, len(symbols))
		failed []AlertCheckResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, symbol := range symbols {
		g.Go(func() error {
			quote, err := s.quotes.GetQuote(gctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.log.WarnContext(gctx, "Failed to get quote", logger.ErrorField(err), logger.StringField("symbol", symbol))
				failed = append(failed, AlertCheckResult{Symbol: symbol, Errors: err.Error()})
				return nil
			}
			quotes[symbol] = quote
			return nil
		})
	}
	_ = g.Wait()

	return quotes, failed
}

// metricValues builds the per-kind metric maps: price, volume and daily change percent.
func metricValues(quotes map[string]*dto.Quote) map[model.AlertKind]map[string]float64 {
	out := map[model.AlertKind]map[string]float64{
		model.AlertKindPrice:     {},
		model.AlertKindVolume:    {},
		model.AlertKindTechnical: {},
	}
	for symbol, q := range quotes {
		out[model.AlertKindPrice][symbol] = q.Price
		out[model.AlertKindVolume][symbol] = float64(q.Volume)
		out[model.AlertKindTechnical][symbol] = q.ChangePercent
	}
	return out
}
