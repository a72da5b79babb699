package http

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/service"
	"finance-dashboard/pkg/logger"

	"github.com/bytedance/sonic"
	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userToken  = "user-token"
	adminToken = "admin-token"
)

type fakeAuth struct {
	service.AuthService
	registered  []dto.RegisterRequest
	registerErr error
}

func (f *fakeAuth) Guard(ctx context.Context, bearer string) dto.AuthResult {
	switch strings.TrimPrefix(bearer, "Bearer ") {
	case userToken:
		return dto.AuthResult{Authenticated: true, UserID: 1, Role: model.RoleUser}
	case adminToken:
		return dto.AuthResult{Authenticated: true, UserID: 2, Role: model.RoleAdmin, IsAdmin: true}
	case "":
		return dto.AuthResult{Reason: "missing token"}
	default:
		return dto.AuthResult{Reason: "invalid token"}
	}
}

func (f *fakeAuth) Register(ctx context.Context, req dto.RegisterRequest) (*model.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, req)
	return &model.User{ID: 7, Email: req.Email, Role: model.RoleUser}, nil
}

type fakePortfolios struct {
	service.PortfolioService
	portfolios map[string]*model.Portfolio
}

func (f *fakePortfolios) GetPortfolio(ctx context.Context, userID uint, name string) (*model.Portfolio, error) {
	p, ok := f.portfolios[name]
	if !ok {
		return nil, dto.ErrNotFound
	}
	return p, nil
}

func (f *fakePortfolios) CreatePortfolio(ctx context.Context, userID uint, name string) (*model.Portfolio, error) {
	if _, ok := f.portfolios[name]; ok {
		return nil, dto.ErrDuplicatePortfolio
	}
	p := &model.Portfolio{UserID: userID, Name: name}
	f.portfolios[name] = p
	return p, nil
}

type fakeValuation struct {
	service.ValuationService
}

func (f *fakeValuation) Value(ctx context.Context, positions []model.Position) dto.PortfolioValuation {
	return dto.PortfolioValuation{Valued: len(positions)}
}

func (f *fakeValuation) Summary(valuation dto.PortfolioValuation) dto.PortfolioSummary {
	return dto.PortfolioSummary{}
}

type fakeReports struct {
	service.ReportService
}

func (f *fakeReports) Generate(ctx context.Context, userID uint, name string, withAI bool) (*dto.Report, error) {
	if name != "Main" {
		return nil, dto.ErrNotFound
	}
	return &dto.Report{Portfolio: name, Format: dto.ReportFormatMarkdown, Content: "# Informe"}, nil
}

func (f *fakeReports) RenderHTML(report *dto.Report) (*dto.Report, error) {
	return &dto.Report{Portfolio: report.Portfolio, Format: dto.ReportFormatHTML, Content: "<h1>Informe</h1>"}, nil
}

type fakeMarket struct {
	service.MarketService
	quoteErr error
}

func (f *fakeMarket) Quote(ctx context.Context, symbol string) (*dto.Quote, error) {
	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return &dto.Quote{Symbol: symbol, Price: 100}, nil
}

func (f *fakeMarket) News(ctx context.Context, limit int) ([]dto.NewsItem, error) {
	return make([]dto.NewsItem, limit), nil
}

type fakeRecommendations struct {
	service.RecommendationService
	calls int
}

func (f *fakeRecommendations) Advice(ctx context.Context, userID uint, question string) (*dto.AdviceResponse, error) {
	f.calls++
	if f.calls > 1 {
		return nil, dto.ErrRateLimited
	}
	return &dto.AdviceResponse{Answer: "Diversifica", Timestamp: time.Now()}, nil
}

type fakeScheduler struct {
	service.SchedulerService
	executed int
	ran      []uint
}

func (f *fakeScheduler) Execute(ctx context.Context) error {
	f.executed++
	return nil
}

func (f *fakeScheduler) RunJobTask(ctx context.Context, jobID uint) error {
	if jobID != 1 {
		return dto.ErrNotFound
	}
	f.ran = append(f.ran, jobID)
	return nil
}

type fakeAlerts struct {
	service.AlertService
	triggered []model.Alert
}

func (f *fakeAlerts) Check(ctx context.Context, values map[string]float64, kinds ...model.AlertKind) ([]model.Alert, error) {
	return f.triggered, nil
}

type fakeNotifications struct {
	service.NotificationService
	notified []string
}

func (f *fakeNotifications) NotifyAlert(ctx context.Context, alert model.Alert) error {
	f.notified = append(f.notified, alert.ID)
	if alert.ID == "broken" {
		return errors.New("smtp down")
	}
	return nil
}

type fakeMemberships struct {
	service.MembershipService
	approved []uint
}

func (f *fakeMemberships) ApproveWaitlist(ctx context.Context, id uint) (*model.WaitlistEntry, error) {
	f.approved = append(f.approved, id)
	return &model.WaitlistEntry{ID: id, Status: model.WaitlistStatusApproved}, nil
}

type testServer struct {
	echo            *echo.Echo
	auth            *fakeAuth
	portfolios      *fakePortfolios
	market          *fakeMarket
	recommendations *fakeRecommendations
	scheduler       *fakeScheduler
	notifications   *fakeNotifications
	memberships     *fakeMemberships
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		echo:            echo.New(),
		auth:            &fakeAuth{},
		portfolios:      &fakePortfolios{portfolios: map[string]*model.Portfolio{"Main": {ID: 1, UserID: 1, Name: "Main"}}},
		market:          &fakeMarket{},
		recommendations: &fakeRecommendations{},
		scheduler:       &fakeScheduler{},
		notifications:   &fakeNotifications{},
		memberships:     &fakeMemberships{},
	}
	services := &service.Service{
		AuthService:           ts.auth,
		PortfolioService:      ts.portfolios,
		ValuationService:      &fakeValuation{},
		ReportService:         &fakeReports{},
		MarketService:         ts.market,
		RecommendationService: ts.recommendations,
		SchedulerService:      ts.scheduler,
		AlertService:          &fakeAlerts{triggered: []model.Alert{{ID: "ok"}, {ID: "broken"}}},
		NotificationService:   ts.notifications,
		MembershipService:     ts.memberships,
	}
	cfg := &config.Config{API: config.API{RequestsPerSecond: 1000, RequestBurst: 1000}}
	NewHttpAPIHandler(context.Background(), cfg, logger.NewNop(), ts.echo, goValidator.New(), services).SetupRoutes()
	return ts
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) dto.BaseResponse {
	t.Helper()
	var resp dto.BaseResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: dto.ErrInvalidInput, want: nethttp.StatusBadRequest},
		{err: dto.ErrInvalidSymbol, want: nethttp.StatusBadRequest},
		{err: dto.ErrInvalidShares, want: nethttp.StatusBadRequest},
		{err: dto.ErrInvalidCredentials, want: nethttp.StatusUnauthorized},
		{err: dto.ErrUnauthorized, want: nethttp.StatusUnauthorized},
		{err: dto.ErrForbidden, want: nethttp.StatusForbidden},
		{err: dto.ErrNotFound, want: nethttp.StatusNotFound},
		{err: dto.ErrDuplicatePortfolio, want: nethttp.StatusConflict},
		{err: dto.ErrEmailTaken, want: nethttp.StatusConflict},
		{err: dto.ErrRateLimited, want: nethttp.StatusTooManyRequests},
		{err: errors.Join(errors.New("yahoo"), dto.ErrProviderUnavailable), want: nethttp.StatusBadGateway},
		{err: errors.New("boom"), want: nethttp.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(nethttp.MethodPost, "/api/v1/auth/register", "", `{"email":"ana@example.com","password":"secret123"}`)
	assert.Equal(t, nethttp.StatusCreated, rec.Code)
	require.Len(t, ts.auth.registered, 1)

	rec = ts.do(nethttp.MethodPost, "/api/v1/auth/register", "", `{"email":"not-an-email","password":"secret123"}`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Len(t, ts.auth.registered, 1)

	rec = ts.do(nethttp.MethodPost, "/api/v1/auth/register", "", `{"email":`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	ts.auth.registerErr = dto.ErrEmailTaken
	rec = ts.do(nethttp.MethodPost, "/api/v1/auth/register", "", `{"email":"ana@example.com","password":"secret123"}`)
	assert.Equal(t, nethttp.StatusConflict, rec.Code)
	assert.Equal(t, dto.ErrEmailTaken.Error(), decode(t, rec).Message)
}

func TestPortfolioRoutes(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{name: "no token", method: nethttp.MethodGet, path: "/api/v1/portfolios/Main", want: nethttp.StatusUnauthorized},
		{name: "bad token", method: nethttp.MethodGet, path: "/api/v1/portfolios/Main", token: "nope", want: nethttp.StatusUnauthorized},
		{name: "found", method: nethttp.MethodGet, path: "/api/v1/portfolios/Main", token: userToken, want: nethttp.StatusOK},
		{name: "missing", method: nethttp.MethodGet, path: "/api/v1/portfolios/Other", token: userToken, want: nethttp.StatusNotFound},
		{name: "duplicate", method: nethttp.MethodPost, path: "/api/v1/portfolios", token: userToken, body: `{"name":"Main"}`, want: nethttp.StatusConflict},
		{name: "create", method: nethttp.MethodPost, path: "/api/v1/portfolios", token: userToken, body: `{"name":"Growth"}`, want: nethttp.StatusCreated},
		{name: "create without name", method: nethttp.MethodPost, path: "/api/v1/portfolios", token: userToken, body: `{}`, want: nethttp.StatusBadRequest},
		{name: "valuation", method: nethttp.MethodGet, path: "/api/v1/portfolios/Main/valuation", token: userToken, want: nethttp.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestGetReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(nethttp.MethodGet, "/api/v1/portfolios/Main/report", userToken, "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/markdown")
	assert.Equal(t, "# Informe", rec.Body.String())

	rec = ts.do(nethttp.MethodGet, "/api/v1/portfolios/Main/report?format=html", userToken, "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML)
	assert.Equal(t, "<h1>Informe</h1>", rec.Body.String())

	rec = ts.do(nethttp.MethodGet, "/api/v1/portfolios/Main/report?format=pdf", userToken, "")
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestMarketRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(nethttp.MethodGet, "/api/v1/market/quote/AAPL", "", "")
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = ts.do(nethttp.MethodGet, "/api/v1/market/news?limit=500", "", "")
	require.Equal(t, nethttp.StatusOK, rec.Code)
	data, ok := decode(t, rec).Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, maxNewsLimit)

	rec = ts.do(nethttp.MethodGet, "/api/v1/market/news/search", "", "")
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)

	ts.market.quoteErr = errors.Join(dto.ErrProviderUnavailable, errors.New("timeout"))
	rec = ts.do(nethttp.MethodGet, "/api/v1/market/quote/AAPL", "", "")
	assert.Equal(t, nethttp.StatusBadGateway, rec.Code)

	ts.market.quoteErr = dto.ErrInvalidSymbol
	rec = ts.do(nethttp.MethodGet, "/api/v1/market/quote/ZZZZ", "", "")
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestAdviceRateLimited(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(nethttp.MethodPost, "/api/v1/advice", userToken, `{"question":"¿Compro AAPL?"}`)
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = ts.do(nethttp.MethodPost, "/api/v1/advice", userToken, `{"question":"¿Y ahora?"}`)
	assert.Equal(t, nethttp.StatusTooManyRequests, rec.Code)

	rec = ts.do(nethttp.MethodPost, "/api/v1/advice", userToken, `{"question":""}`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestAdminRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(nethttp.MethodPost, "/api/v1/jobs/run", userToken, "")
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)
	assert.Zero(t, ts.scheduler.executed)

	rec = ts.do(nethttp.MethodPost, "/api/v1/jobs/run", adminToken, "")
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, 1, ts.scheduler.executed)

	rec = ts.do(nethttp.MethodPost, "/api/v1/jobs/1/run", adminToken, "")
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	rec = ts.do(nethttp.MethodPost, "/api/v1/jobs/9/run", adminToken, "")
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
	rec = ts.do(nethttp.MethodPost, "/api/v1/jobs/abc/run", adminToken, "")
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Equal(t, []uint{1}, ts.scheduler.ran)

	rec = ts.do(nethttp.MethodPost, "/api/v1/admin/waitlist/3/approve", adminToken, "")
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Equal(t, []uint{3}, ts.memberships.approved)
}

func TestCheckAlertsNotifiesTriggered(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(nethttp.MethodPost, "/api/v1/alerts/check", userToken, `{"values":{"AAPL":201}}`)
	assert.Equal(t, nethttp.StatusForbidden, rec.Code)

	rec = ts.do(nethttp.MethodPost, "/api/v1/alerts/check", adminToken, `{"values":{"AAPL":201}}`)
	require.Equal(t, nethttp.StatusOK, rec.Code)
	// a failed delivery does not fail the request
	assert.Equal(t, []string{"ok", "broken"}, ts.notifications.notified)

	rec = ts.do(nethttp.MethodPost, "/api/v1/alerts/check", adminToken, `{"kind":"sentiment","values":{"AAPL":1}}`)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}
