package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/cache"
	"finance-dashboard/pkg/common"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"golang.org/x/sync/errgroup"
)

type MarketService interface {
	Quote(ctx context.Context, symbol string) (*dto.Quote, error)
	History(ctx context.Context, symbol, period string) ([]dto.PricePoint, error)
	News(ctx context.Context, limit int) ([]dto.NewsItem, error)
	WarmNews(ctx context.Context, limit int) (int, error)
	Search(ctx context.Context, query string, days int) ([]dto.NewsItem, error)
	Movers(ctx context.Context) ([]dto.Mover, error)
	SectorPerformance(ctx context.Context) ([]dto.Mover, error)
	MarketContext(ctx context.Context, headlines int, question string) dto.MarketContext
	CacheLastPrice(symbol string, price float64)
	LastPrice(symbol string) (float64, bool)
}

type marketService struct {
	cfg              *config.Config
	log              *logger.Logger
	cache            cache.Cache
	yahooFinanceRepo repository.YahooFinanceRepository
	newsRepo         repository.NewsRepository
	systemParamRepo  repository.SystemParamRepository
}

func NewMarketService(
	cfg *config.Config,
	log *logger.Logger,
	inmemoryCache cache.Cache,
	yahooFinanceRepo repository.YahooFinanceRepository,
	newsRepo repository.NewsRepository,
	systemParamRepo repository.SystemParamRepository,
) MarketService {
	return &marketService{
		cfg:              cfg,
		log:              log,
		cache:            inmemoryCache,
		yahooFinanceRepo: yahooFinanceRepo,
		newsRepo:         newsRepo,
		systemParamRepo:  systemParamRepo,
	}
}

func (s *marketService) Quote(ctx context.Context, symbol string) (*dto.Quote, error) {
	quote, err := s.yahooFinanceRepo.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.CacheLastPrice(quote.Symbol, quote.Price)
	return quote, nil
}

func (s *marketService) History(ctx context.Context, symbol, period string) ([]dto.PricePoint, error) {
	return s.yahooFinanceRepo.GetHistory(ctx, symbol, period)
}

// News returns market headlines, served from cache for cache.news_expiration.
// Empty provider answers are not cached.
func (s *marketService) News(ctx context.Context, limit int) ([]dto.NewsItem, error) {
	if limit <= 0 {
		limit = 10
	}
	key := fmt.Sprintf(common.KEY_MARKET_NEWS, limit)
	if items, ok := cache.GetFromCache[[]dto.NewsItem](s.cache, key); ok {
		return items, nil
	}

	items, err := s.newsRepo.GetMarketNews(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		s.cache.Set(key, items, s.cfg.Cache.NewsExpiration)
	}
	return items, nil
}

// WarmNews refetches the headlines regardless of the cache and stores them.
func (s *marketService) WarmNews(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 10
	}
	s.cache.Delete(fmt.Sprintf(common.KEY_MARKET_NEWS, limit))
	items, err := s.News(ctx, limit)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (s *marketService) Search(ctx context.Context, query string, days int) ([]dto.NewsItem, error) {
	query = strings.TrimSpace(query)
	key := fmt.Sprintf(common.KEY_NEWS_SEARCH, strings.ToLower(query), days)
	if items, ok := cache.GetFromCache[[]dto.NewsItem](s.cache, key); ok {
		return items, nil
	}

	items, err := s.newsRepo.Search(ctx, query, days)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, items, s.cfg.Cache.NewsExpiration)
	return items, nil
}

func (s *marketService) Movers(ctx context.Context) ([]dto.Mover, error) {
	return s.performance(ctx, common.GetMarketIndexList())
}

func (s *marketService) SectorPerformance(ctx context.Context) ([]dto.Mover, error) {
	return s.performance(ctx, common.GetSectorETFList())
}

// performance quotes the symbols concurrently and keeps the input order. Symbols
// that fail are omitted.
func (s *marketService) performance(ctx context.Context, symbols []string) ([]dto.Mover, error) {
	results := make([]*dto.Mover, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, symbol := range symbols {
		g.Go(func() error {
			quote, err := s.yahooFinanceRepo.GetQuote(gctx, symbol)
			if err != nil {
				s.log.WarnContext(gctx, "Failed to get quote for performance", logger.StringField("symbol", symbol), logger.ErrorField(err))
				return nil
			}
			results[i] = &dto.Mover{
				Symbol:        quote.Symbol,
				Name:          quote.Name,
				Price:         quote.Price,
				ChangePercent: quote.ChangePercent,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	movers := make([]dto.Mover, 0, len(symbols))
	for _, m := range results {
		if m != nil {
			movers = append(movers, *m)
		}
	}
	return movers, nil
}

// MarketContext gathers the S&P 500 daily return and the latest headlines. When the
// question names a known company its quote is attached. Provider failures leave the
// corresponding part empty.
func (s *marketService) MarketContext(ctx context.Context, headlines int, question string) dto.MarketContext {
	var market dto.MarketContext

	// each goroutine owns one field of market
	var g errgroup.Group
	g.Go(func() error {
		ret, err := s.yahooFinanceRepo.GetMarketReturn(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to get market return", logger.ErrorField(err))
			return nil
		}
		market.MarketReturn = ret
		return nil
	})
	g.Go(func() error {
		news, err := s.News(ctx, headlines)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to get market news", logger.ErrorField(err))
			return nil
		}
		if len(news) > headlines {
			news = news[:headlines]
		}
		market.Headlines = news
		return nil
	})
	_ = g.Wait()

	if ticker := s.mentionedTicker(ctx, question); ticker != "" {
		quote, err := s.Quote(ctx, ticker)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to get quote for mentioned company", logger.StringField("symbol", ticker), logger.ErrorField(err))
		} else {
			market.Quote = quote
		}
	}
	return market
}

// mentionedTicker returns the ticker of the first known company, in name order, that
// appears in text.
func (s *marketService) mentionedTicker(ctx context.Context, text string) string {
	text = strings.ToLower(text)
	if strings.TrimSpace(text) == "" {
		return ""
	}

	tickers, err := s.systemParamRepo.GetCompanyTickers(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to get company tickers", logger.ErrorField(err))
		return ""
	}

	names := make([]string, 0, len(tickers))
	for name := range tickers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.Contains(text, strings.ToLower(name)) {
			return tickers[name]
		}
	}
	return ""
}

func (s *marketService) CacheLastPrice(symbol string, price float64) {
	s.cache.Set(fmt.Sprintf(common.KEY_LAST_PRICE, utils.NormalizeSymbol(symbol)), price, s.cfg.Cache.QuoteExpiration)
}

func (s *marketService) LastPrice(symbol string) (float64, bool) {
	return cache.GetFromCache[float64](s.cache, fmt.Sprintf(common.KEY_LAST_PRICE, utils.NormalizeSymbol(symbol)))
}
