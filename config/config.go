package config

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          App            `mapstructure:"app"`
	Log          Logger         `mapstructure:"logger"`
	DB           Database       `mapstructure:"database"`
	API          API            `mapstructure:"api"`
	Auth         Auth           `mapstructure:"auth"`
	Scheduler    Scheduler      `mapstructure:"scheduler"`
	Cache        Cache          `mapstructure:"cache"`
	YahooFinance YahooFinance   `mapstructure:"yahoo_finance"`
	AlphaVantage AlphaVantage   `mapstructure:"alpha_vantage"`
	NewsAPI      NewsAPI        `mapstructure:"news_api"`
	Gemini       Gemini         `mapstructure:"gemini"`
	SMTP         SMTP           `mapstructure:"smtp"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
}

type App struct {
	TimeZone string `mapstructure:"time_zone"`
	Currency string `mapstructure:"currency"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port               int      `mapstructure:"port"`
	CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	AdviceRatePerMin   int      `mapstructure:"advice_rate_per_min"`
	RequestsPerSecond  float64  `mapstructure:"requests_per_second"`
	RequestBurst       int      `mapstructure:"request_burst"`
}

type Auth struct {
	JWTSecret           string        `mapstructure:"jwt_secret"`
	TokenTTL            time.Duration `mapstructure:"token_ttl"`
	RememberTTL         time.Duration `mapstructure:"remember_ttl"`
	VerificationBaseURL string        `mapstructure:"verification_base_url"`
	AdminEmails         []string      `mapstructure:"admin_emails"`
}

type Scheduler struct {
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
}

type Cache struct {
	DefaultExpiration   time.Duration `mapstructure:"default_expiration"`
	CleanupInterval     time.Duration `mapstructure:"cleanup_interval"`
	NewsExpiration      time.Duration `mapstructure:"news_expiration"`
	QuoteExpiration     time.Duration `mapstructure:"quote_expiration"`
	SysParamExpDuration time.Duration `mapstructure:"sys_param_exp_duration"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	QuoteSummaryURL     string        `mapstructure:"quote_summary_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
}

type AlphaVantage struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerSecond int           `mapstructure:"max_request_per_second"`
}

type NewsAPI struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Language string        `mapstructure:"language"`
}

type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	BaseModel           string `mapstructure:"base_model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type TelegramConfig struct {
	BotToken                  string        `mapstructure:"bot_token"`
	ChatID                    string        `mapstructure:"chat_id"`
	WebhookURL                string        `mapstructure:"webhook_url"`
	WebhookSecret             string        `mapstructure:"webhook_secret"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxUserRequestPerSecond   int           `mapstructure:"max_user_request_per_second"`
	RatelimitExpireDuration   time.Duration `mapstructure:"ratelimit_expire_duration"`
	RateLimitCleanupDuration  time.Duration `mapstructure:"rate_limit_cleanup_duration"`
}

func Load() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.App.TimeZone = cmp.Or(c.App.TimeZone, "UTC")
	c.App.Currency = cmp.Or(c.App.Currency, "USD")

	c.Log.Level = cmp.Or(c.Log.Level, "info")
	c.Log.Encoding = cmp.Or(c.Log.Encoding, "json")

	c.API.Port = cmp.Or(c.API.Port, 8080)
	c.API.AdviceRatePerMin = cmp.Or(c.API.AdviceRatePerMin, 6)
	c.API.RequestsPerSecond = cmp.Or(c.API.RequestsPerSecond, 10)
	c.API.RequestBurst = cmp.Or(c.API.RequestBurst, 20)

	c.Auth.TokenTTL = cmp.Or(c.Auth.TokenTTL, 24*time.Hour)
	c.Auth.RememberTTL = cmp.Or(c.Auth.RememberTTL, 24*time.Hour)

	c.Scheduler.MaxConcurrency = cmp.Or(c.Scheduler.MaxConcurrency, 4)
	c.Scheduler.TickInterval = cmp.Or(c.Scheduler.TickInterval, time.Minute)

	c.Cache.DefaultExpiration = cmp.Or(c.Cache.DefaultExpiration, 10*time.Minute)
	c.Cache.CleanupInterval = cmp.Or(c.Cache.CleanupInterval, 15*time.Minute)
	c.Cache.NewsExpiration = cmp.Or(c.Cache.NewsExpiration, 5*time.Minute)
	c.Cache.QuoteExpiration = cmp.Or(c.Cache.QuoteExpiration, 5*time.Minute)
	c.Cache.SysParamExpDuration = cmp.Or(c.Cache.SysParamExpDuration, time.Hour)

	c.YahooFinance.BaseURL = cmp.Or(c.YahooFinance.BaseURL, "https://query1.finance.yahoo.com/v8/finance/chart")
	c.YahooFinance.QuoteSummaryURL = cmp.Or(c.YahooFinance.QuoteSummaryURL, "https://query2.finance.yahoo.com/v10/finance/quoteSummary")
	c.YahooFinance.Timeout = cmp.Or(c.YahooFinance.Timeout, 15*time.Second)
	c.YahooFinance.MaxRequestPerMinute = cmp.Or(c.YahooFinance.MaxRequestPerMinute, 60)

	c.AlphaVantage.BaseURL = cmp.Or(c.AlphaVantage.BaseURL, "https://www.alphavantage.co")
	c.AlphaVantage.Timeout = cmp.Or(c.AlphaVantage.Timeout, 10*time.Second)
	c.AlphaVantage.MaxRequestPerSecond = cmp.Or(c.AlphaVantage.MaxRequestPerSecond, 1)

	c.NewsAPI.BaseURL = cmp.Or(c.NewsAPI.BaseURL, "https://newsapi.org/v2")
	c.NewsAPI.Timeout = cmp.Or(c.NewsAPI.Timeout, 10*time.Second)
	c.NewsAPI.Language = cmp.Or(c.NewsAPI.Language, "es")

	c.Gemini.BaseModel = cmp.Or(c.Gemini.BaseModel, "gemini-2.0-flash")
	c.Gemini.MaxRequestPerMinute = cmp.Or(c.Gemini.MaxRequestPerMinute, 15)
	c.Gemini.MaxTokenPerMinute = cmp.Or(c.Gemini.MaxTokenPerMinute, 1000000)

	c.SMTP.Port = cmp.Or(c.SMTP.Port, 587)

	c.Telegram.TimeoutDuration = cmp.Or(c.Telegram.TimeoutDuration, 10*time.Second)
	c.Telegram.MaxGlobalRequestPerSecond = cmp.Or(c.Telegram.MaxGlobalRequestPerSecond, 30)
	c.Telegram.MaxUserRequestPerSecond = cmp.Or(c.Telegram.MaxUserRequestPerSecond, 1)
	c.Telegram.RatelimitExpireDuration = cmp.Or(c.Telegram.RatelimitExpireDuration, 10*time.Minute)
	c.Telegram.RateLimitCleanupDuration = cmp.Or(c.Telegram.RateLimitCleanupDuration, 5*time.Minute)
}

// IsAdminEmail reports whether email is listed in auth.admin_emails.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.Auth.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}
