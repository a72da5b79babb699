package common

const (
	KEY_LAST_PRICE       = "last_price:%s"
	KEY_QUOTE            = "quote:%s"
	KEY_MARKET_NEWS      = "market_news:%d"
	KEY_NEWS_SEARCH      = "news_search:%s:%d"
	KEY_ALERT_NOTIFIED   = "alert_notified:%s"
	KEY_ADVICE_RATELIMIT = "advice:%d"
)

const (
	SYMBOL_SP500  = "^GSPC"
	SYMBOL_NASDAQ = "^IXIC"
	SYMBOL_DOW    = "^DJI"
)

// GetMarketIndexList returns the indices shown as market movers.
func GetMarketIndexList() []string {
	return []string{
		SYMBOL_SP500,
		SYMBOL_NASDAQ,
		SYMBOL_DOW,
	}
}

// GetSectorETFList returns the sector ETFs used for sector performance.
func GetSectorETFList() []string {
	return []string{
		"XLF", // financial
		"XLK", // technology
		"XLV", // healthcare
		"XLE", // energy
		"XLI", // industrial
		"XLP", // consumer staples
		"XLY", // consumer discretionary
	}
}

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
