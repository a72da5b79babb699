package dto

import "time"

// Quote is the Market Data Gateway answer for one symbol.
type Quote struct {
	Symbol           string    `json:"symbol"`
	Name             string    `json:"name,omitempty"`
	Price            float64   `json:"price"`
	PreviousClose    float64   `json:"previous_close"`
	ChangePercent    float64   `json:"change_percent"`
	Volume           int64     `json:"volume"`
	MarketCap        float64   `json:"market_cap"`
	PERatio          float64   `json:"pe_ratio"`
	FiftyTwoWeekHigh float64   `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  float64   `json:"fifty_two_week_low"`
	Beta             float64   `json:"beta"`
	Currency         string    `json:"currency"`
	Description      string    `json:"description,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Mover is the daily performance of an index or sector ETF.
type Mover struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

type YahooChartMeta struct {
	Symbol               string  `json:"symbol"`
	Currency             string  `json:"currency"`
	LongName             string  `json:"longName"`
	ShortName            string  `json:"shortName"`
	RegularMarketPrice   float64 `json:"regularMarketPrice"`
	ChartPreviousClose   float64 `json:"chartPreviousClose"`
	PreviousClose        float64 `json:"previousClose"`
	RegularMarketVolume  int64   `json:"regularMarketVolume"`
	RegularMarketTime    int64   `json:"regularMarketTime"`
	FiftyTwoWeekHigh     float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      float64 `json:"fiftyTwoWeekLow"`
	RegularMarketDayHigh float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow  float64 `json:"regularMarketDayLow"`
}

// YahooFinanceResponse is the chart endpoint payload. Close entries are null on non-trading slots.
type YahooFinanceResponse struct {
	Chart struct {
		Result []struct {
			Meta       YahooChartMeta `json:"meta"`
			Timestamp  []int64        `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type HistoryRequest struct {
	Range string `query:"range" validate:"omitempty,oneof=1m 3m 6m 1y"`
}
