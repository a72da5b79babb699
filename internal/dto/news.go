package dto

import "time"

type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   float64   `json:"sentiment"`
	URLToImage  string    `json:"url_to_image,omitempty"`
}

// SentimentLabel returns positivo, negativo or neutral.
func (n NewsItem) SentimentLabel() string {
	return SentimentLabel(n.Sentiment)
}

type AlphaVantageNewsResponse struct {
	Information string `json:"Information"`
	Note        string `json:"Note"`
	Feed        []struct {
		Title                 string  `json:"title"`
		URL                   string  `json:"url"`
		TimePublished         string  `json:"time_published"`
		Summary               string  `json:"summary"`
		Source                string  `json:"source"`
		OverallSentimentScore float64 `json:"overall_sentiment_score"`
	} `json:"feed"`
}

type NewsAPIResponse struct {
	Status       string `json:"status"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		URLToImage  string    `json:"urlToImage"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

type NewsRequest struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=50"`
}

type NewsSearchRequest struct {
	Query string `query:"q" validate:"required"`
	Days  int    `query:"days" validate:"omitempty,min=1,max=30"`
}
