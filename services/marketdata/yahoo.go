package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Yahoo Finance API endpoints
const (
	YahooChartAPIURL = "https://query1.finance.yahoo.com/v8/finance/chart/"
	YahooQuoteAPIURL = "https://query1.finance.yahoo.com/v7/finance/quote"

	yahooMaxRetries   = 3
	yahooRetryBackoff = 500 * time.Millisecond
	yahooBatchLimit   = 50 // symbols per quote request
)

// YahooProvider fetches data from the Yahoo Finance JSON API
type YahooProvider struct {
	httpClient *http.Client
	userAgent  string
	chartURL   string
	quoteURL   string
}

// NewYahooProvider creates a new Yahoo Finance provider
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "Mozilla/5.0 (compatible; MarketLens/6.0)",
		chartURL:  YahooChartAPIURL,
		quoteURL:  YahooQuoteAPIURL,
	}
}

// Name returns the provider identifier
func (p *YahooProvider) Name() string { return "yahoo" }

// YahooChartResponse represents the v8 chart API response
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"previousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooQuoteResponse represents the v7 quote API response
type YahooQuoteResponse struct {
	QuoteResponse struct {
		Result []YahooQuoteData `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}

// YahooQuoteData represents one quote row from the v7 API
type YahooQuoteData struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	FullExchangeName           string  `json:"fullExchangeName"`
	Currency                   string  `json:"currency"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	AverageDailyVolume3Month   int64   `json:"averageDailyVolume3Month"`
	MarketCap                  float64 `json:"marketCap"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

// DailyBars fetches up to `days` daily bars for a symbol
func (p *YahooProvider) DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	if days <= 0 {
		days = 270 // ~1 year of trading days
	}

	rangeParam := rangeForDays(days)
	reqURL := fmt.Sprintf("%s%s?range=%s&interval=1d&events=div%%2Csplit",
		p.chartURL, url.PathEscape(symbol), rangeParam)

	var chartResp YahooChartResponse
	if err := p.getJSON(ctx, reqURL, &chartResp); err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}

	if chartResp.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s", symbol, chartResp.Chart.Error.Description)
	}
	if len(chartResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart data for %s", symbol)
	}

	result := chartResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote series for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	var adjClose []float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	// The OHLCV arrays arrive as parallel series and Yahoo occasionally
	// truncates some of them; index only up to the shortest
	n := len(result.Timestamp)
	for _, l := range []int{len(quote.Open), len(quote.High), len(quote.Low), len(quote.Close), len(quote.Volume)} {
		if l < n {
			n = l
		}
	}

	bars := make([]Bar, 0, n)
	for i := 0; i < n; i++ {
		// Yahoo pads sessions with zero-valued rows; skip them
		if quote.Close[i] == 0 {
			continue
		}
		bar := Bar{
			Date:   time.Unix(result.Timestamp[i], 0).UTC().Truncate(24 * time.Hour),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: quote.Volume[i],
		}
		if i < len(adjClose) && adjClose[i] != 0 {
			bar.AdjClose = adjClose[i]
		} else {
			bar.AdjClose = bar.Close
		}
		bars = append(bars, bar)
	}

	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

// Quote fetches the latest quote for a single symbol
func (p *YahooProvider) Quote(ctx context.Context, symbol string) (*Quote, error) {
	quotes, err := p.BatchQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}
	return &quotes[0], nil
}

// BatchQuotes fetches quotes for multiple symbols in chunks
func (p *YahooProvider) BatchQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	quotes := make([]Quote, 0, len(symbols))
	for start := 0; start < len(symbols); start += yahooBatchLimit {
		end := start + yahooBatchLimit
		if end > len(symbols) {
			end = len(symbols)
		}

		reqURL := fmt.Sprintf("%s?symbols=%s",
			p.quoteURL, url.QueryEscape(strings.Join(symbols[start:end], ",")))

		var quoteResp YahooQuoteResponse
		if err := p.getJSON(ctx, reqURL, &quoteResp); err != nil {
			return nil, fmt.Errorf("failed to fetch quotes: %w", err)
		}
		if quoteResp.QuoteResponse.Error != nil {
			return nil, fmt.Errorf("quote API error: %s", quoteResp.QuoteResponse.Error.Description)
		}

		for _, q := range quoteResp.QuoteResponse.Result {
			quotes = append(quotes, Quote{
				Symbol:        q.Symbol,
				Name:          q.ShortName,
				Exchange:      q.FullExchangeName,
				Currency:      q.Currency,
				Price:         q.RegularMarketPrice,
				Change:        q.RegularMarketChange,
				ChangePercent: q.RegularMarketChangePercent,
				Open:          q.RegularMarketOpen,
				High:          q.RegularMarketDayHigh,
				Low:           q.RegularMarketDayLow,
				PrevClose:     q.RegularMarketPreviousClose,
				Volume:        q.RegularMarketVolume,
				AvgVolume3M:   q.AverageDailyVolume3Month,
				MarketCap:     q.MarketCap,
				Week52High:    q.FiftyTwoWeekHigh,
				Week52Low:     q.FiftyTwoWeekLow,
				Timestamp:     time.Unix(q.RegularMarketTime, 0).UTC(),
			})
		}
	}

	return quotes, nil
}

// getJSON performs a GET request with retries and decodes the JSON body
func (p *YahooProvider) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt < yahooMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := yahooRetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", p.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("upstream returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("upstream returned status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", yahooMaxRetries, lastErr)
}

// rangeForDays maps a bar count to the closest Yahoo range parameter
func rangeForDays(days int) string {
	switch {
	case days <= 5:
		return "5d"
	case days <= 22:
		return "1mo"
	case days <= 66:
		return "3mo"
	case days <= 132:
		return "6mo"
	case days <= 270:
		return "1y"
	case days <= 540:
		return "2y"
	default:
		return "5y"
	}
}
