package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/utils"
)

var (
	// ErrRateLimited is returned when the upstream provider rejects a call
	// with a rate-limit signal. The text is matched by clients, keep it.
	ErrRateLimited = errors.New("market data API rate limit exceeded")

	// ErrNoData is returned when the provider has no result for the symbol.
	ErrNoData = errors.New("no data available for symbol")

	ErrMarketUpstream = errors.New("market data request failed")
)

const (
	quoteCacheTTL   = 5 * time.Minute
	historyCacheTTL = 30 * time.Minute

	rateLimitMarker = "API limit"
)

// summarySymbols is the fixed index list behind the market-summary endpoint.
var summarySymbols = []string{"SPY", "QQQ", "DIA", "IWM"}

// Quote is a real-time price snapshot.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Current       float64 `json:"current"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percent_change"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PrevClose     float64 `json:"prev_close"`
	Timestamp     int64   `json:"timestamp"`
}

// Profile describes a listed company.
type Profile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Exchange  string  `json:"exchange"`
	Industry  string  `json:"industry"`
	WebURL    string  `json:"web_url"`
	Logo      string  `json:"logo"`
	Currency  string  `json:"currency"`
	Country   string  `json:"country"`
	MarketCap float64 `json:"market_cap"`
	IPO       string  `json:"ipo"`
}

// Candles is a historical OHLCV series.
type Candles struct {
	Symbol     string    `json:"symbol"`
	Timestamps []int64   `json:"timestamps"`
	Open       []float64 `json:"open"`
	High       []float64 `json:"high"`
	Low        []float64 `json:"low"`
	Close      []float64 `json:"close"`
	Volume     []int64   `json:"volume"`
}

// SearchResult is one symbol-search hit.
type SearchResult struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// NewsItem is one market or company news article.
type NewsItem struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	Datetime int64  `json:"datetime"`
	Related  string `json:"related"`
}

// SummaryEntry pairs an index symbol with its quote; Error is set when that
// one symbol failed without failing the whole summary.
type SummaryEntry struct {
	Symbol string `json:"symbol"`
	Quote  *Quote `json:"quote,omitempty"`
	Error  string `json:"error,omitempty"`
}

// QuoteResolver is the slice of the market client the watchlist needs to
// validate a symbol before insertion.
type QuoteResolver interface {
	Quote(ctx context.Context, userID *uint64, symbol string) (*Quote, error)
}

// MarketService issues outbound requests to the market-data provider,
// records every call to the API log, and caches hot reads in redis.
// The base URL and HTTP client are injectable for tests.
type MarketService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logRepo    repository.APILogRepository
	cache      *redis.Client
}

// NewMarketService creates a new MarketService. cache may be nil, in which
// case every read goes upstream.
func NewMarketService(apiKey, baseURL string, logRepo repository.APILogRepository, cache *redis.Client) *MarketService {
	return &MarketService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logRepo: logRepo,
		cache:   cache,
	}
}

// SetHTTPClient replaces the transport (used for testing).
func (s *MarketService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

// Quote returns the current price snapshot for a symbol.
func (s *MarketService) Quote(ctx context.Context, userID *uint64, symbol string) (*Quote, error) {
	symbol = utils.NormalizeSymbol(symbol)

	cacheKey := fmt.Sprintf("stock:%s:quote", symbol)
	var cached Quote
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var raw struct {
		Current       float64 `json:"c"`
		Change        float64 `json:"d"`
		PercentChange float64 `json:"dp"`
		High          float64 `json:"h"`
		Low           float64 `json:"l"`
		Open          float64 `json:"o"`
		PrevClose     float64 `json:"pc"`
		Timestamp     int64   `json:"t"`
	}
	err := s.call(ctx, userID, "quote", "/quote", url.Values{"symbol": {symbol}}, &raw)
	if err != nil {
		return nil, err
	}

	// The provider answers unknown symbols with an all-zero quote.
	if raw.Timestamp == 0 && raw.Current == 0 {
		return nil, ErrNoData
	}

	quote := &Quote{
		Symbol:        symbol,
		Current:       raw.Current,
		Change:        raw.Change,
		PercentChange: raw.PercentChange,
		High:          raw.High,
		Low:           raw.Low,
		Open:          raw.Open,
		PrevClose:     raw.PrevClose,
		Timestamp:     raw.Timestamp,
	}
	s.cacheSet(ctx, cacheKey, quote, quoteCacheTTL)
	return quote, nil
}

// Profile returns the company profile for a symbol.
func (s *MarketService) Profile(ctx context.Context, userID *uint64, symbol string) (*Profile, error) {
	symbol = utils.NormalizeSymbol(symbol)

	var raw struct {
		Name      string  `json:"name"`
		Ticker    string  `json:"ticker"`
		Exchange  string  `json:"exchange"`
		Industry  string  `json:"finnhubIndustry"`
		WebURL    string  `json:"weburl"`
		Logo      string  `json:"logo"`
		Currency  string  `json:"currency"`
		Country   string  `json:"country"`
		MarketCap float64 `json:"marketCapitalization"`
		IPO       string  `json:"ipo"`
	}
	err := s.call(ctx, userID, "profile", "/stock/profile2", url.Values{"symbol": {symbol}}, &raw)
	if err != nil {
		return nil, err
	}
	if raw.Name == "" && raw.Ticker == "" {
		return nil, ErrNoData
	}

	return &Profile{
		Symbol:    symbol,
		Name:      raw.Name,
		Exchange:  raw.Exchange,
		Industry:  raw.Industry,
		WebURL:    raw.WebURL,
		Logo:      raw.Logo,
		Currency:  raw.Currency,
		Country:   raw.Country,
		MarketCap: raw.MarketCap,
		IPO:       raw.IPO,
	}, nil
}

// Historical returns a daily OHLCV series for the past year.
func (s *MarketService) Historical(ctx context.Context, userID *uint64, symbol string) (*Candles, error) {
	symbol = utils.NormalizeSymbol(symbol)

	cacheKey := fmt.Sprintf("stock:%s:history", symbol)
	var cached Candles
	if s.cacheGet(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	now := time.Now()
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {"D"},
		"from":       {fmt.Sprintf("%d", now.AddDate(-1, 0, 0).Unix())},
		"to":         {fmt.Sprintf("%d", now.Unix())},
	}

	var raw struct {
		Status     string    `json:"s"`
		Timestamps []int64   `json:"t"`
		Open       []float64 `json:"o"`
		High       []float64 `json:"h"`
		Low        []float64 `json:"l"`
		Close      []float64 `json:"c"`
		Volume     []int64   `json:"v"`
	}
	err := s.call(ctx, userID, "historical", "/stock/candle", params, &raw)
	if err != nil {
		return nil, err
	}
	if raw.Status == "no_data" || len(raw.Timestamps) == 0 {
		return nil, ErrNoData
	}

	candles := &Candles{
		Symbol:     symbol,
		Timestamps: raw.Timestamps,
		Open:       raw.Open,
		High:       raw.High,
		Low:        raw.Low,
		Close:      raw.Close,
		Volume:     raw.Volume,
	}
	s.cacheSet(ctx, cacheKey, candles, historyCacheTTL)
	return candles, nil
}

// Search runs a free-text symbol search.
func (s *MarketService) Search(ctx context.Context, userID *uint64, query string) ([]SearchResult, error) {
	var raw struct {
		Count  int `json:"count"`
		Result []struct {
			Symbol      string `json:"symbol"`
			Description string `json:"description"`
			Type        string `json:"type"`
		} `json:"result"`
	}
	err := s.call(ctx, userID, "search", "/search", url.Values{"q": {query}}, &raw)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(raw.Result))
	for _, r := range raw.Result {
		results = append(results, SearchResult{
			Symbol:      r.Symbol,
			Description: r.Description,
			Type:        r.Type,
		})
	}
	return results, nil
}

// MarketSummary quotes the fixed index list. A single failing symbol is
// reported inline; a rate limit aborts the whole summary.
func (s *MarketService) MarketSummary(ctx context.Context, userID *uint64) ([]SummaryEntry, error) {
	entries := make([]SummaryEntry, 0, len(summarySymbols))
	for _, symbol := range summarySymbols {
		quote, err := s.Quote(ctx, userID, symbol)
		if err != nil {
			if errors.Is(err, ErrRateLimited) {
				return nil, err
			}
			entries = append(entries, SummaryEntry{Symbol: symbol, Error: err.Error()})
			continue
		}
		entries = append(entries, SummaryEntry{Symbol: symbol, Quote: quote})
	}
	return entries, nil
}

// News returns general market news, or company news when symbol is set.
func (s *MarketService) News(ctx context.Context, userID *uint64, symbol string) ([]NewsItem, error) {
	var (
		path   string
		params url.Values
	)
	if symbol == "" {
		path = "/news"
		params = url.Values{"category": {"general"}}
	} else {
		symbol = utils.NormalizeSymbol(symbol)
		now := time.Now()
		path = "/company-news"
		params = url.Values{
			"symbol": {symbol},
			"from":   {now.AddDate(0, 0, -7).Format("2006-01-02")},
			"to":     {now.Format("2006-01-02")},
		}
	}

	var raw []struct {
		Headline string `json:"headline"`
		Summary  string `json:"summary"`
		Source   string `json:"source"`
		URL      string `json:"url"`
		Image    string `json:"image"`
		Datetime int64  `json:"datetime"`
		Related  string `json:"related"`
	}
	err := s.call(ctx, userID, "news", path, params, &raw)
	if err != nil {
		return nil, err
	}

	items := make([]NewsItem, 0, len(raw))
	for _, n := range raw {
		items = append(items, NewsItem{
			Headline: n.Headline,
			Summary:  n.Summary,
			Source:   n.Source,
			URL:      n.URL,
			Image:    n.Image,
			Datetime: n.Datetime,
			Related:  n.Related,
		})
	}
	return items, nil
}

// call performs one upstream request, decodes the JSON body into out, and
// records the call's latency and outcome to the API log.
func (s *MarketService) call(ctx context.Context, userID *uint64, endpoint, path string, params url.Values, out interface{}) error {
	start := time.Now()
	err := s.doRequest(ctx, path, params, out)
	s.record(userID, endpoint, start, err)
	return err
}

func (s *MarketService) doRequest(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("token", s.apiKey)
	reqURL := s.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarketUpstream, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarketUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarketUpstream, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(string(body), rateLimitMarker) {
		return ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: upstream returned status %d", ErrMarketUpstream, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrMarketUpstream, err)
	}
	return nil
}

// record appends the call to the API log. Logging must never abort the
// primary operation, so failures are swallowed with a diagnostic note.
func (s *MarketService) record(userID *uint64, endpoint string, start time.Time, callErr error) {
	if s.logRepo == nil {
		return
	}
	entry := &models.APILog{
		UserID:         userID,
		Endpoint:       endpoint,
		RequestTime:    start,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Success:        callErr == nil || errors.Is(callErr, ErrNoData),
	}
	if callErr != nil {
		entry.ErrorMessage = callErr.Error()
	}
	if err := s.logRepo.Insert(entry); err != nil {
		slog.Warn("failed to record api call", "endpoint", endpoint, "error", err)
	}
}

func (s *MarketService) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *MarketService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("failed to cache market data", "key", key, "error", err)
	}
}
