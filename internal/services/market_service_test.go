package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newLogRepo(t *testing.T) (repository.APILogRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.APILog{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return repository.NewAPILogRepository(db), db
}

func newTestMarket(t *testing.T, handler http.HandlerFunc) (*MarketService, *gorm.DB) {
	t.Helper()

	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	logRepo, db := newLogRepo(t)
	svc := NewMarketService("test-key", upstream.URL, logRepo, nil)
	svc.SetHTTPClient(upstream.Client())
	return svc, db
}

func TestMarketService_Quote(t *testing.T) {
	var gotPath, gotToken, gotSymbol string
	svc, db := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		gotSymbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`{"c":189.5,"d":1.25,"dp":0.66,"h":190.1,"l":187.3,"o":188.0,"pc":188.25,"t":1700000000}`))
	})

	userID := uint64(42)
	quote, err := svc.Quote(context.Background(), &userID, "aapl")
	require.NoError(t, err)
	require.Equal(t, "/quote", gotPath)
	require.Equal(t, "test-key", gotToken)
	require.Equal(t, "AAPL", gotSymbol)

	require.Equal(t, "AAPL", quote.Symbol)
	require.Equal(t, 189.5, quote.Current)
	require.Equal(t, 188.25, quote.PrevClose)
	require.EqualValues(t, 1700000000, quote.Timestamp)

	// Call recorded as a success attributed to the user.
	var entry models.APILog
	require.NoError(t, db.First(&entry).Error)
	require.Equal(t, "quote", entry.Endpoint)
	require.True(t, entry.Success)
	require.NotNil(t, entry.UserID)
	require.EqualValues(t, 42, *entry.UserID)
	require.Empty(t, entry.ErrorMessage)
}

func TestMarketService_Quote_UnknownSymbolIsNoData(t *testing.T) {
	svc, db := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		// Finnhub answers unknown symbols with HTTP 200 and an all-zero quote.
		w.Write([]byte(`{"c":0,"d":0,"dp":0,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	})

	_, err := svc.Quote(context.Background(), nil, "NOPE")
	require.ErrorIs(t, err, ErrNoData)

	// An empty answer is still a successful upstream call.
	var entry models.APILog
	require.NoError(t, db.First(&entry).Error)
	require.True(t, entry.Success)
}

func TestMarketService_Quote_RateLimitedStatus(t *testing.T) {
	svc, db := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.Quote(context.Background(), nil, "AAPL")
	require.ErrorIs(t, err, ErrRateLimited)

	var entry models.APILog
	require.NoError(t, db.First(&entry).Error)
	require.False(t, entry.Success)
	require.Contains(t, entry.ErrorMessage, "rate limit")
}

func TestMarketService_Quote_RateLimitedBodyMarker(t *testing.T) {
	svc, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		// Some plans signal the limit in a 200 body instead of a 429.
		w.Write([]byte(`{"error":"API limit reached"}`))
	})

	_, err := svc.Quote(context.Background(), nil, "AAPL")
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestMarketService_Quote_UpstreamError(t *testing.T) {
	svc, db := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := svc.Quote(context.Background(), nil, "AAPL")
	require.ErrorIs(t, err, ErrMarketUpstream)

	var entry models.APILog
	require.NoError(t, db.First(&entry).Error)
	require.False(t, entry.Success)
	require.Contains(t, entry.ErrorMessage, "status 500")
}

func TestMarketService_Historical_NoData(t *testing.T) {
	svc, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	})

	_, err := svc.Historical(context.Background(), nil, "AAPL")
	require.ErrorIs(t, err, ErrNoData)
}

func TestMarketService_Historical(t *testing.T) {
	svc, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/candle", r.URL.Path)
		require.Equal(t, "D", r.URL.Query().Get("resolution"))
		w.Write([]byte(`{"s":"ok","t":[1700000000,1700086400],"o":[100,101],"h":[102,103],"l":[99,100],"c":[101,102],"v":[5000,6000]}`))
	})

	candles, err := svc.Historical(context.Background(), nil, "msft")
	require.NoError(t, err)
	require.Equal(t, "MSFT", candles.Symbol)
	require.Len(t, candles.Timestamps, 2)
	require.Equal(t, []float64{101, 102}, candles.Close)
}

func TestMarketService_Search(t *testing.T) {
	svc, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "apple", r.URL.Query().Get("q"))
		w.Write([]byte(`{"count":1,"result":[{"symbol":"AAPL","description":"APPLE INC","type":"Common Stock"}]}`))
	})

	results, err := svc.Search(context.Background(), nil, "apple")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "AAPL", results[0].Symbol)
}

func TestMarketService_MarketSummary_PartialFailure(t *testing.T) {
	svc, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "QQQ" {
			w.Write([]byte(`{"c":0,"t":0}`))
			return
		}
		w.Write([]byte(`{"c":500.0,"d":1,"dp":0.2,"h":501,"l":499,"o":500,"pc":499,"t":1700000000}`))
	})

	entries, err := svc.MarketSummary(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	for _, e := range entries {
		if e.Symbol == "QQQ" {
			require.Nil(t, e.Quote)
			require.NotEmpty(t, e.Error)
		} else {
			require.NotNil(t, e.Quote)
		}
	}
}

func TestMarketService_MarketSummary_RateLimitAborts(t *testing.T) {
	svc, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := svc.MarketSummary(context.Background(), nil)
	require.ErrorIs(t, err, ErrRateLimited)
}

func TestMarketService_News_CompanyVsGeneral(t *testing.T) {
	var paths []string
	svc, _ := newTestMarket(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`[{"headline":"Markets rally","source":"wire","datetime":1700000000}]`))
	})

	items, err := svc.News(context.Background(), nil, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Markets rally", items[0].Headline)

	_, err = svc.News(context.Background(), nil, "tsla")
	require.NoError(t, err)

	require.Equal(t, []string{"/news", "/company-news"}, paths)
}
