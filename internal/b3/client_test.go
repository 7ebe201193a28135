package b3

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibovrank/internal"
	"ibovrank/internal/config"
)

const defaultEncodedQuery = "eyJsYW5ndWFnZSI6ImVuLXVzIiwicGFnZU51bWJlciI6MSwicGFnZVNpemUiOjEyMCwiaW5kZXgiOiJJQk9WIiwic2VnbWVudCI6IjEifQ=="

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type fetcherFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.B3PortfolioURL = "https://sistemaswebb3-listados.b3.com.br/indexProxy/indexCall/GetPortfolioDay/"
	cfg.B3Index = "IBOV"
	cfg.B3Language = "en-us"
	cfg.B3Segment = "1"
	cfg.B3PageSize = 120
	cfg.B3FetchAllPages = false
	cfg.B3RateLimitRPS = 1000
	return cfg
}

func decodeQuery(t *testing.T, url string) Query {
	t.Helper()
	idx := strings.LastIndex(url, "/")
	require.GreaterOrEqual(t, idx, 0)
	blob, err := base64.StdEncoding.DecodeString(url[idx+1:])
	require.NoError(t, err)
	var q Query
	require.NoError(t, json.Unmarshal(blob, &q))
	return q
}

func TestPortfolioURLDefaultQuery(t *testing.T) {
	client := NewClientWithFetcher(testConfig(t), nil)

	u, err := client.PortfolioURL(1)
	require.NoError(t, err)
	assert.Equal(t, "https://sistemaswebb3-listados.b3.com.br/indexProxy/indexCall/GetPortfolioDay/"+defaultEncodedQuery, u)
}

func TestFetchPortfolioMapsFields(t *testing.T) {
	calls := 0
	fetcher := fetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		calls++
		assert.True(t, strings.HasSuffix(url, defaultEncodedQuery))
		return []byte(`{"results":[{"cod":"VALE3","asset":"VALE","type":"ON","theoricalQty":"500","part":"10.5"}]}`), nil
	})

	rows, err := NewClientWithFetcher(testConfig(t), fetcher).FetchPortfolio(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, calls)
	assert.Equal(t, internal.ConstituentRow{
		Code:                 "VALE3",
		Asset:                "VALE",
		Type:                 "ON",
		TheoreticalQuantity:  "500",
		ParticipationPercent: 10.5,
	}, rows[0])
}

func TestFetchPortfolioAcceptsNumericFields(t *testing.T) {
	fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`{"results":[{"cod":"PETR4","asset":"PETROBRAS","type":"PN","theoricalQty":4434589500,"part":7.25}]}`), nil
	})

	rows, err := NewClientWithFetcher(testConfig(t), fetcher).FetchPortfolio(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "4434589500", rows[0].TheoreticalQuantity)
	assert.Equal(t, 7.25, rows[0].ParticipationPercent)
}

func TestFetchPortfolioMissingResults(t *testing.T) {
	fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`{"page":{"pageNumber":1,"totalPages":1}}`), nil
	})

	_, err := NewClientWithFetcher(testConfig(t), fetcher).FetchPortfolio(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, internal.ErrData))
}

func TestFetchPortfolioMalformedJSON(t *testing.T) {
	fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`<html>maintenance</html>`), nil
	})

	_, err := NewClientWithFetcher(testConfig(t), fetcher).FetchPortfolio(context.Background())
	assert.ErrorIs(t, err, internal.ErrData)
}

func TestFetchPortfolioNonNumericPart(t *testing.T) {
	fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
		return []byte(`{"results":[{"cod":"X","asset":"X","type":"ON","theoricalQty":"1","part":"n/a"}]}`), nil
	})

	_, err := NewClientWithFetcher(testConfig(t), fetcher).FetchPortfolio(context.Background())
	assert.ErrorIs(t, err, internal.ErrData)
}

func TestFetchPortfolioReadsOnlyFirstPageByDefault(t *testing.T) {
	calls := 0
	fetcher := fetcherFunc(func(context.Context, string) ([]byte, error) {
		calls++
		return []byte(`{"page":{"pageNumber":1,"pageSize":1,"totalRecords":2,"totalPages":2},"results":[{"cod":"A","asset":"A","type":"ON","theoricalQty":"1","part":"1"}]}`), nil
	})

	rows, err := NewClientWithFetcher(testConfig(t), fetcher).FetchPortfolio(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, calls)
}

func TestFetchPortfolioAllPages(t *testing.T) {
	cfg := testConfig(t)
	cfg.B3FetchAllPages = true
	cfg.B3PageSize = 1

	var pages []int
	fetcher := fetcherFunc(func(_ context.Context, url string) ([]byte, error) {
		q := decodeQuery(t, url)
		pages = append(pages, q.PageNumber)
		assert.Equal(t, 1, q.PageSize)
		if q.PageNumber == 1 {
			return []byte(`{"page":{"pageNumber":1,"pageSize":1,"totalRecords":2,"totalPages":2},"results":[{"cod":"A","asset":"A","type":"ON","theoricalQty":"1","part":"1"}]}`), nil
		}
		return []byte(`{"page":{"pageNumber":2,"pageSize":1,"totalRecords":2,"totalPages":2},"results":[{"cod":"B","asset":"B","type":"PN","theoricalQty":"2","part":"2"}]}`), nil
	})

	rows, err := NewClientWithFetcher(cfg, fetcher).FetchPortfolio(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, pages)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Code)
	assert.Equal(t, "B", rows[1].Code)
}

func TestHTTPFetcherStatusError(t *testing.T) {
	fetcher := NewHTTPFetcher(time.Second)
	fetcher.httpClient.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		return &http.Response{
			StatusCode: http.StatusServiceUnavailable,
			Body:       io.NopCloser(strings.NewReader(`{"error":"boom"}`)),
			Header:     make(http.Header),
		}, nil
	})

	_, err := fetcher.Fetch(context.Background(), "https://example.test/portfolio")
	require.Error(t, err)
	assert.ErrorIs(t, err, internal.ErrNetwork)
	assert.Contains(t, err.Error(), "status=503")
}

func TestHTTPFetcherTransportError(t *testing.T) {
	fetcher := NewHTTPFetcher(time.Second)
	fetcher.httpClient.Transport = roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := fetcher.Fetch(context.Background(), "https://example.test/portfolio")
	assert.ErrorIs(t, err, internal.ErrNetwork)
}

func TestHTTPFetcherReturnsBody(t *testing.T) {
	fetcher := NewHTTPFetcher(time.Second)
	fetcher.httpClient.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, r.Method)
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"results":[]}`)),
			Header:     make(http.Header),
		}, nil
	})

	body, err := fetcher.Fetch(context.Background(), "https://example.test/portfolio")
	require.NoError(t, err)
	assert.JSONEq(t, `{"results":[]}`, string(body))
}
