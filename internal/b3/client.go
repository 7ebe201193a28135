package b3

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"ibovrank/internal"
	"ibovrank/internal/config"
	"ibovrank/internal/util"
)

// Fetcher returns the body of a GET request.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type HTTPFetcher struct {
	httpClient *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{httpClient: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", internal.ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internal.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", internal.ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: b3 status=%d body=%s", internal.ErrNetwork, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

// Query is the JSON document B3 expects base64-encoded in the URL path.
// Field order matters: it is part of the encoded form.
type Query struct {
	Language   string `json:"language"`
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
	Index      string `json:"index"`
	Segment    string `json:"segment"`
}

func (q Query) Encode() (string, error) {
	blob, err := json.Marshal(q)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

type Client struct {
	cfg     config.Config
	fetcher Fetcher
	limiter *RateLimiter
}

type portfolioResponse struct {
	Page    *pageInfo          `json:"page"`
	Results *[]portfolioRecord `json:"results"`
}

type pageInfo struct {
	PageNumber   int `json:"pageNumber"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
	TotalPages   int `json:"totalPages"`
}

type portfolioRecord struct {
	Cod          flexText `json:"cod"`
	Asset        flexText `json:"asset"`
	Type         flexText `json:"type"`
	TheoricalQty flexText `json:"theoricalQty"`
	Part         flexText `json:"part"`
}

// flexText accepts a JSON string or a bare number and keeps its text.
type flexText string

func (t *flexText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = flexText(s)
		return nil
	}
	*t = flexText(data)
	return nil
}

func NewClient(cfg config.Config) *Client {
	return NewClientWithFetcher(cfg, NewHTTPFetcher(time.Duration(cfg.B3TimeoutMs)*time.Millisecond))
}

func NewClientWithFetcher(cfg config.Config, fetcher Fetcher) *Client {
	return &Client{
		cfg:     cfg,
		fetcher: fetcher,
		limiter: NewRateLimiter(cfg.B3RateLimitRPS),
	}
}

func (c *Client) query(page int) Query {
	return Query{
		Language:   c.cfg.B3Language,
		PageNumber: page,
		PageSize:   c.cfg.B3PageSize,
		Index:      c.cfg.B3Index,
		Segment:    c.cfg.B3Segment,
	}
}

func (c *Client) PortfolioURL(page int) (string, error) {
	encoded, err := c.query(page).Encode()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(c.cfg.B3PortfolioURL, "/") + "/" + encoded, nil
}

// FetchPortfolio returns the index composition. Only the first page is read
// unless B3FetchAllPages is set; constituents past the page size are dropped.
func (c *Client) FetchPortfolio(ctx context.Context) ([]internal.ConstituentRow, error) {
	defer util.TrackTime("FetchPortfolio", time.Now())

	all := make([]internal.ConstituentRow, 0, c.cfg.B3PageSize)
	page := 1
	for {
		rows, info, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)

		if !c.cfg.B3FetchAllPages || info == nil || page >= info.TotalPages || len(rows) == 0 {
			if info != nil && !c.cfg.B3FetchAllPages && info.TotalPages > 1 {
				log.Warnf("b3 portfolio has %d pages, only page 1 was read (%d of %d records)", info.TotalPages, len(all), info.TotalRecords)
			}
			break
		}
		page++
	}

	log.Infof("fetched %d constituents for index %s", len(all), c.cfg.B3Index)
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]internal.ConstituentRow, *pageInfo, error) {
	u, err := c.PortfolioURL(page)
	if err != nil {
		return nil, nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", internal.ErrNetwork, err)
	}
	log.Debugf("GET %s (page %d)", u, page)
	body, err := c.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, nil, err
	}

	rows, info, err := decodePortfolio(body)
	if err != nil {
		return nil, nil, err
	}
	return rows, info, nil
}

// decodePortfolio maps a GetPortfolioDay body onto canonical rows.
func decodePortfolio(body []byte) ([]internal.ConstituentRow, *pageInfo, error) {
	var payload portfolioResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("%w: decode b3 response: %w", internal.ErrData, err)
	}
	if payload.Results == nil {
		return nil, nil, fmt.Errorf("%w: b3 response has no results field", internal.ErrData)
	}

	rows := make([]internal.ConstituentRow, 0, len(*payload.Results))
	for i, rec := range *payload.Results {
		part, err := strconv.ParseFloat(strings.TrimSpace(string(rec.Part)), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: result %d (%s): part %q is not numeric", internal.ErrData, i, rec.Cod, rec.Part)
		}
		rows = append(rows, internal.ConstituentRow{
			Code:                 string(rec.Cod),
			Asset:                string(rec.Asset),
			Type:                 string(rec.Type),
			TheoreticalQuantity:  string(rec.TheoricalQty),
			ParticipationPercent: part,
		})
	}
	return rows, payload.Page, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
