// Package ratesvc talks to the landed-cost rate service: the filters catalog,
// the rate lookup and the bulk submission endpoint.
package ratesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/catalog"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/whttp"
)

const (
	FiltersPath    = "/filters"
	RateLookupPath = "/rates/getratelist"
	RateSubmitPath = "/rates/ratelist"

	StatusSuccess = "SUCCESS"
)

// ErrInvalidResponse is returned for a 2xx response that is not JSON.
var ErrInvalidResponse = errors.New("invalid rate service response")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// Outcome is the service verdict on one submitted row.
type Outcome struct {
	RowID   int
	Status  string
	Remarks string
}

// OK reports whether the row was accepted.
func (o Outcome) OK() bool { return strings.EqualFold(o.Status, StatusSuccess) }

// Client is safe for concurrent use.
type Client struct {
	BaseURL string
	Headers map[string]string
	HTTP    *retryablehttp.Client
}

// NewClient builds a client with its own retrying transport.
func NewClient(baseURL string, headers map[string]string, retries int, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Headers: headers,
		HTTP:    whttp.NewClient(retries, timeout),
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	req := &whttp.WHTTPReq{
		Method: method,
		URL:    c.BaseURL + path,
	}
	for name, value := range c.Headers {
		req.Headers = append(req.Headers, whttp.WHTTPHeader{Name: name, Value: value})
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		req.Body = body
	}

	res, err := whttp.SendHTTPRequest(ctx, req, c.HTTP)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{Method: method, URL: req.URL, StatusCode: res.StatusCode, Body: res.BodyString()}
	}
	return res.Body, nil
}

// GetFilters fetches the elements, factors and dimension catalog of a market.
func (c *Client) GetFilters(ctx context.Context, marketID int64) (*catalog.Filters, error) {
	q := url.Values{}
	q.Set("market_id", fmt.Sprint(marketID))
	body, err := c.do(ctx, "GET", FiltersPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParseFilters(body)
}

// GetRateList runs one rate lookup.
func (c *Client) GetRateList(ctx context.Context, s filter.Sparse) ([]rates.Record, error) {
	body, err := c.do(ctx, "POST", RateLookupPath, s.Payload())
	if err != nil {
		return nil, err
	}
	return rates.ParseList(body)
}

// SubmitRateList sends rows for creation or update. Each payload should carry
// a row_id so that outcomes can be matched back.
func (c *Client) SubmitRateList(ctx context.Context, payloads []map[string]any) ([]Outcome, error) {
	body, err := c.do(ctx, "POST", RateSubmitPath, payloads)
	if err != nil {
		return nil, err
	}
	return ParseOutcomes(body)
}

// ParseOutcomes decodes {data:[{row_id, status, remarks}]}.
func ParseOutcomes(body []byte) ([]Outcome, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidResponse
	}
	var out []Outcome
	gjson.GetBytes(body, "data").ForEach(func(_, v gjson.Result) bool {
		out = append(out, Outcome{
			RowID:   int(v.Get("row_id").Int()),
			Status:  v.Get("status").String(),
			Remarks: v.Get("remarks").String(),
		})
		return true
	})
	return out, nil
}
