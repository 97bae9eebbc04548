package whttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const USER_AGENT = "landedcost/1.0"

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Headers []WHTTPHeader
	Body    []byte
}

type WHTTPRes struct {
	StatusCode int
	Body       []byte
}

// BodyString returns the response body as text.
func (r *WHTTPRes) BodyString() string { return string(r.Body) }

var proxyURL *url.URL

// SetupProxy routes every client built afterwards through proxy.
func SetupProxy(proxy string) error {
	if proxy == "" {
		proxyURL = nil
		return nil
	}
	u, err := url.Parse(proxy)
	if err != nil {
		return fmt.Errorf("invalid proxy URL: %v", err)
	}
	proxyURL = u
	return nil
}

// NewClient returns a quiet retrying client. retries <= 0 disables retries.
func NewClient(retries int, timeout time.Duration) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.Logger = log.New(io.Discard, "", 0)
	if retries < 0 {
		retries = 0
	}
	c.RetryMax = retries
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 5 * time.Second
	// Hand the last response back so callers see the status code.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if timeout > 0 {
		c.HTTPClient.Timeout = timeout
	}
	if proxyURL != nil {
		c.HTTPClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return c
}

// SendHTTPRequest performs wReq with client, or with a default client when
// client is nil. Non-2xx responses are returned, not turned into errors.
func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	if client == nil {
		client = NewClient(3, 30*time.Second)
	}

	var body io.Reader
	if wReq.Body != nil {
		body = bytes.NewReader(wReq.Body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")
	if wReq.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &WHTTPRes{StatusCode: resp.StatusCode, Body: bodyBytes}, nil
}
