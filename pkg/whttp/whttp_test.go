package whttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSendHTTPRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.Header.Get("Content-Type") != "application/json" || r.Header.Get("X-Market") != "1001" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{
		Method:  "POST",
		URL:     srv.URL,
		Headers: []WHTTPHeader{{Name: "X-Market", Value: "1001"}},
		Body:    []byte(`{"a":1}`),
	}, NewClient(0, time.Second))
	if err != nil {
		t.Fatalf("SendHTTPRequest: %v", err)
	}
	if res.StatusCode != http.StatusOK || res.BodyString() != `{"a":1}` {
		t.Fatalf("unexpected response %d %q", res.StatusCode, res.BodyString())
	}
}

func TestSendHTTPRequestRetriesThenReturnsStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(2, time.Second)
	c.RetryWaitMin = time.Millisecond
	c.RetryWaitMax = time.Millisecond

	res, err := SendHTTPRequest(context.Background(), &WHTTPReq{Method: "GET", URL: srv.URL}, c)
	if err != nil {
		t.Fatalf("SendHTTPRequest: %v", err)
	}
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestSetupProxy(t *testing.T) {
	defer SetupProxy("")
	if err := SetupProxy("http://127.0.0.1:8080"); err != nil {
		t.Fatalf("SetupProxy: %v", err)
	}
	if c := NewClient(0, 0); c.HTTPClient.Transport.(*http.Transport).Proxy == nil {
		t.Fatalf("proxy not applied")
	}
	if err := SetupProxy("://bad"); err == nil {
		t.Fatalf("expected an error for a bad proxy URL")
	}
}
