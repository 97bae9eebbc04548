// Package pipeline runs rate lookups concurrently and drives the download and
// upload flows on top of the codec packages.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/rates"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/reconcile"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// DefaultConcurrency is used when Options.Concurrency <= 0.
const DefaultConcurrency = 5

// Lookup runs a single rate lookup.
type Lookup interface {
	GetRateList(ctx context.Context, s filter.Sparse) ([]rates.Record, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, s filter.Sparse) ([]rates.Record, error)

func (f LookupFunc) GetRateList(ctx context.Context, s filter.Sparse) ([]rates.Record, error) {
	return f(ctx, s)
}

// Options tunes Fetch.
type Options struct {
	Concurrency int    // defaults to 5 if <= 0
	Log         Logger // optional; nil = no logging
}

func (o Options) logger() Logger {
	if o.Log == nil {
		return nopLogger{}
	}
	return o.Log
}

// LookupError is a failed lookup. It never aborts the other lookups.
type LookupError struct {
	Request filter.Request
	Err     error
}

func (e *LookupError) Error() string {
	if e.Request.Enumerated() {
		return fmt.Sprintf("rate lookup %s=%s: %v", e.Request.Field, e.Request.Code, e.Err)
	}
	return fmt.Sprintf("rate lookup: %v", e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Fetch runs every request through a bounded worker pool and waits for all of
// them. Successful results come back in request order regardless of
// completion order; failures are collected as *LookupError.
func Fetch(ctx context.Context, lookup Lookup, reqs []filter.Request, opts Options) ([]reconcile.Result, []error) {
	if len(reqs) == 0 {
		return []reconcile.Result{}, nil
	}
	log := opts.logger()
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	type slot struct {
		records []rates.Record
		err     error
	}
	slots := make([]slot, len(reqs))
	idxChan := make(chan int, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxChan {
				if err := ctx.Err(); err != nil {
					slots[idx].err = err
					continue
				}
				records, err := lookup.GetRateList(ctx, reqs[idx].Filter)
				if err != nil {
					log.Warnf("Lookup %d/%d failed: %v", idx+1, len(reqs), err)
					slots[idx].err = err
					continue
				}
				log.Debugf("Lookup %d/%d returned %d rows", idx+1, len(reqs), len(records))
				slots[idx].records = records
			}
		}()
	}

	for i := range reqs {
		idxChan <- i
	}
	close(idxChan)
	wg.Wait()

	results := make([]reconcile.Result, 0, len(reqs))
	var errs []error
	for i, s := range slots {
		if s.err != nil {
			errs = append(errs, &LookupError{Request: reqs[i], Err: s.err})
			continue
		}
		results = append(results, reconcile.Result{Request: reqs[i], Records: s.records})
	}
	return results, errs
}
