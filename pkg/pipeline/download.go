package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/marcelo-dos-santos/walmart-codes/pkg/filter"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/labels"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/reconcile"
	"github.com/marcelo-dos-santos/walmart-codes/pkg/sheet"
)

// DownloadConfig holds everything Download needs.
type DownloadConfig struct {
	Lookup   Lookup
	Filter   filter.Sparse
	Rules    []filter.Rule // defaults to filter.DefaultRules()
	Resolver *labels.Resolver
	Options  Options

	// ActiveOnly drops expired rows from every lookup, not only from
	// enumerated ones.
	ActiveOnly bool
	// Now is the reference time of the activity filter; zero means time.Now.
	Now time.Time
}

// DownloadResult is an export ready to be written as a workbook.
type DownloadResult struct {
	Rows     []sheet.Row
	Records  reconcile.ResultSet
	Requests []filter.Request
	Errors   []error // non-fatal lookup failures
	Template bool    // no rates came back; Rows is a template
}

// Download expands the filter, runs the lookups, reconciles the results and
// labels them. When nothing comes back, failed lookups included, the result
// is an editable template for the same filter. Only a missing catalog link
// fails the download.
func Download(ctx context.Context, cfg DownloadConfig) (*DownloadResult, error) {
	log := cfg.Options.logger()
	rules := cfg.Rules
	if rules == nil {
		rules = filter.DefaultRules()
	}
	now := cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	factorID := cfg.Filter.FactorID()

	reqs, err := filter.Expand(cfg.Filter, factorID, rules, cfg.Resolver.Catalog)
	if err != nil {
		return nil, err
	}
	log.Infof("Running %d rate lookups", len(reqs))

	results, errs := Fetch(ctx, cfg.Lookup, reqs, cfg.Options)
	if len(errs) > 0 {
		log.Warnf("%d of %d rate lookups failed: %v", len(errs), len(reqs), errors.Join(errs...))
	}

	set := reconcile.Reconcile(results, cfg.ActiveOnly, now)
	out := &DownloadResult{Records: set, Requests: reqs, Errors: errs}
	if len(set) == 0 {
		log.Infof("No rates found, building a template")
		rows, err := sheet.TemplateRows(cfg.Filter, factorID, rules, cfg.Resolver)
		if err != nil {
			return nil, err
		}
		out.Rows = rows
		out.Template = true
		return out, nil
	}
	out.Rows = sheet.ToExportRows(set, cfg.Filter, cfg.Resolver)
	return out, nil
}
