package worker

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/pricecmp/internal/catalog"
	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/logging"
	"github.com/ppiankov/pricecmp/internal/model"
)

// SweepJob finds the best offer for every list item in one catalog
type SweepJob struct {
	Index      int
	Catalog    string
	Items      []model.ListItem
	Store      catalog.Store
	Aggregator *compare.Aggregator
}

// Execute loads the catalog and sweeps the list against it
func (j *SweepJob) Execute(ctx context.Context) Result {
	out := &SweepOutcome{Index: j.Index, Catalog: j.Catalog}
	if err := ctx.Err(); err != nil {
		out.Error = err
		return out
	}
	c, err := j.Store.Load(ctx, j.Catalog)
	if err != nil {
		out.Error = fmt.Errorf("load %s: %w", j.Catalog, err)
		return out
	}
	out.Records = len(c.Records)
	out.Results = j.Aggregator.Sweep(c.Records, j.Items)
	return out
}

// SweepOutcome is the sweep of one catalog
type SweepOutcome struct {
	Index   int
	Catalog string
	Records int
	Results []compare.SweepResult
	Error   error
}

// GetError returns the catalog level error, if any
func (o *SweepOutcome) GetError() error {
	return o.Error
}

// Found counts the items that have a recommendation in this catalog
func (o *SweepOutcome) Found() int {
	n := 0
	for _, r := range o.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// BatchSweeper sweeps a shopping list against many catalogs concurrently
type BatchSweeper struct {
	store       catalog.Store
	aggregator  *compare.Aggregator
	concurrency int
	log         *logging.Entry
}

// NewBatchSweeper creates a batch sweeper
func NewBatchSweeper(store catalog.Store, aggregator *compare.Aggregator, concurrency int, log *logging.Log) *BatchSweeper {
	if log == nil {
		log = logging.Discard()
	}
	return &BatchSweeper{
		store:       store,
		aggregator:  aggregator,
		concurrency: concurrency,
		log:         log.WithComponent("sweep"),
	}
}

// Run sweeps items against each named catalog. Outcomes are returned in the
// order of catalogs; a catalog that fails to load carries its error.
func (b *BatchSweeper) Run(ctx context.Context, catalogs []string, items []model.ListItem) []*SweepOutcome {
	if len(catalogs) == 0 {
		return []*SweepOutcome{}
	}

	pool := NewPool(ctx, b.concurrency, len(catalogs))
	pool.Start()

	for i, name := range catalogs {
		job := &SweepJob{
			Index:      i,
			Catalog:    name,
			Items:      items,
			Store:      b.store,
			Aggregator: b.aggregator,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	outcomes := make([]*SweepOutcome, 0, len(catalogs))
	done := make(map[int]bool, len(results))
	for _, result := range results {
		out := result.(*SweepOutcome)
		done[out.Index] = true
		if out.Error != nil {
			b.log.WithError(out.Error).WithFields(logging.Fields{"catalog": out.Catalog}).Warn("catalog sweep failed")
		} else {
			b.log.WithFields(logging.Fields{"catalog": out.Catalog, "records": out.Records, "found": out.Found()}).Debug("catalog swept")
		}
		outcomes = append(outcomes, out)
	}
	// catalogs cut off by cancellation still get an outcome
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	for i, name := range catalogs {
		if !done[i] {
			outcomes = append(outcomes, &SweepOutcome{Index: i, Catalog: name, Error: cause})
		}
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].Index < outcomes[j].Index })
	return outcomes
}
