package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/logging"
	"github.com/ppiankov/pricecmp/internal/worker"
)

var (
	sweepCatalog string
	sweepApply   bool
	sweepWorkers int
	sweepTimeout time.Duration
)

// sweepCmd finds the best offer for every shopping list item
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Find the best offer for every shopping list item",
	Long: `Sweep the shopping list against catalogs:
- With --catalog, recommend the cheapest provider per item from that catalog
  and, with --apply, rewrite the list to use the recommended providers
- Without --catalog, sweep every catalog concurrently and report each

Example:
  pricecmp sweep --catalog preise.csv
  pricecmp sweep --catalog preise.csv --apply
  pricecmp sweep --workers 8`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepCatalog, "catalog", "", "catalog to sweep (default: all catalogs)")
	sweepCmd.Flags().BoolVar(&sweepApply, "apply", false, "rewrite list providers to the recommendations (requires --catalog)")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "number of concurrent workers (overrides concurrency.workers)")
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", 5*time.Minute, "total timeout for the sweep")
}

func runSweep(cmd *cobra.Command, args []string) error {
	if sweepApply && sweepCatalog == "" {
		return fmt.Errorf("--apply requires --catalog")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	workers := cfg.Concurrency.Workers
	if sweepWorkers > 0 {
		workers = sweepWorkers
	}

	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	list := openList(cfg)
	items, err := list.Load()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Shopping list %s is empty\n", list.Path())
		return nil
	}

	catalogs := []string{sweepCatalog}
	if sweepCatalog == "" {
		catalogs, err = store.List(ctx)
		if err != nil {
			return err
		}
		if len(catalogs) == 0 {
			return fmt.Errorf("no catalogs in %s", cfg.Data.Dir)
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Sweeping %d items against %d catalogs with %d workers\n", len(items), len(catalogs), workers)

	aggregator := compare.NewAggregator(cfg.Compare.Epsilon)
	sweeper := worker.NewBatchSweeper(store, aggregator, workers, logging.Default())
	outcomes := sweeper.Run(ctx, catalogs, items)

	out := cmd.OutOrStdout()
	failed := 0
	for _, o := range outcomes {
		if o.Error != nil {
			failed++
			fmt.Fprintf(out, "═══ %s: ✗ %v\n\n", o.Catalog, o.Error)
			continue
		}
		printSweep(out, o)
	}

	if sweepApply {
		if outcomes[0].Error != nil {
			return outcomes[0].Error
		}
		changed, err := list.Apply(outcomes[0].Results)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Updated %d list items\n", changed)
	}

	if failed == len(outcomes) {
		return fmt.Errorf("all %d catalogs failed", failed)
	}
	return nil
}

func printSweep(out io.Writer, o *worker.SweepOutcome) {
	fmt.Fprintf(out, "═══ %s (%d entries, %d/%d items found)\n", o.Catalog, o.Records, o.Found(), len(o.Results))
	for i, r := range o.Results {
		current := r.Item.Provider
		if current == "" {
			current = "-"
		}
		if r.Err != nil {
			fmt.Fprintf(out, "%3d. %-24s %-12s no offer\n", i+1, r.Item.Article, current)
			continue
		}
		marker := " "
		if r.Changed() {
			marker = "→"
		}
		fmt.Fprintf(out, "%3d. %-24s %-12s %s %-12s %s\n",
			i+1, r.Item.Article, current, marker, r.Offer.Record.Provider, unitPriceText(r.Offer.Record))
	}
	fmt.Fprintln(out)
}
