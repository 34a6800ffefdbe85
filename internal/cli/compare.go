package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pricecmp/internal/compare"
	"github.com/ppiankov/pricecmp/internal/validate"
)

var (
	compareAmount string
	bestProvider  string
)

// compareCmd compares two entries of a catalog
var compareCmd = &cobra.Command{
	Use:   "compare <catalog> <idA> <idB>",
	Short: "Compare the unit prices of two catalog entries",
	Long: `Compare two entries of one catalog by price per base unit (g, ml or piece).

Both entries must be in the same quantity class. With --amount the price of
that many base units is shown for both entries.

Example:
  pricecmp compare preise.csv 3 4
  pricecmp compare preise.csv 3 4 --amount 1000`,
	Args: cobra.ExactArgs(3),
	RunE: runCompare,
}

// bestCmd finds the cheapest offer for an article
var bestCmd = &cobra.Command{
	Use:   "best <catalog> <article>",
	Short: "Find the cheapest offer for an article",
	Long: `Find the offer with the lowest unit price for an article.

Offers without a usable quantity only win if no offer has one; among them the
lowest package price wins. --provider reports how the current provider's offer
compares but never changes the result.

Example:
  pricecmp best preise.csv Milch
  pricecmp best preise.csv Milch --provider Aldi`,
	Args: cobra.ExactArgs(2),
	RunE: runBest,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(bestCmd)

	compareCmd.Flags().StringVar(&compareAmount, "amount", "", "amount in base units to price (e.g. 1000)")
	bestCmd.Flags().StringVar(&bestProvider, "provider", "", "current provider of the article")
}

func parseEntryID(s string) (int, error) {
	n, err := validate.Integer(s, 0, math.MaxInt32)
	if err != nil {
		return 0, fmt.Errorf("entry id %q: %w", s, err)
	}
	return int(n), nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idA, err := parseEntryID(args[1])
	if err != nil {
		return err
	}
	idB, err := parseEntryID(args[2])
	if err != nil {
		return err
	}
	amount := 0.0
	if compareAmount != "" {
		amount, err = validate.Decimal(compareAmount, 0.000001, 1e9, 6)
		if err != nil {
			return fmt.Errorf("amount: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cat, err := store.Load(ctx, args[0])
	if err != nil {
		return err
	}
	a, err := cat.Find(idA)
	if err != nil {
		return err
	}
	b, err := cat.Find(idB)
	if err != nil {
		return err
	}

	res, err := compare.NewAggregator(cfg.Compare.Epsilon).Compare(a, b)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "A: %s\n", describe(a))
	fmt.Fprintf(out, "   %.6f ct/%s\n", res.UnitPriceA, res.Unit())
	fmt.Fprintf(out, "B: %s\n", describe(b))
	fmt.Fprintf(out, "   %.6f ct/%s\n", res.UnitPriceB, res.Unit())
	fmt.Fprintln(out)

	switch res.Winner {
	case compare.First:
		fmt.Fprintf(out, "✓ A is cheaper per %s\n", res.Unit())
	case compare.Second:
		fmt.Fprintf(out, "✓ B is cheaper per %s\n", res.Unit())
	default:
		fmt.Fprintf(out, "= A and B cost the same per %s\n", res.Unit())
	}

	if amount > 0 {
		totalA, totalB := res.Totals(amount)
		fmt.Fprintf(out, "\nPrice for %s %s:\n", strconv.FormatFloat(amount, 'f', -1, 64), res.Unit())
		fmt.Fprintf(out, "  A: %s\n", euroAmount(totalA))
		fmt.Fprintf(out, "  B: %s\n", euroAmount(totalB))
	}
	return nil
}

func runBest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cat, err := store.Load(ctx, args[0])
	if err != nil {
		return err
	}

	offer, err := compare.NewAggregator(cfg.Compare.Epsilon).Best(cat.Records, args[1], bestProvider)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Best offer for %s (%d offers):\n", args[1], offer.Matches)
	fmt.Fprintf(out, "  %s\n", describe(offer.Record))
	if offer.UnitPrice != nil {
		fmt.Fprintf(out, "  %.6f ct/%s\n", *offer.UnitPrice, offer.Class.BaseLabel())
	} else {
		fmt.Fprintf(out, "  no usable quantity, chosen by package price\n")
	}
	if offer.Skipped > 0 {
		fmt.Fprintf(out, "  %d offers in other units not compared\n", offer.Skipped)
	}

	if bestProvider != "" {
		switch {
		case offer.Current == nil:
			fmt.Fprintf(out, "\n%s does not offer %s\n", bestProvider, args[1])
		case offer.IsCurrent():
			fmt.Fprintf(out, "\n✓ %s already has the best offer\n", bestProvider)
		default:
			fmt.Fprintf(out, "\n%s: %s (%s)\n", bestProvider, describe(*offer.Current), unitPriceText(*offer.Current))
		}
	}
	return nil
}
