package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pricecmp/internal/catalog"
	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/quantity"
	"github.com/ppiankov/pricecmp/internal/validate"
)

var importSQLitePath string

// dbCmd groups the catalog commands
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage price catalogs",
	Long: `Manage price catalogs in the data directory (or the SQLite backend).

Quantities are given as free text such as "500g", "1,5 l" or "6 Stück".`,
}

var dbFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List catalogs",
	Args:  cobra.NoArgs,
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, env *storeEnv, args []string) error {
		names, err := env.store.List(ctx)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No catalogs found in %s\n", env.cfg.Data.Dir)
			return nil
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}),
}

var dbShowCmd = &cobra.Command{
	Use:   "show <catalog>",
	Short: "Show the entries of a catalog",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, env *storeEnv, args []string) error {
		cat, err := env.store.Load(ctx, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%5s  %-24s %-14s %10s %12s  %s\n", "ID", "ARTICLE", "PROVIDER", "PRICE", "QUANTITY", "UNIT PRICE")
		for _, rec := range cat.Records {
			fmt.Fprintf(out, "%5d  %-24s %-14s %10s %12s  %s\n",
				rec.ID, rec.Article, rec.Provider, euro(rec.PriceCents),
				quantity.Format(rec.QuantityValue)+" "+rec.QuantityUnit, unitPriceText(rec))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%d entries\n", len(cat.Records))
		return nil
	}),
}

var dbCreateCmd = &cobra.Command{
	Use:   "create <catalog>",
	Short: "Create an empty catalog",
	Args:  cobra.ExactArgs(1),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, env *storeEnv, args []string) error {
		if err := env.store.Create(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Created %s\n", args[0])
		return nil
	}),
}

var dbAddCmd = &cobra.Command{
	Use:   "add <catalog> <article> <provider> <priceCents> <quantity>",
	Short: "Add an entry",
	Example: `  pricecmp db add preise.csv Milch Aldi 109 "1 l"
  pricecmp db add preise.csv Eier Rewe 239 "10 Stück"`,
	Args: cobra.ExactArgs(5),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, env *storeEnv, args []string) error {
		rec, err := env.record(args[1], args[2], args[3], args[4])
		if err != nil {
			return err
		}
		var added model.PriceRecord
		err = catalog.NewEditor(env.store).Edit(ctx, args[0], func(cat *catalog.Catalog) error {
			var addErr error
			added, addErr = cat.Add(rec)
			return addErr
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Added %s\n", describe(added))
		return nil
	}),
}

var dbUpdateCmd = &cobra.Command{
	Use:   "update <catalog> <id> <article> <provider> <priceCents> <quantity>",
	Short: "Replace an entry",
	Args:  cobra.ExactArgs(6),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, env *storeEnv, args []string) error {
		id, err := parseEntryID(args[1])
		if err != nil {
			return err
		}
		rec, err := env.record(args[2], args[3], args[4], args[5])
		if err != nil {
			return err
		}
		rec.ID = id

		err = catalog.NewEditor(env.store).Edit(ctx, args[0], func(cat *catalog.Catalog) error {
			return cat.Update(rec)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Updated %s\n", describe(rec))
		return nil
	}),
}

var dbDeleteCmd = &cobra.Command{
	Use:   "delete <catalog> <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(2),
	RunE: withStore(func(ctx context.Context, cmd *cobra.Command, env *storeEnv, args []string) error {
		id, err := parseEntryID(args[1])
		if err != nil {
			return err
		}
		err = catalog.NewEditor(env.store).Edit(ctx, args[0], func(cat *catalog.Catalog) error {
			return cat.Delete(id)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Deleted entry %d from %s\n", id, args[0])
		return nil
	}),
}

var dbImportCmd = &cobra.Command{
	Use:   "import <catalog>",
	Short: "Copy a CSV catalog into the SQLite database",
	Long: `Copy a CSV catalog from the data directory into the SQLite database used
by the sqlite backend. Entries already imported under the same name are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.Data.SQLitePath
		if importSQLitePath != "" {
			path = importSQLitePath
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		dst, err := catalog.OpenSQLite(ctx, path, cfg.Limits.MaxArticles, catalog.WithSQLiteMaxFilename(cfg.Limits.MaxFilename))
		if err != nil {
			return err
		}
		defer dst.Close()

		n, err := catalog.Import(ctx, openCSVStore(cfg), dst, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Imported %d entries from %s into %s\n", n, args[0], path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbFilesCmd, dbShowCmd, dbCreateCmd, dbAddCmd, dbUpdateCmd, dbDeleteCmd, dbImportCmd)

	dbImportCmd.Flags().StringVar(&importSQLitePath, "sqlite", "", "SQLite database path (overrides data.sqlite_path)")
}

// storeEnv is what catalog commands run against
type storeEnv struct {
	cfg       *model.Config
	store     catalog.Store
	validator *validate.Validator
}

// withStore loads config, opens the store and runs fn with a bounded context
func withStore(fn func(ctx context.Context, cmd *cobra.Command, env *storeEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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

		env := &storeEnv{
			cfg:       cfg,
			store:     store,
			validator: validate.NewValidator(cfg.Limits.MaxText, cfg.Limits.MaxFilename),
		}
		return fn(ctx, cmd, env, args)
	}
}

// record validates command line entry fields. The quantity is free text
// and is stored in its canonical unit.
func (e *storeEnv) record(article, provider, price, quantityText string) (model.PriceRecord, error) {
	if err := e.validator.Text("article", article); err != nil {
		return model.PriceRecord{}, err
	}
	if err := e.validator.Text("provider", provider); err != nil {
		return model.PriceRecord{}, err
	}
	cents, err := validate.Integer(price, 0, math.MaxInt32)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("price: %w", err)
	}
	value, unit, err := quantity.Parse(quantityText)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("quantity: %w", err)
	}
	if !(value > 0) {
		return model.PriceRecord{}, fmt.Errorf("quantity: %w: must be positive", validate.ErrInvalidInput)
	}
	value, unit, err = quantity.Canonical(value, unit)
	if err != nil {
		return model.PriceRecord{}, fmt.Errorf("quantity: %w", err)
	}
	return model.PriceRecord{
		Article:       article,
		Provider:      provider,
		PriceCents:    int(cents),
		QuantityValue: value,
		QuantityUnit:  unit,
	}, nil
}
