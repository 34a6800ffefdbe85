package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pricecmp/internal/model"
	"github.com/ppiankov/pricecmp/internal/shoplist"
	"github.com/ppiankov/pricecmp/internal/validate"
)

// listCmd groups the shopping list commands
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage the shopping list",
	Long: `Manage the shopping list file. Each line holds an article and optionally
the provider it is currently bought from, separated by "|".`,
}

var listShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the shopping list with indexes",
	Args:  cobra.NoArgs,
	RunE: withList(func(cmd *cobra.Command, list *shoplist.List, v *validate.Validator, args []string) error {
		items, err := list.Load()
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Shopping list %s is empty\n", list.Path())
			return nil
		}
		for i, item := range items {
			provider := item.Provider
			if provider == "" {
				provider = "-"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-24s %s\n", i, item.Article, provider)
		}
		return nil
	}),
}

var listPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the shopping list in file form",
	Args:  cobra.NoArgs,
	RunE: withList(func(cmd *cobra.Command, list *shoplist.List, v *validate.Validator, args []string) error {
		items, err := list.Load()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), shoplist.Text(items))
		return nil
	}),
}

var listAddCmd = &cobra.Command{
	Use:   "add <article> [provider]",
	Short: "Append an item",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withList(func(cmd *cobra.Command, list *shoplist.List, v *validate.Validator, args []string) error {
		item, err := listItem(v, args)
		if err != nil {
			return err
		}
		if err := list.Add(item); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Added %s\n", shoplist.Build(item))
		return nil
	}),
}

var listUpdateCmd = &cobra.Command{
	Use:   "update <index> <article> [provider]",
	Short: "Replace the item at index",
	Args:  cobra.RangeArgs(2, 3),
	RunE: withList(func(cmd *cobra.Command, list *shoplist.List, v *validate.Validator, args []string) error {
		index, err := listIndex(args[0])
		if err != nil {
			return err
		}
		item, err := listItem(v, args[1:])
		if err != nil {
			return err
		}
		if err := list.Update(index, item); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Updated %d: %s\n", index, shoplist.Build(item))
		return nil
	}),
}

var listDeleteCmd = &cobra.Command{
	Use:   "delete <index>",
	Short: "Remove the item at index",
	Args:  cobra.ExactArgs(1),
	RunE: withList(func(cmd *cobra.Command, list *shoplist.List, v *validate.Validator, args []string) error {
		index, err := listIndex(args[0])
		if err != nil {
			return err
		}
		if err := list.Delete(index); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Deleted item %d\n", index)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listShowCmd, listPrintCmd, listAddCmd, listUpdateCmd, listDeleteCmd)
}

func withList(fn func(cmd *cobra.Command, list *shoplist.List, v *validate.Validator, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v := validate.NewValidator(cfg.Limits.MaxText, cfg.Limits.MaxFilename)
		return fn(cmd, openList(cfg), v, args)
	}
}

func listItem(v *validate.Validator, args []string) (model.ListItem, error) {
	item := model.ListItem{Article: args[0]}
	if len(args) > 1 {
		item.Provider = args[1]
	}
	if err := v.Text("article", item.Article); err != nil {
		return model.ListItem{}, err
	}
	if err := v.OptionalText("provider", item.Provider); err != nil {
		return model.ListItem{}, err
	}
	return item, nil
}

func listIndex(s string) (int, error) {
	n, err := validate.Integer(s, 0, math.MaxInt32)
	if err != nil {
		return 0, fmt.Errorf("index: %w", err)
	}
	return int(n), nil
}
