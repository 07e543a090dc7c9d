package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sugarwatch/pantry-cli/internal/export"
	"github.com/sugarwatch/pantry-cli/internal/model"
	"github.com/sugarwatch/pantry-cli/internal/store"
)

var (
	itemsQuery    string
	itemsCategory string
	itemsLimit    int
	itemsOffset   int
	exportPath    string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Manage saved pantry items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved items",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		items, err := env.Store.ListItems(ctx, store.ItemFilter{
			Owner:    env.Owner,
			Query:    itemsQuery,
			Category: model.Category(itemsCategory),
			Limit:    itemsLimit,
			Offset:   itemsOffset,
		})
		if err != nil {
			return err
		}

		if outputFormat != "text" {
			return render(items)
		}
		w := cmd.OutOrStdout()
		for _, it := range items {
			fmt.Fprintf(w, "%s  %-30s  sugar %6.1fg  cost %8.2f  x%d  %s\n",
				it.ID, it.Name, it.Sugar, it.Cost, it.Quantity, it.Category)
		}
		fmt.Fprintf(w, "%d item(s)\n", len(items))
		return nil
	},
}

var itemsTotalCmd = &cobra.Command{
	Use:   "total",
	Short: "Show sugar and spend totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		totals, err := env.Store.Totals(ctx, env.Owner)
		if err != nil {
			return err
		}

		if outputFormat != "text" {
			return render(totals)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "items:       %d\n", totals.Items)
		fmt.Fprintf(w, "total sugar: %.1f g\n", totals.SugarGrams)
		fmt.Fprintf(w, "total spend: %.2f\n", totals.Cost)
		fmt.Fprintf(w, "avg cost:    %.2f\n", totals.AvgCost)
		return nil
	},
}

var itemsSetQuantityCmd = &cobra.Command{
	Use:   "set-quantity <id> <quantity>",
	Short: "Change how many packs of an item are on hand",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var quantity int
		if _, err := fmt.Sscanf(args[1], "%d", &quantity); err != nil {
			return eris.Errorf("invalid quantity %q", args[1])
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.UpdateQuantity(ctx, args[0], env.Owner, quantity); err != nil {
			return err
		}
		zap.L().Info("quantity updated", zap.String("id", args[0]), zap.Int("quantity", quantity))
		return nil
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.DeleteItem(ctx, args[0], env.Owner); err != nil {
			return err
		}
		zap.L().Info("item deleted", zap.String("id", args[0]))
		return nil
	},
}

var itemsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the pantry to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var (
			items  []model.FoodItem
			totals *store.Totals
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			items, err = env.Store.ListItems(gctx, store.ItemFilter{Owner: env.Owner, Limit: 10000})
			return err
		})
		g.Go(func() error {
			var err error
			totals, err = env.Store.Totals(gctx, env.Owner)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		if err := export.WriteXLSX(exportPath, items, totals); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d item(s) to %s\n", len(items), exportPath)
		return nil
	},
}

func init() {
	itemsListCmd.Flags().StringVar(&itemsQuery, "query", "", "filter by name or category substring")
	itemsListCmd.Flags().StringVar(&itemsCategory, "category", "", "filter by exact category")
	itemsListCmd.Flags().IntVar(&itemsLimit, "limit", 100, "max items to list")
	itemsListCmd.Flags().IntVar(&itemsOffset, "offset", 0, "items to skip")
	itemsListCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	itemsTotalCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	itemsExportCmd.Flags().StringVar(&exportPath, "file", "pantry.xlsx", "output path")

	itemsCmd.AddCommand(itemsListCmd, itemsTotalCmd, itemsSetQuantityCmd, itemsDeleteCmd, itemsExportCmd)
	rootCmd.AddCommand(itemsCmd)
}
