package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/model"
)

var (
	addName     string
	addCost     float64
	addSugar    float64
	addCategory string
	addQuantity int
	addNoSave   bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an item by name",
	Long:  "Runs the manual entry path: the item is safety-vetted, its sugar content is looked up when not given, and the result is saved to the pantry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		cand := model.CandidateItem{
			Name:     addName,
			Cost:     addCost,
			Category: model.ParseCategory(addCategory),
		}
		if cmd.Flags().Changed("sugar") {
			cand.Sugar = model.Grams(addSugar)
		}

		out := env.Acquisition.Submit(ctx, cand)

		if out.Kind == model.OutcomeAccepted && !addNoSave {
			item, err := model.FoodItemFromCandidate(out.Item, env.Owner)
			if err != nil {
				return eris.Wrap(err, "build item")
			}
			if addQuantity > 1 {
				item.Quantity = addQuantity
			}
			saved, err := env.Store.CreateItem(ctx, item)
			if err != nil {
				return eris.Wrap(err, "save item")
			}
			zap.L().Info("item saved",
				zap.String("id", saved.ID),
				zap.String("name", saved.Name),
				zap.Float64("sugar", saved.Sugar),
			)
		}

		return renderOutcome(cmd.OutOrStdout(), out)
	},
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "product name (required)")
	addCmd.Flags().Float64Var(&addCost, "cost", 0, "purchase cost (required)")
	addCmd.Flags().Float64Var(&addSugar, "sugar", 0, "sugar in grams; omit to look it up")
	addCmd.Flags().StringVar(&addCategory, "category", "other", "category: fruits, snacks, meals, drinks, sweets, other")
	addCmd.Flags().IntVar(&addQuantity, "quantity", 1, "number of packs")
	addCmd.Flags().BoolVar(&addNoSave, "no-save", false, "vet only, do not persist")
	addCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	_ = addCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(addCmd)
}
