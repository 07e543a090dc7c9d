package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/capture"
	"github.com/sugarwatch/pantry-cli/internal/model"
)

var (
	scanImage     string
	scanCameraURL string
	scanNoSave    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Add an item from a package photo",
	Long:  "Runs the image entry path: captures one frame, identifies the product, then vets it exactly like manual entry. Use --image for a photo on disk or --camera-url for a network camera snapshot endpoint.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var dev capture.Device
		switch {
		case scanImage != "":
			dev = capture.NewFileDevice(scanImage)
		case scanCameraURL != "":
			dev = capture.NewHTTPDevice(scanCameraURL)
		case cfg.Capture.SnapshotURL != "":
			dev = capture.NewHTTPDevice(cfg.Capture.SnapshotURL)
		default:
			return eris.New("scan needs --image, --camera-url, or capture.snapshot_url in config")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		out, err := env.Acquisition.Scan(ctx, dev)
		if err != nil {
			return eris.Wrap(err, "scan")
		}

		if out.Kind == model.OutcomeAccepted && !scanNoSave {
			item, err := model.FoodItemFromCandidate(out.Item, env.Owner)
			if err != nil {
				return eris.Wrap(err, "build item")
			}
			saved, err := env.Store.CreateItem(ctx, item)
			if err != nil {
				return eris.Wrap(err, "save item")
			}
			zap.L().Info("scanned item saved",
				zap.String("id", saved.ID),
				zap.String("name", saved.Name),
			)
		}

		return renderOutcome(cmd.OutOrStdout(), out)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanImage, "image", "", "path to a package photo")
	scanCmd.Flags().StringVar(&scanCameraURL, "camera-url", "", "network camera snapshot URL")
	scanCmd.Flags().BoolVar(&scanNoSave, "no-save", false, "vet only, do not persist")
	scanCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
	rootCmd.AddCommand(scanCmd)
}
