package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sugarwatch/pantry-cli/internal/model"
)

// outputFormat is shared by the commands that print results.
var outputFormat string

// render writes v to stdout in the selected format. The text format is
// handled per-type by the callers; anything else falls through to here.
func render(v any) error {
	switch outputFormat {
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "marshal yaml")
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

// renderOutcome prints one acquisition outcome.
func renderOutcome(w io.Writer, out model.Outcome) error {
	if outputFormat != "text" {
		return render(out)
	}

	switch out.Kind {
	case model.OutcomeAccepted:
		fmt.Fprintf(w, "accepted: %s (sugar %.1fg, cost %.2f, category %s)\n",
			out.Item.Name, out.Item.Sugar.Grams, out.Item.Cost, out.Item.Category)
	case model.OutcomeRejected:
		fmt.Fprintf(w, "rejected: %s\n", out.Reason)
	case model.OutcomeNeedsManualSugar:
		fmt.Fprintf(w, "needs manual sugar: %s (cost %.2f), rerun with --sugar\n",
			out.Item.Name, out.Item.Cost)
	case model.OutcomeNeedsMoreInput:
		if out.Item.Name != "" {
			fmt.Fprintf(w, "needs more input: found %q, rerun add with --name and --cost\n", out.Item.Name)
		} else {
			fmt.Fprintln(w, "needs more input: could not identify the product, use add with --name and --cost")
		}
	}
	return nil
}
