// Package export writes pantry contents to spreadsheet files.
package export

import (
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sugarwatch/pantry-cli/internal/model"
	"github.com/sugarwatch/pantry-cli/internal/store"
)

var itemHeader = []string{"Name", "Sugar (g)", "Cost", "Quantity", "Category", "Added"}

// WriteXLSX writes the items and their totals to an xlsx workbook at path.
// The Items sheet has one row per item; the Totals sheet aggregates with
// quantities counted.
func WriteXLSX(path string, items []model.FoodItem, totals *store.Totals) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Items")
	if err != nil {
		return eris.Wrap(err, "export: add items sheet")
	}

	header := sheet.AddRow()
	for _, h := range itemHeader {
		header.AddCell().SetString(h)
	}

	for _, item := range items {
		row := sheet.AddRow()
		row.AddCell().SetString(item.Name)
		row.AddCell().SetFloat(item.Sugar)
		row.AddCell().SetFloat(item.Cost)
		row.AddCell().SetString(strconv.Itoa(item.Quantity))
		row.AddCell().SetString(string(item.Category))
		row.AddCell().SetString(item.CreatedAt.Format("2006-01-02"))
	}

	if totals != nil {
		summary, err := f.AddSheet("Totals")
		if err != nil {
			return eris.Wrap(err, "export: add totals sheet")
		}
		for _, line := range []struct {
			label string
			value float64
		}{
			{"Total sugar (g)", totals.SugarGrams},
			{"Total spend", totals.Cost},
			{"Items", float64(totals.Items)},
			{"Average cost", totals.AvgCost},
		} {
			row := summary.AddRow()
			row.AddCell().SetString(line.label)
			row.AddCell().SetFloat(line.value)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
