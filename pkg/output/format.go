// Package output provides utilities for formatting and displaying portfolio results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
	"github.com/ThejanDulara/MMM-Reach/pkg/constants"
	"github.com/ThejanDulara/MMM-Reach/pkg/format"
)

// Write renders res to w in the named format. The xlsx format writes a workbook.
func Write(w io.Writer, outputFormat string, res *portfolio.Result) error {
	if res == nil {
		return eris.New("output: nil result")
	}
	switch outputFormat {
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, res)
	case constants.OutputFormatCSV:
		return CsvFormat(w, res)
	case constants.OutputFormatJSON:
		return JSONFormat(w, res)
	case constants.OutputFormatXLSX:
		return XLSXFormat(w, res)
	}
	return eris.Errorf("output: unsupported format %q", outputFormat)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, res *portfolio.Result) error {
	p := message.NewPrinter(language.English)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "--- Efficiency point per channel ---")
	fmt.Fprintln(tw, "Channel\tModel\tEfficiency\tBudget\tReach\tShare")
	fmt.Fprintln(tw, "_______\t_____\t__________\t______\t_____\t_____")
	for _, r := range res.Results {
		_, _ = p.Fprintf(tw, "%s\t%s\t%.0f%%\t%s\t%.2f\t%s\n",
			r.Channel, r.SelectedModel, r.TargetEfficiency,
			format.Currency(r.Budget), r.Reach, format.Percent(r.BudgetShare))
	}
	_, _ = p.Fprintf(tw, "Total\t\t\t%s\t%.2f\t\n", format.Currency(res.TotalBudget), res.TotalReach)

	return eris.Wrap(tw.Flush(), "output: flush table")
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, res *portfolio.Result) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"channel", "selected_model", "target_efficiency", "budget", "reach", "budget_share"}}
	for _, r := range res.Results {
		records = append(records, []string{
			r.Channel,
			r.SelectedModel,
			formatFloat(r.TargetEfficiency),
			formatFloat(r.Budget),
			formatFloat(r.Reach),
			formatFloat(r.BudgetShare),
		})
	}
	records = append(records, []string{"Total", "", "", formatFloat(res.TotalBudget), formatFloat(res.TotalReach), ""})

	if err := cw.WriteAll(records); err != nil {
		return eris.Wrap(err, "output: write csv")
	}
	return nil
}

// JSONFormat outputs the result in the same shape as the analyze API response.
func JSONFormat(w io.Writer, res *portfolio.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "output: encode json")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
