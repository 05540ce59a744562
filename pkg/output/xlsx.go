package output

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/ThejanDulara/MMM-Reach/internal/portfolio"
	"github.com/ThejanDulara/MMM-Reach/pkg/mathutil"
)

// MediaPlanSheet is the name of the worksheet written by XLSXFormat.
const MediaPlanSheet = "Media Plan"

var xlsxHeader = []string{"Channel", "Model", "Target Efficiency (%)", "Budget", "Reach", "Budget Share (%)"}

// BuildWorkbook lays res out as a media plan workbook with one row per channel
// and a closing total row. Budgets are rounded to cents.
func BuildWorkbook(res *portfolio.Result) (*xlsx.File, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(MediaPlanSheet)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: add sheet")
	}

	header := sheet.AddRow()
	for _, title := range xlsxHeader {
		header.AddCell().SetString(title)
	}

	for _, r := range res.Results {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Channel)
		row.AddCell().SetString(r.SelectedModel)
		row.AddCell().SetFloat(r.TargetEfficiency)
		row.AddCell().SetFloat(mathutil.Round(r.Budget))
		row.AddCell().SetFloat(r.Reach)
		row.AddCell().SetFloat(r.BudgetShare)
	}

	total := sheet.AddRow()
	total.AddCell().SetString("Total")
	total.AddCell().SetString("")
	total.AddCell().SetString("")
	total.AddCell().SetFloat(mathutil.Round(res.TotalBudget))
	total.AddCell().SetFloat(res.TotalReach)

	return f, nil
}

// XLSXFormat writes res as an xlsx workbook.
func XLSXFormat(w io.Writer, res *portfolio.Result) error {
	f, err := BuildWorkbook(res)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "xlsx: write workbook")
}
