package export

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/maturity-cli/internal/model"
)

const (
	leaderboardSheet = "Leaderboard"
	industrySheet    = "Industry"
)

var leaderboardHeader = []string{"Rank", "Alias", "Sector", "Company Size", "Overall", "Rating", "Badge"}

// WriteLeaderboardXLSX writes leaderboard entries as a single-sheet workbook.
func WriteLeaderboardXLSX(w io.Writer, entries []model.LeaderboardEntry) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(leaderboardSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add leaderboard sheet")
	}
	addStringRow(sheet, leaderboardHeader)

	for _, e := range entries {
		row := sheet.AddRow()
		row.AddCell().SetInt(e.Rank)
		row.AddCell().SetString(e.Alias)
		row.AddCell().SetString(e.Sector)
		row.AddCell().SetString(e.CompanySize)
		row.AddCell().SetInt(e.Overall)
		row.AddCell().SetFloat(e.Rating)
		row.AddCell().SetString(e.Badge)
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write leaderboard")
	}
	return nil
}

// WriteIndustryXLSX writes per-sector averages. Dimension columns follow the
// order of dims; dimensions a sector has no average for are left blank.
func WriteIndustryXLSX(w io.Writer, rows []model.IndustryBenchmark, dims []model.Dimension) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(industrySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add industry sheet")
	}

	header := []string{"Sector", "Sample Size", "Overall"}
	for _, d := range dims {
		header = append(header, d.Name)
	}
	addStringRow(sheet, header)

	sorted := make([]model.IndustryBenchmark, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sector < sorted[j].Sector })

	for _, ib := range sorted {
		row := sheet.AddRow()
		row.AddCell().SetString(ib.Sector)
		row.AddCell().SetInt(ib.SampleSize)
		row.AddCell().SetFloat(ib.Overall)
		for _, d := range dims {
			cell := row.AddCell()
			if v, ok := ib.Dimensions[d.ID]; ok {
				cell.SetFloat(v)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "xlsx: write industry")
	}
	return nil
}

func addStringRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
