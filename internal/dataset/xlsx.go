package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/starmap/internal/models"
)

// Columns read from a sheet, in default order when the sheet has no header row.
var xlsxColumns = []string{"id", "x", "y", "label", "token_count", "cluster"}

// XLSXSource reads points from the first sheet of a workbook. Clusters are derived from the
// optional cluster column, anchored at the centroid of their valid members.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource returns a source for the workbook at path. An empty sheet means the first one.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

// Path returns the workbook path.
func (s *XLSXSource) Path() string { return s.path }

// Load reads the sheet. A first row whose x cell is not numeric is treated as a header and
// its names select the columns.
func (s *XLSXSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return finish(parseRows(rows), s.path, started), nil
}

func parseRows(rows [][]string) *models.Dataset {
	cols := make(map[string]int, len(xlsxColumns))
	for i, name := range xlsxColumns {
		cols[name] = i
	}
	if len(rows) > 0 && isHeader(rows[0]) {
		cols = make(map[string]int)
		for i, name := range rows[0] {
			cols[strings.ToLower(strings.TrimSpace(name))] = i
		}
		rows = rows[1:]
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	ds := &models.Dataset{}
	type acc struct {
		sx, sy float64
		n      int
	}
	var sums []acc
	byName := make(map[string]int)
	for _, row := range rows {
		id := cell(row, "id")
		if id == "" {
			continue
		}
		p := models.Point{
			ID:    id,
			X:     parseFloat(cell(row, "x")),
			Y:     parseFloat(cell(row, "y")),
			Label: cell(row, "label"),
		}
		if tc, err := strconv.Atoi(cell(row, "token_count")); err == nil {
			p.TokenCount = tc
		}
		ds.Points = append(ds.Points, p)

		name := cell(row, "cluster")
		if name == "" {
			continue
		}
		ci, ok := byName[name]
		if !ok {
			ci = len(ds.Clusters)
			byName[name] = ci
			ds.Clusters = append(ds.Clusters, models.Cluster{Label: name})
			sums = append(sums, acc{})
		}
		ds.Clusters[ci].PointIDs = append(ds.Clusters[ci].PointIDs, id)
		if p.Valid() {
			sums[ci].sx += p.X
			sums[ci].sy += p.Y
			sums[ci].n++
		}
	}
	for i, a := range sums {
		if a.n == 0 {
			ds.Clusters[i].X, ds.Clusters[i].Y = math.NaN(), math.NaN()
			continue
		}
		ds.Clusters[i].X = a.sx / float64(a.n)
		ds.Clusters[i].Y = a.sy / float64(a.n)
	}
	return ds
}

func isHeader(row []string) bool {
	if len(row) < 2 {
		return len(row) == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "id")
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	return err != nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
