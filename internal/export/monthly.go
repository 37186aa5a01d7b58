package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"emotion-diary/internal/domain"
)

const (
	DailySheet    = "Daily"
	PatternsSheet = "Patterns"
)

// MonthlyFileName devuelve el nombre de descarga del libro del mes.
func MonthlyFileName(stat domain.MonthlyStat) string {
	return fmt.Sprintf("emotion-stats-%04d-%02d.xlsx", stat.Year, stat.Month)
}

func dailyHeader() []string {
	header := []string{"Date", "Total", "Dominant", "Avg Intensity"}
	for _, e := range domain.Emotions() {
		header = append(header, e.String())
	}
	return header
}

// MonthlyWorkbook vuelca la estadística mensual en un xlsx con una hoja diaria y otra de proporciones.
// Las filas diarias siguen las semanas del mes, incluidos los días vecinos que esas semanas cubren.
func MonthlyWorkbook(stat domain.MonthlyStat) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DailySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PatternsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, DailySheet, 1, toCells(dailyHeader())); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(DailySheet, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}

	row := 2
	for _, week := range stat.WeeklyStats {
		for _, day := range week.DailyStats {
			cells := []any{day.Date, day.TotalEntries, day.DominantEmotion.String(), day.AvgIntensity}
			for _, e := range domain.Emotions() {
				cells = append(cells, day.EmotionDistribution[e])
			}
			if err := writeRow(f, DailySheet, row, cells); err != nil {
				return nil, err
			}
			row++
		}
	}
	if err := f.SetColWidth(DailySheet, "A", "A", 14); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	if err := writeRow(f, PatternsSheet, 1, []any{"Emotion", "Share"}); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(PatternsSheet, 1, 1, headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}
	row = 2
	for _, e := range domain.Emotions() {
		share, ok := stat.EmotionPatterns[e]
		if !ok {
			continue
		}
		if err := writeRow(f, PatternsSheet, row, []any{e.String(), share}); err != nil {
			return nil, err
		}
		row++
	}
	if err := writeRow(f, PatternsSheet, row, []any{"Total entries", stat.TotalEntries}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
