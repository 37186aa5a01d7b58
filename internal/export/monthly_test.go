package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"emotion-diary/internal/domain"
)

func TestMonthlyWorkbook(t *testing.T) {
	stat := domain.MonthlyStat{
		Month:        3,
		Year:         2024,
		TotalEntries: 3,
		WeeklyStats: []domain.WeeklyStat{{
			WeekStart: "2024-02-26",
			WeekEnd:   "2024-03-03",
			DailyStats: []domain.DailyStat{
				{Date: "2024-02-26", DominantEmotion: domain.NoDataEmotion, EmotionDistribution: map[domain.Emotion]int{}},
				{
					Date:                "2024-03-01",
					TotalEntries:        3,
					DominantEmotion:     domain.EmotionJoy,
					AvgIntensity:        0.7,
					EmotionDistribution: map[domain.Emotion]int{domain.EmotionJoy: 2, domain.EmotionAnxiety: 1},
				},
			},
		}},
		EmotionPatterns: map[domain.Emotion]float64{domain.EmotionJoy: 2.0 / 3, domain.EmotionAnxiety: 1.0 / 3},
	}

	raw, err := MonthlyWorkbook(stat)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(DailySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, dailyHeader(), rows[0])
	require.Equal(t, "2024-03-01", rows[2][0])
	require.Equal(t, "3", rows[2][1])
	require.Equal(t, "радость", rows[2][2])
	require.Equal(t, "2", rows[2][4])
	require.Equal(t, "1", rows[2][9])

	patterns, err := f.GetRows(PatternsSheet)
	require.NoError(t, err)
	require.Equal(t, []string{"Emotion", "Share"}, patterns[0])
	require.Equal(t, "радость", patterns[1][0])
	require.Equal(t, "тревога", patterns[2][0])
	require.Equal(t, []string{"Total entries", "3"}, patterns[3])

	require.Equal(t, "emotion-stats-2024-03.xlsx", MonthlyFileName(stat))
}
