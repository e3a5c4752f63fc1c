package aggregate

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/wxsummary/internal/types"
)

// AggregateYear folds up to twelve monthly summaries into a YearlySummary. Months
// without data are expected to be absent from the input. The three yearly means are
// plain means of the monthly means, so a short month weighs as much as a full one.
// It returns nil when months is empty.
func AggregateYear(months []types.MonthlySummary) *types.YearlySummary {
	if len(months) == 0 {
		return nil
	}

	var (
		tempMax, tempMin         extremum
		gust                     gustTracker
		precipitation, radiation float64
	)
	tempMaxMeans := make([]float64, 0, len(months))
	tempMeans := make([]float64, 0, len(months))
	windMeans := make([]float64, 0, len(months))

	for _, m := range months {
		tempMax = tempMax.max(m.TempMax)
		tempMin = tempMin.min(m.TempMin)
		gust = gust.offer(m.GustSpeed, m.GustDirection)
		precipitation += m.PrecipitationTotal
		radiation += m.RadiationTotal

		tempMaxMeans = append(tempMaxMeans, m.TempMaxMean)
		tempMeans = append(tempMeans, m.TempMean)
		windMeans = append(windMeans, m.WindSpeedMean)
	}

	gustSpeed, gustDirection := gust.result()

	return &types.YearlySummary{
		StationCode:        months[0].StationCode,
		Year:               months[0].Year,
		TempMax:            tempMax.value,
		TempMin:            tempMin.value,
		PrecipitationTotal: precipitation,
		RadiationTotal:     radiation,
		GustSpeed:          gustSpeed,
		GustDirection:      gustDirection,
		TempMaxMean:        stat.Mean(tempMaxMeans, nil),
		TempMean:           stat.Mean(tempMeans, nil),
		WindSpeedMean:      stat.Mean(windMeans, nil),
		MonthsWithData:     len(months),
	}
}

// yearMonth extracts the calendar year and month from a YYYY-MM-DD date.
// Unparseable dates yield zeros.
func yearMonth(date string) (int, int) {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return 0, 0
	}
	return t.Year(), int(t.Month())
}
