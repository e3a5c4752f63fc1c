package aggregate

import (
	"github.com/chrissnell/wxsummary/internal/types"
)

// monthAccumulator is the fold state for AggregateMonth. Each step returns a new
// value so the fold never mutates shared state.
type monthAccumulator struct {
	tempMax       extremum
	tempMin       extremum
	humidityMax   extremum
	humidityMin   extremum
	gust          gustTracker
	precipitation float64
	radiation     float64
	tempMaxMean   runningMean
	tempMean      runningMean
	humidityMean  runningMean
	windSpeed     runningMean
	days          int
}

func (a monthAccumulator) add(d types.ProcessedDailyRecord) monthAccumulator {
	// A missing daily max or min temperature counts as 0 here. Months whose real
	// readings all sit below (or above) zero therefore report a 0 extreme.
	a.tempMax = a.tempMax.max(valueOrZero(d.TempMax))
	a.tempMin = a.tempMin.min(valueOrZero(d.TempMin))

	if d.PeakHumidity != nil {
		a.humidityMax = a.humidityMax.max(*d.PeakHumidity)
	}
	if d.HumidityMin != nil {
		a.humidityMin = a.humidityMin.min(*d.HumidityMin)
	}

	a.gust = a.gust.offer(d.GustSpeed, d.GustDirection)

	a.precipitation += valueOrZero(d.Precipitation)
	a.radiation += d.RadiationTotal

	a.tempMaxMean = a.tempMaxMean.add(d.TempMax)
	a.tempMean = a.tempMean.add(d.TempMean)
	a.humidityMean = a.humidityMean.add(d.HumidityMean)
	a.windSpeed = a.windSpeed.add(d.WindSpeedMean)

	a.days++
	return a
}

// AggregateMonth folds the processed daily records of one calendar month into a
// MonthlySummary. The records may cover any subset of the month. Station, year and
// month are taken from the first record. It returns nil when days is empty.
func AggregateMonth(days []types.ProcessedDailyRecord) *types.MonthlySummary {
	if len(days) == 0 {
		return nil
	}

	var acc monthAccumulator
	for _, d := range days {
		acc = acc.add(d)
	}

	year, month := yearMonth(days[0].Date)
	gustSpeed, gustDirection := acc.gust.result()

	return &types.MonthlySummary{
		StationCode:        days[0].StationCode,
		Year:               year,
		Month:              month,
		TempMax:            acc.tempMax.value,
		TempMin:            acc.tempMin.value,
		TempMaxMean:        acc.tempMaxMean.value(),
		TempMean:           acc.tempMean.value(),
		HumidityMax:        acc.humidityMax.ptr(),
		HumidityMin:        acc.humidityMin.ptr(),
		HumidityMean:       acc.humidityMean.value(),
		PrecipitationTotal: acc.precipitation,
		RadiationTotal:     acc.radiation,
		WindSpeedMean:      acc.windSpeed.value(),
		GustSpeed:          gustSpeed,
		GustDirection:      gustDirection,
		Days:               acc.days,
		Coverage: types.MeanCoverage{
			TempMaxDays:      acc.tempMaxMean.count,
			TempMeanDays:     acc.tempMean.count,
			HumidityMeanDays: acc.humidityMean.count,
			WindSpeedDays:    acc.windSpeed.count,
		},
	}
}
