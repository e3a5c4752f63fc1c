// Package aggregate folds provider observations into daily, monthly and yearly
// summaries. Every function here is pure: inputs are never modified and the same
// input always yields the same output.
package aggregate

import (
	"github.com/chrissnell/wxsummary/internal/types"
	"github.com/chrissnell/wxsummary/internal/units"
)

// DeriveDailyRecords enriches each daily observation with the peak humidity,
// radiation total and peak gust computed from the hourly observations of the same
// date. The result has exactly one record per daily observation, in input order.
// Hourly observations whose date matches no daily observation are ignored.
func DeriveDailyRecords(daily []types.DailyObservation, hourly []types.HourlyObservation) []types.ProcessedDailyRecord {
	byDate := make(map[string][]types.HourlyObservation)
	for _, h := range hourly {
		byDate[h.Date] = append(byDate[h.Date], h)
	}

	records := make([]types.ProcessedDailyRecord, 0, len(daily))
	for _, d := range daily {
		records = append(records, DeriveDay(d, byDate[d.Date]))
	}
	return records
}

// DeriveDay derives a single processed record from a daily observation and the
// hourly observations that belong to its date.
func DeriveDay(day types.DailyObservation, hours []types.HourlyObservation) types.ProcessedDailyRecord {
	rec := types.ProcessedDailyRecord{DailyObservation: day}
	if len(hours) == 0 {
		return rec
	}

	var peak extremum
	var gust gustTracker
	for _, h := range hours {
		if hv := hourHumidity(h); hv != nil {
			peak = peak.max(*hv)
		}
		rec.RadiationTotal += units.RadiationEnergyOrZero(h.Radiation)
		gust = gust.offer(h.WindGust, h.WindGustDirection)
	}

	rec.PeakHumidity = peak.ptr()
	rec.GustSpeed, rec.GustDirection = gust.result()
	return rec
}

// hourHumidity prefers the hour's maximum humidity and falls back to its mean.
func hourHumidity(h types.HourlyObservation) *float64 {
	if h.HumidityMax != nil {
		return h.HumidityMax
	}
	return h.HumidityMean
}
