// Package types holds the record types that flow through the aggregation pipeline.
// Optional readings are pointers: nil means the provider sent no usable value.
package types

import (
	"time"

	"github.com/google/uuid"
)

// HourlyObservation is one hourly reading as reported by the provider.
// Date is YYYY-MM-DD and Time is HHMM, both in UTC.
type HourlyObservation struct {
	StationCode       string   `json:"station_code"`
	Date              string   `json:"date"`
	Time              string   `json:"time"`
	TempMin           *float64 `json:"temp_min"`
	TempMax           *float64 `json:"temp_max"`
	HumidityMin       *float64 `json:"humidity_min"`
	HumidityMax       *float64 `json:"humidity_max"`
	HumidityMean      *float64 `json:"humidity_mean"`
	Precipitation     *float64 `json:"precipitation"`
	Radiation         *float64 `json:"radiation"`
	WindSpeed         *float64 `json:"wind_speed"`
	WindGust          *float64 `json:"wind_gust"`
	WindGustDirection *string  `json:"wind_gust_direction"`
}

// LocalHourlyReading is an hourly observation with its time of day shifted to the
// station's local zone and its radiation converted to accumulated energy (MJ/m²).
// LocalTime carries no date; see units.UTCTimeToLocal.
type LocalHourlyReading struct {
	HourlyObservation
	LocalTime       string  `json:"local_time"`
	RadiationEnergy float64 `json:"radiation_energy"`
}

// DailyObservation is one day from the provider's daily feed.
type DailyObservation struct {
	StationCode   string   `json:"station_code"`
	Date          string   `json:"date"`
	TempMax       *float64 `json:"temp_max"`
	TempMin       *float64 `json:"temp_min"`
	TempMean      *float64 `json:"temp_mean"`
	HumidityMin   *float64 `json:"humidity_min"`
	HumidityMean  *float64 `json:"humidity_mean"`
	Precipitation *float64 `json:"precipitation"`
	WindSpeedMean *float64 `json:"wind_speed_mean"`
}

// ProcessedDailyRecord is a daily observation enriched with fields derived from the
// hourly feed of the same date. RadiationTotal is zero, never absent, when the day
// had no hourly observations.
type ProcessedDailyRecord struct {
	DailyObservation
	PeakHumidity   *float64 `json:"peak_humidity"`
	RadiationTotal float64  `json:"radiation_total"`
	GustSpeed      *float64 `json:"gust_speed"`
	GustDirection  *string  `json:"gust_direction"`
}

// MeanCoverage counts the days that actually contributed to each monthly mean.
type MeanCoverage struct {
	TempMaxDays      int `json:"temp_max_days"`
	TempMeanDays     int `json:"temp_mean_days"`
	HumidityMeanDays int `json:"humidity_mean_days"`
	WindSpeedDays    int `json:"wind_speed_days"`
}

// MonthlySummary folds one calendar month of processed daily records.
type MonthlySummary struct {
	StationCode        string       `json:"station_code"`
	Year               int          `json:"year"`
	Month              int          `json:"month"`
	TempMax            float64      `json:"temp_max"`
	TempMin            float64      `json:"temp_min"`
	TempMaxMean        float64      `json:"temp_max_mean"`
	TempMean           float64      `json:"temp_mean"`
	HumidityMax        *float64     `json:"humidity_max"`
	HumidityMin        *float64     `json:"humidity_min"`
	HumidityMean       float64      `json:"humidity_mean"`
	PrecipitationTotal float64      `json:"precipitation_total"`
	RadiationTotal     float64      `json:"radiation_total"`
	WindSpeedMean      float64      `json:"wind_speed_mean"`
	GustSpeed          *float64     `json:"gust_speed"`
	GustDirection      *string      `json:"gust_direction"`
	Days               int          `json:"days"`
	Coverage           MeanCoverage `json:"coverage"`
}

// InsufficientData names the means that were computed from zero contributing days.
// Those means read as 0 for compatibility with the historical reports.
func (m MonthlySummary) InsufficientData() []string {
	var fields []string
	if m.Coverage.TempMaxDays == 0 {
		fields = append(fields, "temp_max_mean")
	}
	if m.Coverage.TempMeanDays == 0 {
		fields = append(fields, "temp_mean")
	}
	if m.Coverage.HumidityMeanDays == 0 {
		fields = append(fields, "humidity_mean")
	}
	if m.Coverage.WindSpeedDays == 0 {
		fields = append(fields, "wind_speed_mean")
	}
	return fields
}

// YearlySummary folds up to twelve monthly summaries. Its means are means of the
// monthly means and are not re-weighted by day count.
type YearlySummary struct {
	StationCode        string   `json:"station_code"`
	Year               int      `json:"year"`
	TempMax            float64  `json:"temp_max"`
	TempMin            float64  `json:"temp_min"`
	PrecipitationTotal float64  `json:"precipitation_total"`
	RadiationTotal     float64  `json:"radiation_total"`
	GustSpeed          *float64 `json:"gust_speed"`
	GustDirection      *string  `json:"gust_direction"`
	TempMaxMean        float64  `json:"temp_max_mean"`
	TempMean           float64  `json:"temp_mean"`
	WindSpeedMean      float64  `json:"wind_speed_mean"`
	MonthsWithData     int      `json:"months_with_data"`
}

// IngestRun kinds.
const (
	RunPeriod = "period"
	RunMonth  = "month"
	RunYear   = "year"
)

// IngestRun describes one populate invocation.
type IngestRun struct {
	ID               uuid.UUID      `json:"id"`
	Kind             string         `json:"kind"`
	StationCode      string         `json:"station_code"`
	Params           map[string]any `json:"params"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       time.Time      `json:"finished_at"`
	HourlyRows       int            `json:"hourly_rows"`
	DailyRows        int            `json:"daily_rows"`
	MonthlySummaries int            `json:"monthly_summaries"`
	YearlySummaries  int            `json:"yearly_summaries"`
	Error            string         `json:"error,omitempty"`
}
