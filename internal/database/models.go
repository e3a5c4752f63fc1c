package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"gorm.io/gorm"

	"github.com/chrissnell/wxsummary/internal/types"
)

// HourlyObservationRecord is one stored hourly reading, keyed by station, date and
// UTC time of measurement.
type HourlyObservationRecord struct {
	gorm.Model

	StationCode       string   `gorm:"type:varchar(10);uniqueIndex:idx_hourly_key,priority:1;not null"`
	Date              string   `gorm:"type:varchar(10);uniqueIndex:idx_hourly_key,priority:2;not null"`
	UTCTime           string   `gorm:"column:utc_time;type:varchar(4);uniqueIndex:idx_hourly_key,priority:3;not null"`
	LocalTime         string   `gorm:"type:varchar(5)"`
	TempMin           *float64 `gorm:"type:numeric(5,2)"`
	TempMax           *float64 `gorm:"type:numeric(5,2)"`
	HumidityMin       *float64 `gorm:"type:numeric(5,2)"`
	HumidityMax       *float64 `gorm:"type:numeric(5,2)"`
	HumidityMean      *float64 `gorm:"type:numeric(5,2)"`
	Precipitation     *float64 `gorm:"type:numeric(6,2)"`
	Radiation         *float64 `gorm:"type:numeric(8,2)"`
	RadiationEnergy   float64  `gorm:"type:numeric(8,4);not null;default:0"`
	WindSpeed         *float64 `gorm:"type:numeric(5,2)"`
	WindGust          *float64 `gorm:"type:numeric(5,2)"`
	WindGustDirection *string  `gorm:"type:varchar(10)"`
}

func (HourlyObservationRecord) TableName() string {
	return "hourly_observations"
}

// DailyRecord is one stored processed day, keyed by station and date.
type DailyRecord struct {
	gorm.Model

	StationCode    string   `gorm:"type:varchar(10);uniqueIndex:idx_daily_key,priority:1;not null"`
	Date           string   `gorm:"type:varchar(10);uniqueIndex:idx_daily_key,priority:2;not null"`
	TempMax        *float64 `gorm:"type:numeric(5,2)"`
	TempMin        *float64 `gorm:"type:numeric(5,2)"`
	TempMean       *float64 `gorm:"type:numeric(5,2)"`
	HumidityMin    *float64 `gorm:"type:numeric(5,2)"`
	HumidityMean   *float64 `gorm:"type:numeric(5,2)"`
	Precipitation  *float64 `gorm:"type:numeric(6,2)"`
	WindSpeedMean  *float64 `gorm:"type:numeric(5,2)"`
	PeakHumidity   *float64 `gorm:"type:numeric(5,2)"`
	RadiationTotal float64  `gorm:"type:numeric(10,4);not null;default:0"`
	GustSpeed      *float64 `gorm:"type:numeric(5,2)"`
	GustDirection  *string  `gorm:"type:varchar(10)"`
}

func (DailyRecord) TableName() string {
	return "daily_records"
}

// MonthlySummaryRecord is one stored monthly summary, keyed by station, year and month.
type MonthlySummaryRecord struct {
	gorm.Model

	StationCode        string   `gorm:"type:varchar(10);uniqueIndex:idx_monthly_key,priority:1;not null"`
	Year               int      `gorm:"uniqueIndex:idx_monthly_key,priority:2;not null"`
	Month              int      `gorm:"uniqueIndex:idx_monthly_key,priority:3;not null"`
	TempMax            float64  `gorm:"type:numeric(5,2)"`
	TempMin            float64  `gorm:"type:numeric(5,2)"`
	TempMaxMean        float64  `gorm:"type:numeric(5,2)"`
	TempMean           float64  `gorm:"type:numeric(5,2)"`
	HumidityMax        *float64 `gorm:"type:numeric(5,2)"`
	HumidityMin        *float64 `gorm:"type:numeric(5,2)"`
	HumidityMean       float64  `gorm:"type:numeric(5,2)"`
	PrecipitationTotal float64  `gorm:"type:numeric(8,2);not null;default:0"`
	RadiationTotal     float64  `gorm:"type:numeric(10,2);not null;default:0"`
	WindSpeedMean      float64  `gorm:"type:numeric(5,2)"`
	GustSpeed          *float64 `gorm:"type:numeric(5,2)"`
	GustDirection      *string  `gorm:"type:varchar(10)"`
	Days               int      `gorm:"not null;default:0"`
	TempMaxDays        int      `gorm:"not null;default:0"`
	TempMeanDays       int      `gorm:"not null;default:0"`
	HumidityMeanDays   int      `gorm:"not null;default:0"`
	WindSpeedDays      int      `gorm:"not null;default:0"`
}

func (MonthlySummaryRecord) TableName() string {
	return "monthly_summaries"
}

// YearlySummaryRecord is one stored yearly summary, keyed by station and year.
type YearlySummaryRecord struct {
	gorm.Model

	StationCode        string   `gorm:"type:varchar(10);uniqueIndex:idx_yearly_key,priority:1;not null"`
	Year               int      `gorm:"uniqueIndex:idx_yearly_key,priority:2;not null"`
	TempMax            float64  `gorm:"type:numeric(5,2)"`
	TempMin            float64  `gorm:"type:numeric(5,2)"`
	PrecipitationTotal float64  `gorm:"type:numeric(8,2);not null;default:0"`
	RadiationTotal     float64  `gorm:"type:numeric(10,2);not null;default:0"`
	GustSpeed          *float64 `gorm:"type:numeric(5,2)"`
	GustDirection      *string  `gorm:"type:varchar(10)"`
	TempMaxMean        float64  `gorm:"type:numeric(5,2)"`
	TempMean           float64  `gorm:"type:numeric(5,2)"`
	WindSpeedMean      float64  `gorm:"type:numeric(5,2)"`
	MonthsWithData     int      `gorm:"not null;default:0"`
}

func (YearlySummaryRecord) TableName() string {
	return "yearly_summaries"
}

// IngestRunRecord is the audit row written for every populate invocation.
type IngestRunRecord struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Kind             string       `gorm:"type:varchar(10);index;not null"`
	StationCode      string       `gorm:"type:varchar(10);index;not null"`
	Params           pgtype.JSONB `gorm:"type:jsonb;default:'{}';not null"`
	StartedAt        time.Time    `gorm:"index;not null"`
	FinishedAt       time.Time
	HourlyRows       int
	DailyRows        int
	MonthlySummaries int
	YearlySummaries  int
	Error            string `gorm:"type:text"`
}

func (IngestRunRecord) TableName() string {
	return "ingest_runs"
}

func (r *HourlyObservationRecord) base() *gorm.Model { return &r.Model }
func (r *DailyRecord) base() *gorm.Model             { return &r.Model }
func (r *MonthlySummaryRecord) base() *gorm.Model    { return &r.Model }
func (r *YearlySummaryRecord) base() *gorm.Model     { return &r.Model }

func hourlyRecordFrom(h types.LocalHourlyReading) HourlyObservationRecord {
	return HourlyObservationRecord{
		StationCode:       h.StationCode,
		Date:              h.Date,
		UTCTime:           h.Time,
		LocalTime:         h.LocalTime,
		TempMin:           h.TempMin,
		TempMax:           h.TempMax,
		HumidityMin:       h.HumidityMin,
		HumidityMax:       h.HumidityMax,
		HumidityMean:      h.HumidityMean,
		Precipitation:     h.Precipitation,
		Radiation:         h.Radiation,
		RadiationEnergy:   h.RadiationEnergy,
		WindSpeed:         h.WindSpeed,
		WindGust:          h.WindGust,
		WindGustDirection: h.WindGustDirection,
	}
}

func (r HourlyObservationRecord) reading() types.LocalHourlyReading {
	return types.LocalHourlyReading{
		HourlyObservation: types.HourlyObservation{
			StationCode:       r.StationCode,
			Date:              r.Date,
			Time:              r.UTCTime,
			TempMin:           r.TempMin,
			TempMax:           r.TempMax,
			HumidityMin:       r.HumidityMin,
			HumidityMax:       r.HumidityMax,
			HumidityMean:      r.HumidityMean,
			Precipitation:     r.Precipitation,
			Radiation:         r.Radiation,
			WindSpeed:         r.WindSpeed,
			WindGust:          r.WindGust,
			WindGustDirection: r.WindGustDirection,
		},
		LocalTime:       r.LocalTime,
		RadiationEnergy: r.RadiationEnergy,
	}
}

func dailyRecordFrom(d types.ProcessedDailyRecord) DailyRecord {
	return DailyRecord{
		StationCode:    d.StationCode,
		Date:           d.Date,
		TempMax:        d.TempMax,
		TempMin:        d.TempMin,
		TempMean:       d.TempMean,
		HumidityMin:    d.HumidityMin,
		HumidityMean:   d.HumidityMean,
		Precipitation:  d.Precipitation,
		WindSpeedMean:  d.WindSpeedMean,
		PeakHumidity:   d.PeakHumidity,
		RadiationTotal: d.RadiationTotal,
		GustSpeed:      d.GustSpeed,
		GustDirection:  d.GustDirection,
	}
}

func (r DailyRecord) processed() types.ProcessedDailyRecord {
	return types.ProcessedDailyRecord{
		DailyObservation: types.DailyObservation{
			StationCode:   r.StationCode,
			Date:          r.Date,
			TempMax:       r.TempMax,
			TempMin:       r.TempMin,
			TempMean:      r.TempMean,
			HumidityMin:   r.HumidityMin,
			HumidityMean:  r.HumidityMean,
			Precipitation: r.Precipitation,
			WindSpeedMean: r.WindSpeedMean,
		},
		PeakHumidity:   r.PeakHumidity,
		RadiationTotal: r.RadiationTotal,
		GustSpeed:      r.GustSpeed,
		GustDirection:  r.GustDirection,
	}
}

func monthlyRecordFrom(m types.MonthlySummary) MonthlySummaryRecord {
	return MonthlySummaryRecord{
		StationCode:        m.StationCode,
		Year:               m.Year,
		Month:              m.Month,
		TempMax:            m.TempMax,
		TempMin:            m.TempMin,
		TempMaxMean:        m.TempMaxMean,
		TempMean:           m.TempMean,
		HumidityMax:        m.HumidityMax,
		HumidityMin:        m.HumidityMin,
		HumidityMean:       m.HumidityMean,
		PrecipitationTotal: m.PrecipitationTotal,
		RadiationTotal:     m.RadiationTotal,
		WindSpeedMean:      m.WindSpeedMean,
		GustSpeed:          m.GustSpeed,
		GustDirection:      m.GustDirection,
		Days:               m.Days,
		TempMaxDays:        m.Coverage.TempMaxDays,
		TempMeanDays:       m.Coverage.TempMeanDays,
		HumidityMeanDays:   m.Coverage.HumidityMeanDays,
		WindSpeedDays:      m.Coverage.WindSpeedDays,
	}
}

func (r MonthlySummaryRecord) summary() types.MonthlySummary {
	return types.MonthlySummary{
		StationCode:        r.StationCode,
		Year:               r.Year,
		Month:              r.Month,
		TempMax:            r.TempMax,
		TempMin:            r.TempMin,
		TempMaxMean:        r.TempMaxMean,
		TempMean:           r.TempMean,
		HumidityMax:        r.HumidityMax,
		HumidityMin:        r.HumidityMin,
		HumidityMean:       r.HumidityMean,
		PrecipitationTotal: r.PrecipitationTotal,
		RadiationTotal:     r.RadiationTotal,
		WindSpeedMean:      r.WindSpeedMean,
		GustSpeed:          r.GustSpeed,
		GustDirection:      r.GustDirection,
		Days:               r.Days,
		Coverage: types.MeanCoverage{
			TempMaxDays:      r.TempMaxDays,
			TempMeanDays:     r.TempMeanDays,
			HumidityMeanDays: r.HumidityMeanDays,
			WindSpeedDays:    r.WindSpeedDays,
		},
	}
}

func yearlyRecordFrom(y types.YearlySummary) YearlySummaryRecord {
	return YearlySummaryRecord{
		StationCode:        y.StationCode,
		Year:               y.Year,
		TempMax:            y.TempMax,
		TempMin:            y.TempMin,
		PrecipitationTotal: y.PrecipitationTotal,
		RadiationTotal:     y.RadiationTotal,
		GustSpeed:          y.GustSpeed,
		GustDirection:      y.GustDirection,
		TempMaxMean:        y.TempMaxMean,
		TempMean:           y.TempMean,
		WindSpeedMean:      y.WindSpeedMean,
		MonthsWithData:     y.MonthsWithData,
	}
}

func (r YearlySummaryRecord) summary() types.YearlySummary {
	return types.YearlySummary{
		StationCode:        r.StationCode,
		Year:               r.Year,
		TempMax:            r.TempMax,
		TempMin:            r.TempMin,
		PrecipitationTotal: r.PrecipitationTotal,
		RadiationTotal:     r.RadiationTotal,
		GustSpeed:          r.GustSpeed,
		GustDirection:      r.GustDirection,
		TempMaxMean:        r.TempMaxMean,
		TempMean:           r.TempMean,
		WindSpeedMean:      r.WindSpeedMean,
		MonthsWithData:     r.MonthsWithData,
	}
}

func runRecordFrom(run types.IngestRun) (IngestRunRecord, error) {
	p := run.Params
	if p == nil {
		p = map[string]any{}
	}
	var params pgtype.JSONB
	if err := params.Set(p); err != nil {
		return IngestRunRecord{}, err
	}
	return IngestRunRecord{
		ID:               run.ID,
		Kind:             run.Kind,
		StationCode:      run.StationCode,
		Params:           params,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
		HourlyRows:       run.HourlyRows,
		DailyRows:        run.DailyRows,
		MonthlySummaries: run.MonthlySummaries,
		YearlySummaries:  run.YearlySummaries,
		Error:            run.Error,
	}, nil
}

func (r IngestRunRecord) run() (types.IngestRun, error) {
	params := map[string]any{}
	if r.Params.Status == pgtype.Present {
		if err := r.Params.AssignTo(&params); err != nil {
			return types.IngestRun{}, err
		}
	}
	return types.IngestRun{
		ID:               r.ID,
		Kind:             r.Kind,
		StationCode:      r.StationCode,
		Params:           params,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		HourlyRows:       r.HourlyRows,
		DailyRows:        r.DailyRows,
		MonthlySummaries: r.MonthlySummaries,
		YearlySummaries:  r.YearlySummaries,
		Error:            r.Error,
	}, nil
}
