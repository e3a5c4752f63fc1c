package restserver

import (
	"context"

	"github.com/chrissnell/wxsummary/internal/pipeline"
	"github.com/chrissnell/wxsummary/internal/types"
)

// Pipeline computes derived data on demand from the provider.
type Pipeline interface {
	HourlyReadings(ctx context.Context, start, end, station string) ([]types.LocalHourlyReading, error)
	ProcessedDays(ctx context.Context, start, end, station string) ([]types.ProcessedDailyRecord, error)
	Month(ctx context.Context, year, month int, station string) (pipeline.MonthData, error)
	Year(ctx context.Context, year int, station string) (pipeline.YearData, error)
}

// Populator runs populate jobs against the configured store.
type Populator interface {
	Period(ctx context.Context, start, end, station string) (types.IngestRun, error)
	Month(ctx context.Context, year, month int, station string) (types.IngestRun, error)
	Year(ctx context.Context, year int, station string) (types.IngestRun, error)
}

// Store is the read side of the database used by the REST server.
type Store interface {
	ListRuns(ctx context.Context, limit int) ([]types.IngestRun, error)
	Ping(ctx context.Context) error
}

// Deps are the components the handlers serve from. Populator and Store are nil
// when no database is configured.
type Deps struct {
	Pipeline  Pipeline
	Populator Populator
	Store     Store
}

type contextKey string

const stationContextKey contextKey = "station"

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HourlyResponse wraps the local hourly listing for a date range.
type HourlyResponse struct {
	StationCode string                     `json:"station_code"`
	Start       string                     `json:"start"`
	End         string                     `json:"end"`
	Readings    []types.LocalHourlyReading `json:"readings"`
}

// DailyResponse wraps the processed daily records for a date range.
type DailyResponse struct {
	StationCode string                       `json:"station_code"`
	Start       string                       `json:"start"`
	End         string                       `json:"end"`
	Days        []types.ProcessedDailyRecord `json:"days"`
}

// YearMonthsResponse lists the monthly summaries of a year that had data.
type YearMonthsResponse struct {
	StationCode string                 `json:"station_code"`
	Year        int                    `json:"year"`
	Months      []types.MonthlySummary `json:"months"`
}
