// Package pipeline sequences provider fetches and the aggregation folds for a
// single bounded period: a date range, a calendar month or a calendar year.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/chrissnell/wxsummary/internal/aggregate"
	"github.com/chrissnell/wxsummary/internal/log"
	"github.com/chrissnell/wxsummary/internal/types"
	"github.com/chrissnell/wxsummary/internal/units"
)

// Source supplies raw observations for one station over an inclusive date range.
// Implementations report failures by returning an empty slice.
type Source interface {
	FetchHourly(ctx context.Context, start, end, station string) []types.HourlyObservation
	FetchDaily(ctx context.Context, start, end, station string) []types.DailyObservation
}

// Orchestrator drives the derivation and aggregation stages for one request at a time.
type Orchestrator struct {
	source  Source
	loc     *time.Location
	limiter *rate.Limiter
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMonthLimiter paces the per-month provider round trips of a year request.
// Every month waits on l, so a limiter with burst 1 spaces consecutive months by
// its interval. The limiter may be shared by several orchestrators.
func WithMonthLimiter(l *rate.Limiter) Option {
	return func(o *Orchestrator) {
		o.limiter = l
	}
}

// New creates an Orchestrator. loc is the station's local zone used for the hourly
// listing; nil means UTC.
func New(source Source, loc *time.Location, opts ...Option) *Orchestrator {
	if loc == nil {
		loc = time.UTC
	}
	o := &Orchestrator{source: source, loc: loc}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RangeData is everything fetched and derived for one date range.
type RangeData struct {
	Days   []types.ProcessedDailyRecord
	Hourly []types.LocalHourlyReading
}

// MonthData is RangeData for a calendar month plus its summary. Summary is nil
// when the provider returned no daily observations.
type MonthData struct {
	RangeData
	Summary *types.MonthlySummary
}

// YearData holds the monthly summaries that had data and the yearly fold over them.
type YearData struct {
	Months  []types.MonthlySummary
	Summary *types.YearlySummary
}

// Range fetches the hourly and daily feeds once and derives the processed days and
// the local hourly listing from them.
func (o *Orchestrator) Range(ctx context.Context, start, end, station string) (RangeData, error) {
	if _, _, err := ParseDateRange(start, end); err != nil {
		return RangeData{}, err
	}

	hourly := o.source.FetchHourly(ctx, start, end, station)
	daily := o.source.FetchDaily(ctx, start, end, station)
	if err := ctx.Err(); err != nil {
		return RangeData{}, err
	}

	log.Debugw("fetched observations",
		"station", station, "start", start, "end", end,
		"hourly", len(hourly), "daily", len(daily))

	return RangeData{
		Days:   aggregate.DeriveDailyRecords(daily, hourly),
		Hourly: LocalReadings(hourly, o.loc),
	}, nil
}

// ProcessedDays returns the derived daily records for a date range.
func (o *Orchestrator) ProcessedDays(ctx context.Context, start, end, station string) ([]types.ProcessedDailyRecord, error) {
	data, err := o.Range(ctx, start, end, station)
	if err != nil {
		return nil, err
	}
	return data.Days, nil
}

// HourlyReadings returns the local hourly listing for a date range.
func (o *Orchestrator) HourlyReadings(ctx context.Context, start, end, station string) ([]types.LocalHourlyReading, error) {
	data, err := o.Range(ctx, start, end, station)
	if err != nil {
		return nil, err
	}
	return data.Hourly, nil
}

// Month derives and folds one calendar month.
func (o *Orchestrator) Month(ctx context.Context, year, month int, station string) (MonthData, error) {
	if err := ValidateYear(year); err != nil {
		return MonthData{}, err
	}
	if err := ValidateMonth(month); err != nil {
		return MonthData{}, err
	}

	start, end := MonthRange(year, month)
	log.Infof("fetching and processing %s to %s for station %s", start, end, station)

	data, err := o.Range(ctx, start, end, station)
	if err != nil {
		return MonthData{}, fmt.Errorf("month %04d-%02d: %w", year, month, err)
	}

	summary := aggregate.AggregateMonth(data.Days)
	if summary != nil {
		// Identity comes from the request, not from dates echoed by the provider.
		summary.StationCode = station
		summary.Year = year
		summary.Month = month
	}
	return MonthData{RangeData: data, Summary: summary}, nil
}

// MonthlySummariesForYear runs Month for January through December in order and
// returns the summaries of the months that had data.
func (o *Orchestrator) MonthlySummariesForYear(ctx context.Context, year int, station string) ([]types.MonthlySummary, error) {
	var months []types.MonthlySummary
	err := o.EachMonth(ctx, year, station, func(m MonthData) error {
		if m.Summary != nil {
			months = append(months, *m.Summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return months, nil
}

// EachMonth runs Month for every month of the year sequentially and hands each
// result to fn. A non-nil error from fn stops the loop.
func (o *Orchestrator) EachMonth(ctx context.Context, year int, station string, fn func(MonthData) error) error {
	if err := ValidateYear(year); err != nil {
		return err
	}

	for month := 1; month <= 12; month++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("waiting for provider slot: %w", err)
			}
		}

		data, err := o.Month(ctx, year, month, station)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	return nil
}

// Year folds the monthly summaries of a calendar year. Summary is nil when no
// month had data.
func (o *Orchestrator) Year(ctx context.Context, year int, station string) (YearData, error) {
	months, err := o.MonthlySummariesForYear(ctx, year, station)
	if err != nil {
		return YearData{}, err
	}
	return YearData{Months: months, Summary: aggregate.AggregateYear(months)}, nil
}

// LocalReadings converts each hourly observation's UTC time into loc and its
// radiation into accumulated energy. Observations with an unreadable time keep
// the raw value.
func LocalReadings(hourly []types.HourlyObservation, loc *time.Location) []types.LocalHourlyReading {
	readings := make([]types.LocalHourlyReading, 0, len(hourly))
	for _, h := range hourly {
		local, err := units.UTCTimeToLocal(h.Time, h.Date, loc)
		if err != nil {
			log.Debugw("keeping raw observation time", "date", h.Date, "time", h.Time, "error", err)
			local = h.Time
		}
		readings = append(readings, types.LocalHourlyReading{
			HourlyObservation: h,
			LocalTime:         local,
			RadiationEnergy:   units.RadiationEnergyOrZero(h.Radiation),
		})
	}
	return readings
}
