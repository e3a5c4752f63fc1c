package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/chrissnell/wxsummary/internal/types"
)

// SaveHourly upserts hourly readings by station, date and UTC time. It returns the
// number of rows written.
func (c *Client) SaveHourly(ctx context.Context, readings []types.LocalHourlyReading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	err := c.transaction(ctx, func(tx *gorm.DB) error {
		for _, r := range readings {
			rec := hourlyRecordFrom(r)
			if err := upsert(tx, &rec, "station_code = ? AND date = ? AND utc_time = ?",
				rec.StationCode, rec.Date, rec.UTCTime); err != nil {
				return fmt.Errorf("saving hourly observation %s %s %s: %w", rec.StationCode, rec.Date, rec.UTCTime, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(readings), nil
}

// SaveDaily upserts processed days by station and date.
func (c *Client) SaveDaily(ctx context.Context, days []types.ProcessedDailyRecord) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}

	err := c.transaction(ctx, func(tx *gorm.DB) error {
		for _, d := range days {
			rec := dailyRecordFrom(d)
			if err := upsert(tx, &rec, "station_code = ? AND date = ?", rec.StationCode, rec.Date); err != nil {
				return fmt.Errorf("saving daily record %s %s: %w", rec.StationCode, rec.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(days), nil
}

// SaveMonthly upserts a monthly summary by station, year and month.
func (c *Client) SaveMonthly(ctx context.Context, m types.MonthlySummary) error {
	return c.transaction(ctx, func(tx *gorm.DB) error {
		rec := monthlyRecordFrom(m)
		if err := upsert(tx, &rec, "station_code = ? AND year = ? AND month = ?",
			rec.StationCode, rec.Year, rec.Month); err != nil {
			return fmt.Errorf("saving monthly summary %s %04d-%02d: %w", rec.StationCode, rec.Year, rec.Month, err)
		}
		return nil
	})
}

// SaveYearly upserts a yearly summary by station and year.
func (c *Client) SaveYearly(ctx context.Context, y types.YearlySummary) error {
	return c.transaction(ctx, func(tx *gorm.DB) error {
		rec := yearlyRecordFrom(y)
		if err := upsert(tx, &rec, "station_code = ? AND year = ?", rec.StationCode, rec.Year); err != nil {
			return fmt.Errorf("saving yearly summary %s %04d: %w", rec.StationCode, rec.Year, err)
		}
		return nil
	})
}

// RecordRun stores an ingest run.
func (c *Client) RecordRun(ctx context.Context, run types.IngestRun) error {
	rec, err := runRecordFrom(run)
	if err != nil {
		return fmt.Errorf("encoding ingest run parameters: %w", err)
	}
	if err := c.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("saving ingest run %s: %w", run.ID, err)
	}
	return nil
}

// ListRuns returns the most recent ingest runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]types.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []IngestRunRecord
	if err := c.DB.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("error querying ingest runs: %w", err)
	}

	runs := make([]types.IngestRun, 0, len(records))
	for _, r := range records {
		run, err := r.run()
		if err != nil {
			return nil, fmt.Errorf("decoding ingest run %s: %w", r.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// HourlyRange returns the stored hourly readings of a station between two dates,
// inclusive, ordered by date and time.
func (c *Client) HourlyRange(ctx context.Context, station, start, end string) ([]types.LocalHourlyReading, error) {
	var records []HourlyObservationRecord
	err := c.DB.WithContext(ctx).
		Where("station_code = ? AND date BETWEEN ? AND ?", station, start, end).
		Order("date, utc_time").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error querying hourly observations: %w", err)
	}

	readings := make([]types.LocalHourlyReading, 0, len(records))
	for _, r := range records {
		readings = append(readings, r.reading())
	}
	return readings, nil
}

// DailyRange returns the stored processed days of a station between two dates.
func (c *Client) DailyRange(ctx context.Context, station, start, end string) ([]types.ProcessedDailyRecord, error) {
	var records []DailyRecord
	err := c.DB.WithContext(ctx).
		Where("station_code = ? AND date BETWEEN ? AND ?", station, start, end).
		Order("date").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error querying daily records: %w", err)
	}

	days := make([]types.ProcessedDailyRecord, 0, len(records))
	for _, r := range records {
		days = append(days, r.processed())
	}
	return days, nil
}

// MonthlySummaries returns the stored monthly summaries of a station for a year,
// ordered by month.
func (c *Client) MonthlySummaries(ctx context.Context, station string, year int) ([]types.MonthlySummary, error) {
	var records []MonthlySummaryRecord
	err := c.DB.WithContext(ctx).
		Where("station_code = ? AND year = ?", station, year).
		Order("month").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error querying monthly summaries: %w", err)
	}

	months := make([]types.MonthlySummary, 0, len(records))
	for _, r := range records {
		months = append(months, r.summary())
	}
	return months, nil
}

// MonthlySummary returns one stored monthly summary, or nil if none exists.
func (c *Client) MonthlySummary(ctx context.Context, station string, year, month int) (*types.MonthlySummary, error) {
	var rec MonthlySummaryRecord
	err := c.DB.WithContext(ctx).
		Where("station_code = ? AND year = ? AND month = ?", station, year, month).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying monthly summary: %w", err)
	}

	s := rec.summary()
	return &s, nil
}

// YearlySummary returns the stored yearly summary, or nil if none exists.
func (c *Client) YearlySummary(ctx context.Context, station string, year int) (*types.YearlySummary, error) {
	var rec YearlySummaryRecord
	err := c.DB.WithContext(ctx).
		Where("station_code = ? AND year = ?", station, year).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying yearly summary: %w", err)
	}

	s := rec.summary()
	return &s, nil
}
