// Package populate fetches provider data for a period and stores the derived days,
// hourly readings and summaries.
package populate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/wxsummary/internal/aggregate"
	"github.com/chrissnell/wxsummary/internal/log"
	"github.com/chrissnell/wxsummary/internal/pipeline"
	"github.com/chrissnell/wxsummary/internal/types"
)

// Store persists everything a populate run produces.
type Store interface {
	SaveHourly(ctx context.Context, readings []types.LocalHourlyReading) (int, error)
	SaveDaily(ctx context.Context, days []types.ProcessedDailyRecord) (int, error)
	SaveMonthly(ctx context.Context, m types.MonthlySummary) error
	SaveYearly(ctx context.Context, y types.YearlySummary) error
	RecordRun(ctx context.Context, run types.IngestRun) error
}

// Pipeline is the subset of pipeline.Orchestrator the service drives.
type Pipeline interface {
	Range(ctx context.Context, start, end, station string) (pipeline.RangeData, error)
	Month(ctx context.Context, year, month int, station string) (pipeline.MonthData, error)
	EachMonth(ctx context.Context, year int, station string, fn func(pipeline.MonthData) error) error
}

// Service runs populate jobs.
type Service struct {
	store    Store
	pipeline Pipeline
	now      func() time.Time
}

// NewService creates a Service.
func NewService(store Store, p Pipeline) *Service {
	return &Service{store: store, pipeline: p, now: time.Now}
}

// Period stores the processed days and hourly readings between start and end.
func (s *Service) Period(ctx context.Context, start, end, station string) (types.IngestRun, error) {
	if _, _, err := pipeline.ParseDateRange(start, end); err != nil {
		return types.IngestRun{}, err
	}

	run := s.newRun(types.RunPeriod, station, map[string]any{"start": start, "end": end})
	err := func() error {
		data, err := s.pipeline.Range(ctx, start, end, station)
		if err != nil {
			return err
		}
		return s.saveRange(ctx, &run, data)
	}()
	return s.finish(ctx, run, err)
}

// Month stores one month of processed days and hourly readings plus its summary.
func (s *Service) Month(ctx context.Context, year, month int, station string) (types.IngestRun, error) {
	if err := pipeline.ValidateYear(year); err != nil {
		return types.IngestRun{}, err
	}
	if err := pipeline.ValidateMonth(month); err != nil {
		return types.IngestRun{}, err
	}

	run := s.newRun(types.RunMonth, station, map[string]any{"year": year, "month": month})
	err := func() error {
		data, err := s.pipeline.Month(ctx, year, month, station)
		if err != nil {
			return err
		}
		return s.saveMonth(ctx, &run, data)
	}()
	return s.finish(ctx, run, err)
}

// Year stores every month of the year and then the yearly summary over the months
// that had data.
func (s *Service) Year(ctx context.Context, year int, station string) (types.IngestRun, error) {
	if err := pipeline.ValidateYear(year); err != nil {
		return types.IngestRun{}, err
	}

	run := s.newRun(types.RunYear, station, map[string]any{"year": year})
	var months []types.MonthlySummary
	err := s.pipeline.EachMonth(ctx, year, station, func(data pipeline.MonthData) error {
		if err := s.saveMonth(ctx, &run, data); err != nil {
			return err
		}
		if data.Summary != nil {
			months = append(months, *data.Summary)
		}
		return nil
	})

	if err == nil {
		if summary := aggregate.AggregateYear(months); summary != nil {
			if err = s.store.SaveYearly(ctx, *summary); err == nil {
				run.YearlySummaries++
			}
		} else {
			log.Infof("no monthly data for %s in %d; yearly summary not stored", station, year)
		}
	}
	return s.finish(ctx, run, err)
}

func (s *Service) saveRange(ctx context.Context, run *types.IngestRun, data pipeline.RangeData) error {
	n, err := s.store.SaveHourly(ctx, data.Hourly)
	if err != nil {
		return err
	}
	run.HourlyRows += n

	n, err = s.store.SaveDaily(ctx, data.Days)
	if err != nil {
		return err
	}
	run.DailyRows += n
	return nil
}

func (s *Service) saveMonth(ctx context.Context, run *types.IngestRun, data pipeline.MonthData) error {
	if err := s.saveRange(ctx, run, data.RangeData); err != nil {
		return err
	}
	if data.Summary == nil {
		return nil
	}
	if err := s.store.SaveMonthly(ctx, *data.Summary); err != nil {
		return err
	}
	run.MonthlySummaries++
	return nil
}

func (s *Service) newRun(kind, station string, params map[string]any) types.IngestRun {
	return types.IngestRun{
		ID:          uuid.New(),
		Kind:        kind,
		StationCode: station,
		Params:      params,
		StartedAt:   s.now().UTC(),
	}
}

// finish stamps and records the run. A failure to record the run is logged but
// never masks the job's own error.
func (s *Service) finish(ctx context.Context, run types.IngestRun, jobErr error) (types.IngestRun, error) {
	run.FinishedAt = s.now().UTC()
	if jobErr != nil {
		run.Error = jobErr.Error()
	}

	// The audit row is written even when the job's context was cancelled.
	if err := s.store.RecordRun(context.WithoutCancel(ctx), run); err != nil {
		log.Errorf("error recording %s ingest run %s: %v", run.Kind, run.ID, err)
		if jobErr == nil {
			jobErr = err
		}
	}

	if jobErr != nil {
		log.Errorw("populate run failed", "id", run.ID, "kind", run.Kind, "station", run.StationCode, "error", jobErr)
	} else {
		log.Infow("populate run finished", "id", run.ID, "kind", run.Kind, "station", run.StationCode,
			"hourly", run.HourlyRows, "daily", run.DailyRows,
			"monthly", run.MonthlySummaries, "yearly", run.YearlySummaries)
	}
	return run, jobErr
}
