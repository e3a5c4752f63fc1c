// Package export writes stored observations and summaries to an Excel workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/chrissnell/wxsummary/internal/log"
	"github.com/chrissnell/wxsummary/internal/pipeline"
	"github.com/chrissnell/wxsummary/internal/types"
)

// Sheet names, in workbook order.
const (
	SheetHourly  = "Hourly"
	SheetDaily   = "Daily"
	SheetMonthly = "Monthly"
	SheetYearly  = "Yearly"
)

// Source reads the stored tables.
type Source interface {
	HourlyRange(ctx context.Context, station, start, end string) ([]types.LocalHourlyReading, error)
	DailyRange(ctx context.Context, station, start, end string) ([]types.ProcessedDailyRecord, error)
	MonthlySummaries(ctx context.Context, station string, year int) ([]types.MonthlySummary, error)
	YearlySummary(ctx context.Context, station string, year int) (*types.YearlySummary, error)
}

// Request selects what to export. Month 0 exports the whole year.
type Request struct {
	Station string
	Year    int
	Month   int
}

func (r Request) validate() error {
	if r.Station == "" {
		return fmt.Errorf("station is required")
	}
	if err := pipeline.ValidateYear(r.Year); err != nil {
		return err
	}
	if r.Month != 0 {
		return pipeline.ValidateMonth(r.Month)
	}
	return nil
}

func (r Request) dateRange() (string, string) {
	if r.Month != 0 {
		return pipeline.MonthRange(r.Year, r.Month)
	}
	start, _ := pipeline.MonthRange(r.Year, 1)
	_, end := pipeline.MonthRange(r.Year, 12)
	return start, end
}

var (
	hourlyHeader = []any{
		"station_code", "date", "utc_time", "local_time",
		"temp_min", "temp_max", "humidity_min", "humidity_max", "humidity_mean",
		"precipitation", "radiation", "radiation_energy",
		"wind_speed", "wind_gust", "wind_gust_direction",
	}
	dailyHeader = []any{
		"station_code", "date", "temp_max", "temp_min", "temp_mean",
		"humidity_min", "humidity_mean", "peak_humidity",
		"precipitation", "radiation_total", "wind_speed_mean", "gust_speed", "gust_direction",
	}
	monthlyHeader = []any{
		"station_code", "year", "month", "temp_max", "temp_min", "temp_max_mean", "temp_mean",
		"humidity_max", "humidity_min", "humidity_mean", "precipitation_total", "radiation_total",
		"wind_speed_mean", "gust_speed", "gust_direction", "days", "insufficient_data",
	}
	yearlyHeader = []any{
		"station_code", "year", "temp_max", "temp_min", "temp_max_mean", "temp_mean",
		"precipitation_total", "radiation_total", "wind_speed_mean",
		"gust_speed", "gust_direction", "months_with_data",
	}
)

// Build reads the requested station and period from src and returns a workbook
// with one sheet per table. Absent values are left as empty cells. The caller
// closes the returned file.
func Build(ctx context.Context, src Source, req Request) (*excelize.File, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	start, end := req.dateRange()

	hourly, err := src.HourlyRange(ctx, req.Station, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading hourly observations: %w", err)
	}
	daily, err := src.DailyRange(ctx, req.Station, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading daily records: %w", err)
	}
	months, err := src.MonthlySummaries(ctx, req.Station, req.Year)
	if err != nil {
		return nil, fmt.Errorf("reading monthly summaries: %w", err)
	}
	if req.Month != 0 {
		months = onlyMonth(months, req.Month)
	}

	var yearly *types.YearlySummary
	if req.Month == 0 {
		if yearly, err = src.YearlySummary(ctx, req.Station, req.Year); err != nil {
			return nil, fmt.Errorf("reading yearly summary: %w", err)
		}
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetHourly); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetDaily, SheetMonthly, SheetYearly} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	w, err := newSheetWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	w.header(SheetHourly, hourlyHeader)
	for _, h := range hourly {
		w.row(SheetHourly, []any{
			h.StationCode, h.Date, h.Time, h.LocalTime,
			cell(h.TempMin), cell(h.TempMax), cell(h.HumidityMin), cell(h.HumidityMax), cell(h.HumidityMean),
			cell(h.Precipitation), cell(h.Radiation), h.RadiationEnergy,
			cell(h.WindSpeed), cell(h.WindGust), text(h.WindGustDirection),
		})
	}

	w.header(SheetDaily, dailyHeader)
	for _, d := range daily {
		w.row(SheetDaily, []any{
			d.StationCode, d.Date, cell(d.TempMax), cell(d.TempMin), cell(d.TempMean),
			cell(d.HumidityMin), cell(d.HumidityMean), cell(d.PeakHumidity),
			cell(d.Precipitation), d.RadiationTotal, cell(d.WindSpeedMean), cell(d.GustSpeed), text(d.GustDirection),
		})
	}

	w.header(SheetMonthly, monthlyHeader)
	for _, m := range months {
		w.row(SheetMonthly, []any{
			m.StationCode, m.Year, m.Month, m.TempMax, m.TempMin, m.TempMaxMean, m.TempMean,
			cell(m.HumidityMax), cell(m.HumidityMin), m.HumidityMean, m.PrecipitationTotal, m.RadiationTotal,
			m.WindSpeedMean, cell(m.GustSpeed), text(m.GustDirection), m.Days, strings.Join(m.InsufficientData(), ","),
		})
	}

	w.header(SheetYearly, yearlyHeader)
	if yearly != nil {
		w.row(SheetYearly, []any{
			yearly.StationCode, yearly.Year, yearly.TempMax, yearly.TempMin, yearly.TempMaxMean, yearly.TempMean,
			yearly.PrecipitationTotal, yearly.RadiationTotal, yearly.WindSpeedMean,
			cell(yearly.GustSpeed), text(yearly.GustDirection), yearly.MonthsWithData,
		})
	}

	if w.err != nil {
		f.Close()
		return nil, w.err
	}

	log.Infow("built export workbook", "station", req.Station, "year", req.Year, "month", req.Month,
		"hourly", len(hourly), "daily", len(daily), "monthly", len(months), "yearly", yearly != nil)
	return f, nil
}

// Write builds the workbook and writes it to out.
func Write(ctx context.Context, src Source, req Request, out io.Writer) error {
	f, err := Build(ctx, src, req)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(out)
}

// SaveAs builds the workbook and saves it to path.
func SaveAs(ctx context.Context, src Source, req Request, path string) error {
	f, err := Build(ctx, src, req)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(path)
}

// sheetWriter appends rows to sheets, keeping the first error.
type sheetWriter struct {
	f    *excelize.File
	bold int
	next map[string]int
	err  error
}

func newSheetWriter(f *excelize.File) (*sheetWriter, error) {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	return &sheetWriter{f: f, bold: bold, next: make(map[string]int)}, nil
}

func (w *sheetWriter) header(sheet string, values []any) {
	w.row(sheet, values)
	if w.err == nil {
		w.err = w.f.SetRowStyle(sheet, 1, 1, w.bold)
	}
}

func (w *sheetWriter) row(sheet string, values []any) {
	if w.err != nil {
		return
	}
	w.next[sheet]++
	addr, err := excelize.CoordinatesToCellName(1, w.next[sheet])
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, addr, &values)
}

// cell turns an optional number into a cell value; nil leaves the cell empty.
func cell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func text(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func onlyMonth(months []types.MonthlySummary, month int) []types.MonthlySummary {
	var out []types.MonthlySummary
	for _, m := range months {
		if m.Month == month {
			out = append(out, m)
		}
	}
	return out
}
