package aggregate

import (
	"math"
	"testing"

	"github.com/chrissnell/wxsummary/internal/types"
)

const epsilon = 1e-9

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func assertFloatPtr(t *testing.T, field string, got, want *float64) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %v, want nil", field, *got)
	case want != nil && got == nil:
		t.Errorf("%s = nil, want %v", field, *want)
	case want != nil && !approxEqual(*got, *want):
		t.Errorf("%s = %v, want %v", field, *got, *want)
	}
}

func assertStringPtr(t *testing.T, field string, got, want *string) {
	t.Helper()
	switch {
	case want == nil && got != nil:
		t.Errorf("%s = %q, want nil", field, *got)
	case want != nil && got == nil:
		t.Errorf("%s = nil, want %q", field, *want)
	case want != nil && *got != *want:
		t.Errorf("%s = %q, want %q", field, *got, *want)
	}
}

func hour(date, hhmm string) types.HourlyObservation {
	return types.HourlyObservation{StationCode: "A001", Date: date, Time: hhmm}
}

func TestDeriveDailyRecordsGust(t *testing.T) {
	daily := []types.DailyObservation{{StationCode: "A001", Date: "2024-06-15"}}

	gusts := []float64{10, 25, 18}
	dirs := []string{"N", "E", "S"}
	var hourly []types.HourlyObservation
	for i := range gusts {
		h := hour("2024-06-15", "1200")
		h.WindGust = f(gusts[i])
		h.WindGustDirection = s(dirs[i])
		hourly = append(hourly, h)
	}

	got := DeriveDailyRecords(daily, hourly)
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	assertFloatPtr(t, "GustSpeed", got[0].GustSpeed, f(25))
	assertStringPtr(t, "GustDirection", got[0].GustDirection, s("E"))
}

func TestDeriveDailyRecordsGustTieBreak(t *testing.T) {
	tests := []struct {
		name      string
		gusts     []*float64
		dirs      []string
		wantSpeed *float64
		wantDir   *string
	}{
		{
			name:      "first of equal peaks wins",
			gusts:     []*float64{f(12), f(20), f(20)},
			dirs:      []string{"N", "NE", "SW"},
			wantSpeed: f(20),
			wantDir:   s("NE"),
		},
		{
			name:      "missing gusts are not candidates",
			gusts:     []*float64{nil, f(4), nil},
			dirs:      []string{"N", "W", "S"},
			wantSpeed: f(4),
			wantDir:   s("W"),
		},
		{
			name:      "no gust at all",
			gusts:     []*float64{nil, nil},
			dirs:      []string{"N", "S"},
			wantSpeed: nil,
			wantDir:   nil,
		},
		{
			name:      "zero gust still counts",
			gusts:     []*float64{f(0)},
			dirs:      []string{"C"},
			wantSpeed: f(0),
			wantDir:   s("C"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hourly []types.HourlyObservation
			for i, g := range tt.gusts {
				h := hour("2024-01-10", "0000")
				h.WindGust = g
				h.WindGustDirection = s(tt.dirs[i])
				hourly = append(hourly, h)
			}
			got := DeriveDay(types.DailyObservation{Date: "2024-01-10"}, hourly)
			assertFloatPtr(t, "GustSpeed", got.GustSpeed, tt.wantSpeed)
			assertStringPtr(t, "GustDirection", got.GustDirection, tt.wantDir)
		})
	}
}

func TestDeriveDailyRecordsNoHourly(t *testing.T) {
	daily := []types.DailyObservation{
		{StationCode: "A001", Date: "2024-06-15", TempMax: f(25)},
		{StationCode: "A001", Date: "2024-06-16", TempMax: f(26)},
	}
	// Only the 16th has hourly data; the 14th matches no daily record.
	h1 := hour("2024-06-16", "1500")
	h1.HumidityMax = f(80)
	h1.Radiation = f(1000)
	h2 := hour("2024-06-14", "1500")
	h2.HumidityMax = f(99)

	got := DeriveDailyRecords(daily, []types.HourlyObservation{h1, h2})
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	if got[0].Date != "2024-06-15" || got[1].Date != "2024-06-16" {
		t.Fatalf("order not preserved: %s, %s", got[0].Date, got[1].Date)
	}

	empty := got[0]
	assertFloatPtr(t, "PeakHumidity", empty.PeakHumidity, nil)
	assertFloatPtr(t, "GustSpeed", empty.GustSpeed, nil)
	assertStringPtr(t, "GustDirection", empty.GustDirection, nil)
	if empty.RadiationTotal != 0 {
		t.Errorf("RadiationTotal = %v, want exactly 0", empty.RadiationTotal)
	}
	assertFloatPtr(t, "TempMax", empty.TempMax, f(25))

	assertFloatPtr(t, "PeakHumidity", got[1].PeakHumidity, f(80))
	if !approxEqual(got[1].RadiationTotal, 3.6) {
		t.Errorf("RadiationTotal = %v, want 3.6", got[1].RadiationTotal)
	}
}

func TestDeriveDayPeakHumidity(t *testing.T) {
	tests := []struct {
		name     string
		max      []*float64
		mean     []*float64
		expected *float64
	}{
		{
			name:     "max preferred over mean",
			max:      []*float64{f(70), f(85)},
			mean:     []*float64{f(90), f(60)},
			expected: f(85),
		},
		{
			name:     "falls back to mean",
			max:      []*float64{nil, f(70)},
			mean:     []*float64{f(92), nil},
			expected: f(92),
		},
		{
			name:     "hours with neither are skipped",
			max:      []*float64{nil, nil},
			mean:     []*float64{nil, f(40)},
			expected: f(40),
		},
		{
			name:     "no candidate",
			max:      []*float64{nil},
			mean:     []*float64{nil},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hours []types.HourlyObservation
			for i := range tt.max {
				h := hour("2024-03-01", "0100")
				h.HumidityMax = tt.max[i]
				h.HumidityMean = tt.mean[i]
				hours = append(hours, h)
			}
			got := DeriveDay(types.DailyObservation{Date: "2024-03-01"}, hours)
			assertFloatPtr(t, "PeakHumidity", got.PeakHumidity, tt.expected)
		})
	}
}

func TestDeriveDayRadiationSkipsMissing(t *testing.T) {
	a := hour("2024-03-01", "1200")
	a.Radiation = f(2000)
	b := hour("2024-03-01", "1300")
	c := hour("2024-03-01", "1400")
	c.Radiation = f(500)

	got := DeriveDay(types.DailyObservation{Date: "2024-03-01"}, []types.HourlyObservation{a, b, c})
	if !approxEqual(got.RadiationTotal, 9.0) {
		t.Errorf("RadiationTotal = %v, want 9.0", got.RadiationTotal)
	}
}

func TestDeriveDayDoesNotAliasInput(t *testing.T) {
	h := hour("2024-03-01", "1200")
	h.WindGust = f(15)
	h.WindGustDirection = s("N")

	got := DeriveDay(types.DailyObservation{Date: "2024-03-01"}, []types.HourlyObservation{h})
	*got.GustDirection = "S"
	*got.GustSpeed = 99

	if *h.WindGustDirection != "N" || *h.WindGust != 15 {
		t.Errorf("input mutated through result: gust=%v dir=%q", *h.WindGust, *h.WindGustDirection)
	}
}

func day(date string, tmax, tmin, tmean *float64) types.ProcessedDailyRecord {
	return types.ProcessedDailyRecord{
		DailyObservation: types.DailyObservation{
			StationCode: "A001",
			Date:        date,
			TempMax:     tmax,
			TempMin:     tmin,
			TempMean:    tmean,
		},
	}
}

func TestAggregateMonthEmpty(t *testing.T) {
	if got := AggregateMonth(nil); got != nil {
		t.Errorf("AggregateMonth(nil) = %+v, want nil", got)
	}
	if got := AggregateMonth([]types.ProcessedDailyRecord{}); got != nil {
		t.Errorf("AggregateMonth(empty) = %+v, want nil", got)
	}
}

func TestAggregateMonthJanuary(t *testing.T) {
	days := []types.ProcessedDailyRecord{
		day("2024-01-01", f(30), f(20), f(25)),
		day("2024-01-02", f(32), f(21), f(26)),
		day("2024-01-03", f(28), f(19), f(24)),
	}

	got := AggregateMonth(days)
	if got == nil {
		t.Fatal("AggregateMonth returned nil")
	}

	tests := []struct {
		field string
		got   float64
		want  float64
	}{
		{"TempMax", got.TempMax, 32},
		{"TempMin", got.TempMin, 19},
		{"TempMaxMean", got.TempMaxMean, 30},
		{"TempMean", got.TempMean, 25},
	}
	for _, tt := range tests {
		if !approxEqual(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.field, tt.got, tt.want)
		}
	}

	if got.Year != 2024 || got.Month != 1 || got.StationCode != "A001" {
		t.Errorf("identity = %s %d-%d, want A001 2024-1", got.StationCode, got.Year, got.Month)
	}
	if got.Days != 3 {
		t.Errorf("Days = %d, want 3", got.Days)
	}
}

func TestAggregateMonthIndependentCounts(t *testing.T) {
	d1 := day("2024-02-01", f(30), f(20), nil)
	d1.HumidityMean = f(60)
	d1.WindSpeedMean = f(2)
	d2 := day("2024-02-02", f(20), f(10), f(15))
	d3 := day("2024-02-03", nil, f(12), f(17))
	d3.WindSpeedMean = f(4)

	got := AggregateMonth([]types.ProcessedDailyRecord{d1, d2, d3})

	if !approxEqual(got.TempMaxMean, 25) {
		t.Errorf("TempMaxMean = %v, want 25 (two contributing days)", got.TempMaxMean)
	}
	if !approxEqual(got.TempMean, 16) {
		t.Errorf("TempMean = %v, want 16", got.TempMean)
	}
	if !approxEqual(got.HumidityMean, 60) {
		t.Errorf("HumidityMean = %v, want 60", got.HumidityMean)
	}
	if !approxEqual(got.WindSpeedMean, 3) {
		t.Errorf("WindSpeedMean = %v, want 3", got.WindSpeedMean)
	}

	want := types.MeanCoverage{TempMaxDays: 2, TempMeanDays: 2, HumidityMeanDays: 1, WindSpeedDays: 2}
	if got.Coverage != want {
		t.Errorf("Coverage = %+v, want %+v", got.Coverage, want)
	}
}

func TestAggregateMonthDayOrder(t *testing.T) {
	first := withExtras(day("2024-05-01", f(31), f(5), f(18)), 2, 3, 14, "SE")
	second := withExtras(day("2024-05-02", f(20), f(-3), f(8)), 4, 5, 14, "N")
	third := withExtras(day("2024-05-03", f(25), f(0), f(12)), 1, 2, 9, "W")

	tests := []struct {
		name    string
		days    []types.ProcessedDailyRecord
		wantDir string
	}{
		{"calendar order", []types.ProcessedDailyRecord{first, second, third}, "SE"},
		{"second day first", []types.ProcessedDailyRecord{second, first, third}, "N"},
		{"weaker gust first", []types.ProcessedDailyRecord{third, first, second}, "SE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateMonth(tt.days)
			if got == nil {
				t.Fatal("AggregateMonth returned nil")
			}

			fields := []struct {
				field string
				got   float64
				want  float64
			}{
				{"TempMax", got.TempMax, 31},
				{"TempMin", got.TempMin, -3},
				{"TempMaxMean", got.TempMaxMean, 76.0 / 3},
				{"TempMean", got.TempMean, 38.0 / 3},
				{"PrecipitationTotal", got.PrecipitationTotal, 7},
				{"RadiationTotal", got.RadiationTotal, 10},
			}
			for _, ff := range fields {
				if !approxEqual(ff.got, ff.want) {
					t.Errorf("%s = %v, want %v", ff.field, ff.got, ff.want)
				}
			}
			if got.Days != 3 {
				t.Errorf("Days = %d, want 3", got.Days)
			}

			// Equal peak gusts keep whichever came first.
			assertFloatPtr(t, "GustSpeed", got.GustSpeed, f(14))
			assertStringPtr(t, "GustDirection", got.GustDirection, s(tt.wantDir))
		})
	}
}

func TestAggregateMonthZeroCountMeans(t *testing.T) {
	got := AggregateMonth([]types.ProcessedDailyRecord{day("2024-04-01", f(10), f(5), nil)})

	if got.TempMean != 0 || got.HumidityMean != 0 || got.WindSpeedMean != 0 {
		t.Errorf("means without data = %v/%v/%v, want 0", got.TempMean, got.HumidityMean, got.WindSpeedMean)
	}
	if len(got.InsufficientData()) != 3 {
		t.Errorf("InsufficientData() = %v, want three fields", got.InsufficientData())
	}
}

// A day with no max/min temperature contributes 0 to the absolute extremes. In a
// month of sub-zero readings this makes the absolute max read 0.
func TestAggregateMonthMissingTemperatureCountsAsZero(t *testing.T) {
	days := []types.ProcessedDailyRecord{
		day("2024-07-01", f(-2), f(-10), f(-6)),
		day("2024-07-02", nil, nil, nil),
		day("2024-07-03", f(-1), f(-8), f(-4)),
	}

	got := AggregateMonth(days)
	if got.TempMax != 0 {
		t.Errorf("TempMax = %v, want 0 from the missing reading", got.TempMax)
	}
	if got.TempMin != -10 {
		t.Errorf("TempMin = %v, want -10", got.TempMin)
	}
	if !approxEqual(got.TempMaxMean, -1.5) {
		t.Errorf("TempMaxMean = %v, want -1.5", got.TempMaxMean)
	}

	warm := []types.ProcessedDailyRecord{
		day("2024-01-01", f(30), f(18), f(24)),
		day("2024-01-02", f(31), nil, f(25)),
	}
	if got := AggregateMonth(warm); got.TempMin != 0 {
		t.Errorf("TempMin = %v, want 0 from the missing reading", got.TempMin)
	}
}

func TestAggregateMonthHumidityAndTotals(t *testing.T) {
	d1 := day("2024-05-01", f(25), f(15), f(20))
	d1.PeakHumidity = f(88)
	d1.HumidityMin = f(40)
	d1.Precipitation = f(3.5)
	d1.RadiationTotal = 12.25
	d1.GustSpeed = f(14)
	d1.GustDirection = s("SE")

	d2 := day("2024-05-02", f(26), f(16), f(21))
	d2.HumidityMin = f(35)
	d2.RadiationTotal = 10

	d3 := day("2024-05-03", f(24), f(14), f(19))
	d3.PeakHumidity = f(95)
	d3.Precipitation = f(10)
	d3.GustSpeed = f(14)
	d3.GustDirection = s("N")

	got := AggregateMonth([]types.ProcessedDailyRecord{d1, d2, d3})

	assertFloatPtr(t, "HumidityMax", got.HumidityMax, f(95))
	assertFloatPtr(t, "HumidityMin", got.HumidityMin, f(35))
	assertFloatPtr(t, "GustSpeed", got.GustSpeed, f(14))
	assertStringPtr(t, "GustDirection", got.GustDirection, s("SE"))
	if !approxEqual(got.PrecipitationTotal, 13.5) {
		t.Errorf("PrecipitationTotal = %v, want 13.5", got.PrecipitationTotal)
	}
	if !approxEqual(got.RadiationTotal, 22.25) {
		t.Errorf("RadiationTotal = %v, want 22.25", got.RadiationTotal)
	}

	bare := AggregateMonth([]types.ProcessedDailyRecord{day("2024-05-04", f(1), f(0), f(0))})
	assertFloatPtr(t, "HumidityMax", bare.HumidityMax, nil)
	assertFloatPtr(t, "HumidityMin", bare.HumidityMin, nil)
	assertFloatPtr(t, "GustSpeed", bare.GustSpeed, nil)
}

func TestAggregateMonthDoesNotMutateInput(t *testing.T) {
	d := day("2024-05-01", f(25), f(15), f(20))
	d.GustSpeed = f(9)
	d.GustDirection = s("W")
	days := []types.ProcessedDailyRecord{d}

	got := AggregateMonth(days)
	*got.GustDirection = "E"

	if *days[0].GustDirection != "W" {
		t.Errorf("input gust direction changed to %q", *days[0].GustDirection)
	}
}

func TestAggregateYearEmpty(t *testing.T) {
	if got := AggregateYear(nil); got != nil {
		t.Errorf("AggregateYear(nil) = %+v, want nil", got)
	}
}

func TestAggregateYear(t *testing.T) {
	months := []types.MonthlySummary{
		{StationCode: "A001", Year: 2024, Month: 1, TempMax: 35, TempMin: 18, TempMaxMean: 31, TempMean: 25,
			PrecipitationTotal: 200, RadiationTotal: 600, WindSpeedMean: 2, GustSpeed: f(20), GustDirection: s("N")},
		{StationCode: "A001", Year: 2024, Month: 2, TempMax: 33, TempMin: 17, TempMaxMean: 30, TempMean: 24,
			PrecipitationTotal: 150, RadiationTotal: 550, WindSpeedMean: 3, GustSpeed: f(22), GustDirection: s("E")},
		{StationCode: "A001", Year: 2024, Month: 7, TempMax: 26, TempMin: 4, TempMaxMean: 23, TempMean: 16,
			PrecipitationTotal: 40, RadiationTotal: 350, WindSpeedMean: 4, GustSpeed: f(22), GustDirection: s("S")},
	}

	got := AggregateYear(months)
	if got == nil {
		t.Fatal("AggregateYear returned nil")
	}

	tests := []struct {
		field string
		got   float64
		want  float64
	}{
		{"TempMax", got.TempMax, 35},
		{"TempMin", got.TempMin, 4},
		{"PrecipitationTotal", got.PrecipitationTotal, 390},
		{"RadiationTotal", got.RadiationTotal, 1500},
		{"TempMaxMean", got.TempMaxMean, 28},
		{"TempMean", got.TempMean, 65.0 / 3},
		{"WindSpeedMean", got.WindSpeedMean, 3},
	}
	for _, tt := range tests {
		if !approxEqual(tt.got, tt.want) {
			t.Errorf("%s = %v, want %v", tt.field, tt.got, tt.want)
		}
	}

	assertFloatPtr(t, "GustSpeed", got.GustSpeed, f(22))
	assertStringPtr(t, "GustDirection", got.GustDirection, s("E"))
	if got.MonthsWithData != 3 {
		t.Errorf("MonthsWithData = %d, want 3", got.MonthsWithData)
	}
	if got.Year != 2024 || got.StationCode != "A001" {
		t.Errorf("identity = %s %d, want A001 2024", got.StationCode, got.Year)
	}
}

// Folding months into a year must agree with folding every day at once for the
// sums and extremes. The means differ: the year averages monthly means.
func TestYearFromMonthsMatchesDirectFold(t *testing.T) {
	january := []types.ProcessedDailyRecord{
		withExtras(day("2024-01-15", f(30), f(20), f(10)), 5, 4.5, 18, "N"),
	}
	february := []types.ProcessedDailyRecord{
		withExtras(day("2024-02-01", f(28), f(15), f(20)), 0, 3.25, 12, "E"),
		withExtras(day("2024-02-02", f(33), f(18), f(20)), 12.5, 6, 25, "SW"),
		withExtras(day("2024-02-03", f(31), f(17), f(20)), 1, 5, 25, "S"),
	}

	jan := AggregateMonth(january)
	feb := AggregateMonth(february)
	year := AggregateYear([]types.MonthlySummary{*jan, *feb})

	all := append(append([]types.ProcessedDailyRecord{}, january...), february...)
	direct := AggregateMonth(all)

	if !approxEqual(year.TempMax, direct.TempMax) || !approxEqual(year.TempMin, direct.TempMin) {
		t.Errorf("extremes differ: year %v/%v, direct %v/%v", year.TempMax, year.TempMin, direct.TempMax, direct.TempMin)
	}
	if !approxEqual(year.PrecipitationTotal, direct.PrecipitationTotal) {
		t.Errorf("precipitation differs: year %v, direct %v", year.PrecipitationTotal, direct.PrecipitationTotal)
	}
	if !approxEqual(year.RadiationTotal, direct.RadiationTotal) {
		t.Errorf("radiation differs: year %v, direct %v", year.RadiationTotal, direct.RadiationTotal)
	}
	assertFloatPtr(t, "GustSpeed", year.GustSpeed, direct.GustSpeed)
	assertStringPtr(t, "GustDirection", year.GustDirection, direct.GustDirection)

	// Mean of means (10 + 20) / 2 = 15; day weighted (10 + 20*3) / 4 = 17.5.
	if !approxEqual(year.TempMean, 15) {
		t.Errorf("yearly TempMean = %v, want 15", year.TempMean)
	}
	if !approxEqual(direct.TempMean, 17.5) {
		t.Errorf("direct TempMean = %v, want 17.5", direct.TempMean)
	}
}

func withExtras(d types.ProcessedDailyRecord, precip, radiation, gust float64, dir string) types.ProcessedDailyRecord {
	d.Precipitation = f(precip)
	d.RadiationTotal = radiation
	d.GustSpeed = f(gust)
	d.GustDirection = s(dir)
	return d
}
