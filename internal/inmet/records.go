package inmet

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/chrissnell/wxsummary/internal/types"
	"github.com/chrissnell/wxsummary/internal/units"
)

// hourlyRecord mirrors one element of the hourly station feed. Values arrive as
// strings, bare numbers or null, so they are kept raw until conversion.
type hourlyRecord struct {
	Date        string          `json:"DT_MEDICAO"`
	Time        json.RawMessage `json:"HR_MEDICAO"`
	Station     string          `json:"CD_ESTACAO"`
	TempMin     json.RawMessage `json:"TEM_MIN"`
	TempMax     json.RawMessage `json:"TEM_MAX"`
	HumidityMin json.RawMessage `json:"UMD_MIN"`
	HumidityMax json.RawMessage `json:"UMD_MAX"`
	HumidityMed json.RawMessage `json:"UMD_MED"`
	Rain        json.RawMessage `json:"CHUVA"`
	Radiation   json.RawMessage `json:"RAD_GLO"`
	WindSpeed   json.RawMessage `json:"VEN_VEL"`
	WindGust    json.RawMessage `json:"VEN_RAJ"`
	WindDir     json.RawMessage `json:"VEN_DIR"`
}

// dailyRecord mirrors one element of the daily station feed.
type dailyRecord struct {
	Date        string          `json:"DT_MEDICAO"`
	Station     string          `json:"CD_ESTACAO"`
	TempMax     json.RawMessage `json:"TEMP_MAX"`
	TempMin     json.RawMessage `json:"TEMP_MIN"`
	TempMed     json.RawMessage `json:"TEMP_MED"`
	HumidityMin json.RawMessage `json:"UMID_MIN"`
	HumidityMed json.RawMessage `json:"UMID_MED"`
	Rain        json.RawMessage `json:"CHUVA"`
	WindSpeed   json.RawMessage `json:"VEL_VENTO_MED"`
}

func (r hourlyRecord) observation(station string) types.HourlyObservation {
	if r.Station != "" {
		station = r.Station
	}
	return types.HourlyObservation{
		StationCode:       station,
		Date:              r.Date,
		Time:              rawString(r.Time),
		TempMin:           rawNumber(r.TempMin),
		TempMax:           rawNumber(r.TempMax),
		HumidityMin:       rawNumber(r.HumidityMin),
		HumidityMax:       rawNumber(r.HumidityMax),
		HumidityMean:      rawNumber(r.HumidityMed),
		Precipitation:     rawNumber(r.Rain),
		Radiation:         rawNumber(r.Radiation),
		WindSpeed:         rawNumber(r.WindSpeed),
		WindGust:          rawNumber(r.WindGust),
		WindGustDirection: rawOptionalString(r.WindDir),
	}
}

func (r dailyRecord) observation(station string) types.DailyObservation {
	if r.Station != "" {
		station = r.Station
	}
	return types.DailyObservation{
		StationCode:   station,
		Date:          r.Date,
		TempMax:       rawNumber(r.TempMax),
		TempMin:       rawNumber(r.TempMin),
		TempMean:      rawNumber(r.TempMed),
		HumidityMin:   rawNumber(r.HumidityMin),
		HumidityMean:  rawNumber(r.HumidityMed),
		Precipitation: rawNumber(r.Rain),
		WindSpeedMean: rawNumber(r.WindSpeed),
	}
}

// rawString returns the text of a JSON string or the literal of any other
// scalar. null and missing values become "".
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}

func rawOptionalString(raw json.RawMessage) *string {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return nil
	}
	return &s
}

func rawNumber(raw json.RawMessage) *float64 {
	return units.ParseOptionalNumber(rawString(raw))
}
