// Package units converts raw provider values into the units reported by wxsummary.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RadiationToEnergy converts an hourly global radiation reading (kJ/m²) into the
// energy accumulated over that hour in MJ/m².
func RadiationToEnergy(raw float64) float64 {
	return raw * 3600 / 1_000_000
}

// RadiationEnergyOrZero is RadiationToEnergy for optional readings; absent
// readings contribute nothing to a sum.
func RadiationEnergyOrZero(raw *float64) float64 {
	if raw == nil {
		return 0
	}
	return RadiationToEnergy(*raw)
}

// UTCTimeToLocal interprets hhmm (e.g. "2300") as a UTC time on date (YYYY-MM-DD)
// and returns the wall-clock time in loc formatted as "HH:MM".
//
// Only the time of day is returned. An early UTC hour can belong to the previous
// local day ("0100" in UTC-3 is "22:00" of the day before) and that shift is not
// reported.
func UTCTimeToLocal(hhmm, date string, loc *time.Location) (string, error) {
	hhmm = strings.TrimSpace(hhmm)
	if len(hhmm) != 4 {
		return "", fmt.Errorf("invalid UTC time %q: want HHMM", hhmm)
	}

	t, err := time.ParseInLocation("2006-01-02 1504", date+" "+hhmm, time.UTC)
	if err != nil {
		return "", fmt.Errorf("invalid UTC timestamp %q %q: %w", date, hhmm, err)
	}

	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04"), nil
}

// ParseOptionalNumber parses a provider value that may be blank or garbage.
// Anything that is not a finite number comes back as nil.
func ParseOptionalNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
