package inmet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/chrissnell/wxsummary/internal/constants"
)

const hourlyBody = `[
	{"DT_MEDICAO":"2024-06-15","HR_MEDICAO":"2300","CD_ESTACAO":"A025","TEM_MIN":"18.2","TEM_MAX":19.5,
	 "UMD_MIN":"70","UMD_MAX":"88","UMD_MED":null,"CHUVA":"0.0","RAD_GLO":"1000","VEN_VEL":"2.1",
	 "VEN_RAJ":"6.4","VEN_DIR":"135"},
	{"DT_MEDICAO":"2024-06-15","HR_MEDICAO":"0000","CD_ESTACAO":"A025","TEM_MIN":"","TEM_MAX":"abc",
	 "UMD_MIN":null,"UMD_MAX":null,"UMD_MED":"75","CHUVA":null,"RAD_GLO":null,"VEN_VEL":null,
	 "VEN_RAJ":null,"VEN_DIR":null}
]`

const dailyBody = `[
	{"DT_MEDICAO":"2024-06-15","CD_ESTACAO":"A025","TEMP_MAX":"25.1","TEMP_MIN":"12.0","TEMP_MED":"18.4",
	 "UMID_MIN":"45","UMID_MED":"71.5","CHUVA":"0","VEL_VENTO_MED":"1.9"}
]`

func newTestClient(url string, retries int) *Client {
	return NewClient(Config{
		Endpoint:   url,
		Token:      "secret",
		Timeout:    2 * time.Second,
		MaxRetries: retries,
		Backoff:    time.Millisecond,
	})
}

func TestFetchHourly(t *testing.T) {
	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.UserAgent()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(hourlyBody))
	}))
	defer srv.Close()

	obs := newTestClient(srv.URL, 0).FetchHourly(context.Background(), "2024-06-15", "2024-06-15", "A025")

	if want := "/token/estacao/2024-06-15/2024-06-15/A025/secret"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotAgent != constants.UserAgent {
		t.Errorf("User-Agent = %q, want %q", gotAgent, constants.UserAgent)
	}
	if len(obs) != 2 {
		t.Fatalf("got %d observations, want 2", len(obs))
	}

	first := obs[0]
	if first.Time != "2300" || first.Date != "2024-06-15" || first.StationCode != "A025" {
		t.Errorf("identity = %s %s %s", first.StationCode, first.Date, first.Time)
	}
	if first.TempMax == nil || *first.TempMax != 19.5 {
		t.Errorf("TempMax from bare number = %v, want 19.5", first.TempMax)
	}
	if first.WindGust == nil || *first.WindGust != 6.4 {
		t.Errorf("WindGust = %v, want 6.4", first.WindGust)
	}
	if first.WindGustDirection == nil || *first.WindGustDirection != "135" {
		t.Errorf("WindGustDirection = %v, want 135", first.WindGustDirection)
	}

	second := obs[1]
	if second.TempMin != nil || second.TempMax != nil || second.Radiation != nil || second.WindGustDirection != nil {
		t.Errorf("blank, garbage and null values should be absent: %+v", second)
	}
	if second.HumidityMean == nil || *second.HumidityMean != 75 {
		t.Errorf("HumidityMean = %v, want 75", second.HumidityMean)
	}
}

func TestFetchDaily(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(dailyBody))
	}))
	defer srv.Close()

	obs := newTestClient(srv.URL, 0).FetchDaily(context.Background(), "2024-06-01", "2024-06-30", "A025")

	if want := "/token/estacao/diaria/2024-06-01/2024-06-30/A025/secret"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if len(obs) != 1 {
		t.Fatalf("got %d observations, want 1", len(obs))
	}

	d := obs[0]
	checks := []struct {
		field string
		got   *float64
		want  float64
	}{
		{"TempMax", d.TempMax, 25.1},
		{"TempMin", d.TempMin, 12.0},
		{"TempMean", d.TempMean, 18.4},
		{"HumidityMin", d.HumidityMin, 45},
		{"HumidityMean", d.HumidityMean, 71.5},
		{"Precipitation", d.Precipitation, 0},
		{"WindSpeedMean", d.WindSpeedMean, 1.9},
	}
	for _, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Errorf("%s = %v, want %v", c.field, c.got, c.want)
		}
	}
}

func TestFetchDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
		{
			name: "object instead of array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"message":"token invalido"}`))
			},
		},
		{
			name: "malformed array",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"DT_MEDICAO":`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(srv.URL, 0)
			hourly := c.FetchHourly(context.Background(), "2024-06-01", "2024-06-02", "A025")
			daily := c.FetchDaily(context.Background(), "2024-06-01", "2024-06-02", "A025")

			if hourly == nil || len(hourly) != 0 {
				t.Errorf("hourly = %v, want empty non-nil slice", hourly)
			}
			if daily == nil || len(daily) != 0 {
				t.Errorf("daily = %v, want empty non-nil slice", daily)
			}
		})
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(dailyBody))
	}))
	defer srv.Close()

	obs := newTestClient(srv.URL, 3).FetchDaily(context.Background(), "2024-06-15", "2024-06-15", "A025")
	if len(obs) != 1 {
		t.Errorf("got %d observations after retries, want 1", len(obs))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	newTestClient(srv.URL, 3).FetchHourly(context.Background(), "2024-06-15", "2024-06-15", "A025")
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 0)
	for i := 0; i < 8; i++ {
		c.FetchDaily(context.Background(), "2024-06-15", "2024-06-15", "A025")
	}
	if got := atomic.LoadInt32(&calls); got != 5 {
		t.Errorf("server saw %d calls, want 5 before the breaker opened", got)
	}
}

func TestCircuitIgnoresClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"forbidden", http.StatusForbidden},
		{"not found", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newTestClient(srv.URL, 3)
			for i := 0; i < 8; i++ {
				c.FetchHourly(context.Background(), "2024-06-15", "2024-06-15", "A025")
			}
			if got := atomic.LoadInt32(&calls); got != 8 {
				t.Errorf("server saw %d calls, want 8 with the breaker closed", got)
			}
			if state := c.circuit.State(); state != gobreaker.StateClosed {
				t.Errorf("breaker state = %s, want closed", state)
			}
		})
	}
}
