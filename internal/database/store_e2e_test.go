//go:build e2e

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/chrissnell/wxsummary/internal/types"
)

func startPostgres(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "wx",
			"POSTGRES_PASSWORD": "wx",
			"POSTGRES_DB":       "wxsummary",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	dsn := fmt.Sprintf("host=%s port=%s user=wx password=wx dbname=wxsummary sslmode=disable", host, port.Port())
	client, err := Connect(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.CreateTables(); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return client
}

func TestStoreRoundTrip(t *testing.T) {
	client := startPostgres(t)
	ctx := context.Background()

	days := []types.ProcessedDailyRecord{
		{DailyObservation: types.DailyObservation{StationCode: "A025", Date: "2024-06-01", TempMax: fp(25)}, RadiationTotal: 10},
		{DailyObservation: types.DailyObservation{StationCode: "A025", Date: "2024-06-02", TempMax: fp(27)}, GustSpeed: fp(12), GustDirection: sp("N")},
	}
	if n, err := client.SaveDaily(ctx, days); err != nil || n != 2 {
		t.Fatalf("SaveDaily = %d, %v", n, err)
	}

	// Saving again updates in place instead of duplicating.
	days[0].TempMax = fp(26)
	if _, err := client.SaveDaily(ctx, days); err != nil {
		t.Fatalf("SaveDaily (update): %v", err)
	}

	got, err := client.DailyRange(ctx, "A025", "2024-06-01", "2024-06-30")
	if err != nil {
		t.Fatalf("DailyRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("DailyRange returned %d rows, want 2", len(got))
	}
	if *got[0].TempMax != 26 {
		t.Errorf("TempMax = %v, want 26 after update", *got[0].TempMax)
	}
	if got[1].GustDirection == nil || *got[1].GustDirection != "N" {
		t.Errorf("GustDirection = %v, want N", got[1].GustDirection)
	}

	hourly := []types.LocalHourlyReading{
		{HourlyObservation: types.HourlyObservation{StationCode: "A025", Date: "2024-06-01", Time: "2300"}, LocalTime: "20:00", RadiationEnergy: 3.6},
	}
	if _, err := client.SaveHourly(ctx, hourly); err != nil {
		t.Fatalf("SaveHourly: %v", err)
	}
	readings, err := client.HourlyRange(ctx, "A025", "2024-06-01", "2024-06-01")
	if err != nil || len(readings) != 1 || readings[0].LocalTime != "20:00" {
		t.Fatalf("HourlyRange = %+v, %v", readings, err)
	}

	month := types.MonthlySummary{StationCode: "A025", Year: 2024, Month: 6, TempMax: 27, Days: 2}
	if err := client.SaveMonthly(ctx, month); err != nil {
		t.Fatalf("SaveMonthly: %v", err)
	}
	stored, err := client.MonthlySummary(ctx, "A025", 2024, 6)
	if err != nil || stored == nil || stored.TempMax != 27 {
		t.Fatalf("MonthlySummary = %+v, %v", stored, err)
	}
	missing, err := client.MonthlySummary(ctx, "A025", 2024, 7)
	if err != nil || missing != nil {
		t.Fatalf("MonthlySummary (missing) = %+v, %v", missing, err)
	}

	year := types.YearlySummary{StationCode: "A025", Year: 2024, TempMax: 27, MonthsWithData: 1}
	if err := client.SaveYearly(ctx, year); err != nil {
		t.Fatalf("SaveYearly: %v", err)
	}
	ys, err := client.YearlySummary(ctx, "A025", 2024)
	if err != nil || ys == nil || ys.MonthsWithData != 1 {
		t.Fatalf("YearlySummary = %+v, %v", ys, err)
	}

	run := types.IngestRun{
		ID:          uuid.New(),
		Kind:        types.RunMonth,
		StationCode: "A025",
		Params:      map[string]any{"year": 2024, "month": 6},
		StartedAt:   time.Now().UTC(),
		FinishedAt:  time.Now().UTC(),
		DailyRows:   2,
	}
	if err := client.RecordRun(ctx, run); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	runs, err := client.ListRuns(ctx, 5)
	if err != nil || len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("ListRuns = %+v, %v", runs, err)
	}
}
