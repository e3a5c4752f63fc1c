package config

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS stations (
	code       TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	is_default INTEGER NOT NULL DEFAULT 0
);
`

// Setting keys stored in the settings table.
const (
	keyEndpoint   = "provider.api_endpoint"
	keyToken      = "provider.token"
	keyTimezone   = "provider.timezone"
	keyTimeout    = "provider.timeout_seconds"
	keyMaxRetries = "provider.max_retries"
	keyPostgres   = "storage.postgres.connection_string"
	keyRESTCert   = "rest.cert"
	keyRESTKey    = "rest.key"
	keyRESTPort   = "rest.port"
	keyRESTListen = "rest.listen_addr"
	keyMonthDelay = "populate.month_delay"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens (creating if needed) a SQLite configuration database.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create configuration schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, err
	}

	config := &ConfigData{
		Provider: ProviderData{
			APIEndpoint: settings[keyEndpoint],
			Token:       settings[keyToken],
			Timezone:    settings[keyTimezone],
		},
		RESTServer: RESTServerData{
			Cert:       settings[keyRESTCert],
			Key:        settings[keyRESTKey],
			ListenAddr: settings[keyRESTListen],
		},
		Populate: PopulateData{
			MonthDelay: settings[keyMonthDelay],
		},
	}

	ints := []struct {
		key string
		dst *int
	}{
		{keyTimeout, &config.Provider.TimeoutSeconds},
		{keyRESTPort, &config.RESTServer.Port},
	}
	for _, i := range ints {
		v, ok := settings[i.key]
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %q is not an integer", i.key, v)
		}
		*i.dst = n
	}
	if v := settings[keyMaxRetries]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %q is not an integer", keyMaxRetries, v)
		}
		config.Provider.MaxRetries = &n
	}

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	stations, err := s.GetStations()
	if err != nil {
		return nil, fmt.Errorf("failed to load stations: %w", err)
	}
	config.Stations = stations

	return config, nil
}

// GetStations returns station configurations from the database
func (s *SQLiteProvider) GetStations() ([]StationData, error) {
	rows, err := s.db.Query(`SELECT code, name, is_default FROM stations ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []StationData
	for rows.Next() {
		var st StationData
		var isDefault int
		if err := rows.Scan(&st.Code, &st.Name, &isDefault); err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		st.Default = isDefault != 0
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// GetStorageConfig returns storage configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	var conn string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, keyPostgres).Scan(&conn)
	if err == sql.ErrNoRows {
		return &StorageData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query storage config: %w", err)
	}
	if conn == "" {
		return &StorageData{}, nil
	}
	return &StorageData{Postgres: &PostgresData{ConnectionString: conn}}, nil
}

// SaveConfig replaces the stored configuration with config.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM stations`); err != nil {
		return fmt.Errorf("failed to clear stations: %w", err)
	}

	settings := map[string]string{
		keyEndpoint:   config.Provider.APIEndpoint,
		keyToken:      config.Provider.Token,
		keyTimezone:   config.Provider.Timezone,
		keyRESTCert:   config.RESTServer.Cert,
		keyRESTKey:    config.RESTServer.Key,
		keyRESTListen: config.RESTServer.ListenAddr,
		keyMonthDelay: config.Populate.MonthDelay,
	}
	if config.Provider.TimeoutSeconds != 0 {
		settings[keyTimeout] = strconv.Itoa(config.Provider.TimeoutSeconds)
	}
	if config.Provider.MaxRetries != nil {
		settings[keyMaxRetries] = strconv.Itoa(*config.Provider.MaxRetries)
	}
	if config.RESTServer.Port != 0 {
		settings[keyRESTPort] = strconv.Itoa(config.RESTServer.Port)
	}
	if config.Storage.Postgres != nil {
		settings[keyPostgres] = config.Storage.Postgres.ConnectionString
	}

	for k, v := range settings {
		if v == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", k, err)
		}
	}

	for _, st := range config.Stations {
		isDefault := 0
		if st.Default {
			isDefault = 1
		}
		if _, err := tx.Exec(`INSERT INTO stations (code, name, is_default) VALUES (?, ?, ?)`,
			st.Code, st.Name, isDefault); err != nil {
			return fmt.Errorf("failed to save station %s: %w", st.Code, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteProvider) settings() (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// IsReadOnly returns false as SQLite provider supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
