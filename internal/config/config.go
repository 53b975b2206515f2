package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/LudiSistemas/HA/internal/forecast"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string

	// Sensors lists the tracked entities and the kind each one feeds.
	// States from any other entity are ignored.
	Sensors forecast.SensorBindings
	// Location is the station's time zone. It selects the season and the
	// time of day the classifier compares readings against.
	Location *time.Location

	// RulesFile is an optional YAML file overriding classifier thresholds.
	RulesFile   string
	DefaultLang string

	HistoryMaxOffsetDays  int
	PressureHistoryWindow time.Duration
	RetentionSchedule     string
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are given) without overriding variables already set in the environment.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "data/weather.db"
	}

	maxOpenConns, err := intEnv("DB_MAX_OPEN_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intEnv("DB_MAX_IDLE_CONNS", 1)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := durationEnv("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}
	mqttPort, err := intEnv("MQTT_PORT", 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (expected 1-65535)", mqttPort)
	}
	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "weather-server"
	}
	mqttTopic := strings.TrimSpace(os.Getenv("MQTT_TOPIC"))
	if mqttTopic == "" {
		mqttTopic = "homeassistant/sensor/+/state"
	}

	sensorIDs := strings.TrimSpace(os.Getenv("SENSOR_IDS"))
	if sensorIDs == "" {
		return Config{}, errors.New("SENSOR_IDS is required (comma separated entity ids, optionally entity_id=kind)")
	}
	sensors, err := forecast.ParseSensorBindings(sensorIDs)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_IDS: %w", err)
	}
	if len(sensors) == 0 {
		return Config{}, fmt.Errorf("invalid SENSOR_IDS %q (no entity ids)", sensorIDs)
	}

	tz := strings.TrimSpace(os.Getenv("TIMEZONE"))
	if tz == "" {
		tz = "Local"
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	defaultLang := strings.ToLower(strings.TrimSpace(os.Getenv("DEFAULT_LANG")))
	if defaultLang == "" {
		defaultLang = "en"
	}

	maxOffset, err := intEnv("HISTORY_MAX_OFFSET_DAYS", 7)
	if err != nil {
		return Config{}, err
	}
	if maxOffset < 0 {
		return Config{}, fmt.Errorf("invalid HISTORY_MAX_OFFSET_DAYS %d (must be >= 0)", maxOffset)
	}

	pressureWindow, err := durationEnv("PRESSURE_HISTORY_WINDOW", 3*time.Hour)
	if err != nil {
		return Config{}, err
	}
	if pressureWindow <= 0 {
		return Config{}, fmt.Errorf("invalid PRESSURE_HISTORY_WINDOW %s (must be > 0)", pressureWindow)
	}

	retentionSchedule := strings.TrimSpace(os.Getenv("RETENTION_SCHEDULE"))
	if retentionSchedule == "" {
		retentionSchedule = "@hourly"
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		Driver:                driver,
		DSN:                   dsn,
		Path:                  path,
		MaxOpenConns:          maxOpenConns,
		MaxIdleConns:          maxIdleConns,
		ConnMaxLifetime:       connMaxLifetime,
		MQTTBroker:            mqttBroker,
		MQTTPort:              mqttPort,
		MQTTClientID:          mqttClientID,
		MQTTTopic:             mqttTopic,
		Sensors:               sensors,
		Location:              location,
		RulesFile:             strings.TrimSpace(os.Getenv("RULES_FILE")),
		DefaultLang:           defaultLang,
		HistoryMaxOffsetDays:  maxOffset,
		PressureHistoryWindow: pressureWindow,
		RetentionSchedule:     retentionSchedule,
	}, nil
}

func intEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
