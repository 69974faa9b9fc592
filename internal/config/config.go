package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/Edgar-Del/malaria-predict-mono/internal/ml"
	"github.com/Edgar-Del/malaria-predict-mono/internal/ml/features"
)

// Config holds application configuration loaded from environment.
type Config struct {
	DB struct {
		DSN string
	}
	API struct {
		Addr            string
		BasePath        string
		DefaultProvince string
	}
	Kafka struct {
		Brokers []string
		Topic   string
		GroupID string
		Enabled bool
	}
	Email struct {
		SMTPServer string
		SMTPPort   int
		Username   string
		Password   string
		FromName   string
		Recipients []string
	}
	Telegram struct {
		BotToken string
		ChatIDs  []int64
	}
	Logging struct {
		Dir    string
		Level  string
		Format string
	}
	Alerts struct {
		Thresholds ml.AlertThresholds
		Workers    int
		QueueSize  int
	}
	Model struct {
		Path string
	}
	ML ml.Config
}

// Load reads environment variables, applies defaults, validates, and returns
// a Config. A .env file in the working directory is honored when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.DB.DSN = os.Getenv("DB_DSN")

	cfg.API.Addr = envOrDefault("API_ADDR", ":8080")
	cfg.API.BasePath = envOrDefault("API_BASE_PATH", "/api/v1")
	cfg.API.DefaultProvince = envOrDefault("DEFAULT_PROVINCE", "Bié")

	cfg.Kafka.Brokers = splitNonEmpty(os.Getenv("KAFKA_BROKERS"))
	cfg.Kafka.Topic = envOrDefault("KAFKA_TOPIC", "weekly-records")
	cfg.Kafka.GroupID = envOrDefault("KAFKA_GROUP_ID", "malaria-predict")
	cfg.Kafka.Enabled = len(cfg.Kafka.Brokers) > 0

	cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	cfg.Email.SMTPPort = envInt("EMAIL_SMTP_PORT", 587)
	cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromName = envOrDefault("EMAIL_FROM_NAME", "Malaria Risk Monitor")
	cfg.Email.Recipients = splitNonEmpty(os.Getenv("ALERT_RECIPIENTS"))

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	for _, raw := range splitNonEmpty(os.Getenv("TELEGRAM_CHAT_IDS")) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TELEGRAM_CHAT_IDS entry %q: %w", raw, err)
		}
		cfg.Telegram.ChatIDs = append(cfg.Telegram.ChatIDs, id)
	}

	cfg.Logging.Dir = envOrDefault("LOG_DIR", "logs")
	cfg.Logging.Level = envOrDefault("LOG_LEVEL", "info")
	cfg.Logging.Format = envOrDefault("LOG_FORMAT", "text")

	cfg.Alerts.Thresholds = ml.AlertThresholds{
		High:   envFloat("ALERT_HIGH_THRESHOLD", 0.7),
		Medium: envFloat("ALERT_MEDIUM_THRESHOLD", 0.4),
	}
	cfg.Alerts.Workers = envInt("ALERT_WORKERS", 4)
	cfg.Alerts.QueueSize = envInt("ALERT_QUEUE_SIZE", 100)

	cfg.Model.Path = envOrDefault("MODEL_PATH", "models/malaria.model")

	cfg.ML = loadMLConfig()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadMLConfig overlays environment variables on the canonical defaults.
func loadMLConfig() ml.Config {
	mc := ml.DefaultConfig()
	mc.TestSize = envFloat("TEST_SIZE", mc.TestSize)
	mc.RandomState = int64(envInt("RANDOM_STATE", int(mc.RandomState)))
	mc.NumTrees = envInt("N_ESTIMATORS", mc.NumTrees)
	mc.MaxDepth = envInt("MAX_DEPTH", mc.MaxDepth)
	mc.MinSamplesSplit = envInt("MIN_SAMPLES_SPLIT", mc.MinSamplesSplit)
	mc.MinSamplesLeaf = envInt("MIN_SAMPLES_LEAF", mc.MinSamplesLeaf)
	mc.BalancedClasses = os.Getenv("CLASS_WEIGHT") == "balanced"
	mc.CVFolds = envInt("CV_FOLDS", mc.CVFolds)
	mc.MinHistoryWeeks = envInt("MIN_HISTORY_WEEKS", mc.MinHistoryWeeks)
	mc.Features.LabelMethod = envOrDefault("LABEL_METHOD", features.LabelMethodQuantile)
	if raw := os.Getenv("LAG_PERIODS"); raw != "" {
		mc.Features.LagPeriods = intList(raw, mc.Features.LagPeriods)
	}
	if raw := os.Getenv("ROLLING_WINDOWS"); raw != "" {
		mc.Features.RollingWindows = intList(raw, mc.Features.RollingWindows)
	}
	return mc
}

func (c Config) validate() error {
	var missing []string
	if c.DB.DSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configurations: %v", missing)
	}
	if c.Alerts.Thresholds.Medium >= c.Alerts.Thresholds.High {
		return fmt.Errorf("ALERT_MEDIUM_THRESHOLD must be below ALERT_HIGH_THRESHOLD")
	}
	// Fail fast on bad ML options before any training or prediction runs.
	if err := c.ML.Validate(); err != nil {
		return err
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intList(raw string, fallback []int) []int {
	var out []int
	for _, part := range splitNonEmpty(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return fallback
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
