package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hejijunhao/triage/internal/engine/textclf"
)

// DefaultTeams are the assignable teams when none are configured.
var DefaultTeams = []string{"CAN Layer Team", "NavCore Team", "Diagnostics Team", "Unknown/Unassigned"}

// Config holds all triage configuration.
type Config struct {
	CatalogPath string         `yaml:"catalog"`
	Models      ModelsConfig   `yaml:"models"`
	Training    TrainingConfig `yaml:"training"`
	Store       StoreConfig    `yaml:"store"`
	Output      OutputConfig   `yaml:"output"`
	Log         LogConfig      `yaml:"log"`
	Server      ServerConfig   `yaml:"server"`
	MetricsFile string         `yaml:"metrics_file"`
	// Filter is an optional record filter expression applied before
	// matching and line classification.
	Filter string `yaml:"filter"`
}

// ModelsConfig holds the artifact paths of the two classifiers.
type ModelsConfig struct {
	LinePath     string `yaml:"line"`
	SequencePath string `yaml:"sequence"`
}

// TrainingConfig holds offline training settings.
type TrainingConfig struct {
	LineData     string  `yaml:"line_data"`
	SequenceData string  `yaml:"sequence_data"`
	TestSize     float64 `yaml:"test_size"`
	Seed         uint64  `yaml:"seed"`
	MaxIter      int     `yaml:"max_iter"`
	C            float64 `yaml:"c"`
}

// StoreConfig holds the confirmation store settings.
type StoreConfig struct {
	ConfirmationsPath string   `yaml:"confirmations"`
	Teams             []string `yaml:"teams"`
}

// OutputConfig holds report output settings.
type OutputConfig struct {
	Format     string `yaml:"format"` // "json" or "text"
	Detail     string `yaml:"detail"` // "full" or "summary"
	Pretty     bool   `yaml:"pretty"`
	File       string `yaml:"file"`
	WebhookURL string `yaml:"webhook_url"`
	PreviewLen int    `yaml:"preview_len"`
}

// LogConfig holds process logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when neither a file nor the
// environment sets a value.
func Default() Config {
	tc := textclf.DefaultConfig()
	return Config{
		CatalogPath: "data/defects.json",
		Models: ModelsConfig{
			LinePath:     "models/line_classifier.model",
			SequencePath: "models/sequence_classifier.model",
		},
		Training: TrainingConfig{
			LineData:     "data/labeled_logs.csv",
			SequenceData: "data/log_sequences.csv",
			TestSize:     tc.TestSize,
			Seed:         tc.Seed,
			MaxIter:      tc.MaxIter,
			C:            tc.C,
		},
		Store: StoreConfig{
			ConfirmationsPath: "data/confirmed_defects.csv",
			Teams:             append([]string(nil), DefaultTeams...),
		},
		Output: OutputConfig{
			Format:     "json",
			Detail:     "full",
			PreviewLen: 300,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadBytes:  32 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then TRIAGE_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.CatalogPath = getenv("TRIAGE_CATALOG", cfg.CatalogPath)
	cfg.Filter = getenv("TRIAGE_FILTER", cfg.Filter)
	cfg.MetricsFile = getenv("TRIAGE_METRICS_FILE", cfg.MetricsFile)

	cfg.Models.LinePath = getenv("TRIAGE_LINE_MODEL", cfg.Models.LinePath)
	cfg.Models.SequencePath = getenv("TRIAGE_SEQUENCE_MODEL", cfg.Models.SequencePath)

	cfg.Training.LineData = getenv("TRIAGE_LINE_DATA", cfg.Training.LineData)
	cfg.Training.SequenceData = getenv("TRIAGE_SEQUENCE_DATA", cfg.Training.SequenceData)
	cfg.Training.TestSize = getenvFloat("TRIAGE_TEST_SIZE", cfg.Training.TestSize)
	cfg.Training.Seed = getenvUint("TRIAGE_SEED", cfg.Training.Seed)
	cfg.Training.MaxIter = getenvInt("TRIAGE_MAX_ITER", cfg.Training.MaxIter)
	cfg.Training.C = getenvFloat("TRIAGE_C", cfg.Training.C)

	cfg.Store.ConfirmationsPath = getenv("TRIAGE_CONFIRMATIONS", cfg.Store.ConfirmationsPath)
	cfg.Store.Teams = getenvList("TRIAGE_TEAMS", cfg.Store.Teams)

	cfg.Output.Format = getenv("TRIAGE_OUTPUT", cfg.Output.Format)
	cfg.Output.Detail = getenv("TRIAGE_OUTPUT_DETAIL", cfg.Output.Detail)
	cfg.Output.Pretty = getenvBool("TRIAGE_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.File = getenv("TRIAGE_OUTPUT_FILE", cfg.Output.File)
	cfg.Output.WebhookURL = getenv("TRIAGE_WEBHOOK_URL", cfg.Output.WebhookURL)
	cfg.Output.PreviewLen = getenvInt("TRIAGE_PREVIEW_LEN", cfg.Output.PreviewLen)

	cfg.Log.Level = getenv("TRIAGE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getenv("TRIAGE_LOG_FILE", cfg.Log.File)
	cfg.Log.MaxSizeMB = getenvInt("TRIAGE_LOG_MAX_SIZE_MB", cfg.Log.MaxSizeMB)

	cfg.Server.Addr = getenv("TRIAGE_ADDR", cfg.Server.Addr)
	cfg.Server.AllowedOrigins = getenvList("TRIAGE_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.MaxUploadBytes = int64(getenvInt("TRIAGE_MAX_UPLOAD_BYTES", int(cfg.Server.MaxUploadBytes)))
	cfg.Server.ShutdownTimeout = getenvDuration("TRIAGE_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
}

// Classifier converts the training settings to the classifier pipeline
// configuration. Learning rate and tolerance keep their defaults.
func (t TrainingConfig) Classifier() textclf.Config {
	c := textclf.DefaultConfig()
	c.TestSize = t.TestSize
	c.Seed = t.Seed
	c.MaxIter = t.MaxIter
	c.C = t.C
	return c
}

// Validate checks the configuration for errors that would prevent startup,
// including a missing catalog file. Model artifacts are not required to
// exist: a missing model is reported per analysis.
func (c Config) Validate() error {
	if c.CatalogPath == "" {
		return errors.New("config: catalog path must be set (TRIAGE_CATALOG)")
	}
	if _, err := os.Stat(c.CatalogPath); err != nil {
		return fmt.Errorf("config: catalog file: %w", err)
	}
	return c.ValidateSettings()
}

// ValidateSettings checks value ranges only. Commands that never read the
// catalog, such as training, use it instead of Validate.
func (c Config) ValidateSettings() error {
	if c.Training.TestSize < 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("config: training test size %v must be in [0, 1)", c.Training.TestSize)
	}
	if c.Training.MaxIter <= 0 {
		return fmt.Errorf("config: training max_iter %d must be positive", c.Training.MaxIter)
	}
	if c.Training.C <= 0 {
		return fmt.Errorf("config: training C %v must be positive", c.Training.C)
	}
	if len(c.Store.Teams) == 0 {
		return errors.New("config: store teams must not be empty")
	}
	for _, team := range c.Store.Teams {
		if strings.TrimSpace(team) == "" {
			return errors.New("config: store teams must not contain blank names")
		}
	}
	switch c.Output.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: output format %q must be json or text", c.Output.Format)
	}
	switch c.Output.Detail {
	case "full", "summary":
	default:
		return fmt.Errorf("config: output detail %q must be full or summary", c.Output.Detail)
	}
	if c.Output.PreviewLen < 0 {
		return fmt.Errorf("config: output preview_len %d must not be negative", c.Output.PreviewLen)
	}
	if c.Output.WebhookURL != "" {
		u, err := url.Parse(c.Output.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("config: webhook url %q must be an absolute http(s) URL", c.Output.WebhookURL)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: log level %q must be debug, info, warn or error", c.Log.Level)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: server max_upload_bytes %d must be positive", c.Server.MaxUploadBytes)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getenvList reads a comma-separated list, dropping blank items.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
