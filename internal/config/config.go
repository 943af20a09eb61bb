// Package config provides configuration management for the grading tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gradeflow/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding file settings,
// e.g. GRADER_LOGGING_LEVEL=debug.
const EnvPrefix = "GRADER"

// Configuration validation errors.
var (
	ErrInvalidConfig            = errors.New("invalid configuration")
	ErrDuplicateColumn          = errors.New("column names must be distinct")
	ErrMissingSinkDir           = errors.New("sink.dir is required for the file sink")
	ErrIncompleteSFTP           = errors.New("sink.sftp.host and sink.sftp.user are required for the sftp sink")
	ErrIncompleteMinio          = errors.New("sink.minio.endpoint and sink.minio.bucket are required for the minio sink")
	ErrInvalidBackoffMultiplier = errors.New("sink.retry.backoff_multiplier must be >= 1.0")
	ErrMaxDelayBelowInitial     = errors.New("sink.retry.max_delay_ms cannot be below sink.retry.initial_delay_ms")
)

// Config represents the complete grader configuration.
type Config struct {
	Columns ColumnsConfig `yaml:"columns" split_words:"true"`
	Grading GradingConfig `yaml:"grading" split_words:"true"`
	Input   InputConfig   `yaml:"input" split_words:"true"`
	Output  OutputConfig  `yaml:"output" split_words:"true"`
	Sink    SinkConfig    `yaml:"sink" split_words:"true"`
	Server  ServerConfig  `yaml:"server" split_words:"true"`
	Logging LoggingConfig `yaml:"logging" split_words:"true"`
}

// ColumnsConfig maps the grading fields to external column names.
type ColumnsConfig struct {
	Stipend            string `yaml:"stipend" split_words:"true" validate:"required"`
	InternshipDuration string `yaml:"internship_duration" split_words:"true" validate:"required"`
	CourseStart        string `yaml:"course_start" split_words:"true" validate:"required"`
	CourseEnd          string `yaml:"course_end" split_words:"true" validate:"required"`
	CourseTitle        string `yaml:"course_title" split_words:"true" validate:"required"`
	Grade              string `yaml:"grade" split_words:"true" validate:"required"`
	TotalMarks         string `yaml:"total_marks" split_words:"true" validate:"required"`
	Remark             string `yaml:"remark" split_words:"true" validate:"required"`
}

// GradingConfig controls how pass two of grading is scheduled.
type GradingConfig struct {
	Workers   int `yaml:"workers" split_words:"true" validate:"min=1"`
	ChunkSize int `yaml:"chunk_size" split_words:"true" validate:"min=1"`
}

// InputConfig defines how input tables are read.
type InputConfig struct {
	Sheet     string `yaml:"sheet" split_words:"true"`
	Delimiter string `yaml:"delimiter" split_words:"true" validate:"omitempty,len=1"`
}

// OutputConfig defines output behavior.
type OutputConfig struct {
	Format        string `yaml:"format" split_words:"true" validate:"omitempty,oneof=csv tsv xlsx"`
	BOM           bool   `yaml:"bom" split_words:"true"`
	Compress      bool   `yaml:"compress" split_words:"true"`
	WriteManifest bool   `yaml:"write_manifest" split_words:"true"`
	PreviewRows   int    `yaml:"preview_rows" split_words:"true" validate:"min=0"`
}

// SinkConfig selects where graded files are exported.
type SinkConfig struct {
	Kind   string      `yaml:"kind" split_words:"true" validate:"oneof=none file sftp minio"`
	Dir    string      `yaml:"dir" split_words:"true"`
	Prefix string      `yaml:"prefix" split_words:"true"`
	SFTP   SFTPConfig  `yaml:"sftp" split_words:"true"`
	Minio  MinioConfig `yaml:"minio" split_words:"true"`
	Retry  RetryPolicy `yaml:"retry" split_words:"true"`
}

// SFTPConfig holds SFTP connection settings.
type SFTPConfig struct {
	Host                  string `yaml:"host" split_words:"true"`
	Port                  int    `yaml:"port" split_words:"true" validate:"min=0,max=65535"`
	User                  string `yaml:"user" split_words:"true"`
	Password              string `yaml:"password" split_words:"true"`
	RemoteDir             string `yaml:"remote_dir" split_words:"true"`
	KnownHostsFile        string `yaml:"known_hosts_file" split_words:"true"`
	InsecureIgnoreHostKey bool   `yaml:"insecure_ignore_host_key" split_words:"true"`
}

// MinioConfig holds S3-compatible object storage settings.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" split_words:"true"`
	AccessKey string `yaml:"access_key" split_words:"true"`
	SecretKey string `yaml:"secret_key" split_words:"true"`
	Bucket    string `yaml:"bucket" split_words:"true"`
	UseSSL    bool   `yaml:"use_ssl" split_words:"true"`
}

// RetryPolicy defines retry behavior for exports.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts" split_words:"true" validate:"min=1"`
	InitialDelayMs    int     `yaml:"initial_delay_ms" split_words:"true" validate:"min=0"`
	MaxDelayMs        int     `yaml:"max_delay_ms" split_words:"true" validate:"min=0"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier" split_words:"true"`
	TimeoutSec        int     `yaml:"timeout_sec" split_words:"true" validate:"min=1"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string          `yaml:"addr" split_words:"true" validate:"required"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" split_words:"true"`
	MaxUploadMB     int             `yaml:"max_upload_mb" split_words:"true" validate:"min=1"`
	PreviewRows     int             `yaml:"preview_rows" split_words:"true" validate:"min=1"`
	AllowedOrigins  []string        `yaml:"allowed_origins" split_words:"true"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig configures the token bucket in front of the grading endpoints.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" split_words:"true"`
	RequestsPerSecond float64 `yaml:"requests_per_second" split_words:"true" validate:"gte=0"`
	Burst             int     `yaml:"burst" split_words:"true" validate:"min=0"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" split_words:"true" validate:"oneof=text json"`
}

var validate = validator.New()

// Default returns the built-in configuration. Column names match the
// submission sheet the tool was written for.
func Default() Config {
	return Config{
		Columns: ColumnsConfig{
			Stipend:            "Total stipend amount in Rs.",
			InternshipDuration: "Duration of Internship",
			CourseStart:        "Start date of course",
			CourseEnd:          "End date of course",
			CourseTitle:        "Title of Course",
			Grade:              "Grade",
			TotalMarks:         "Total Marks",
			Remark:             "Remarks",
		},
		Grading: GradingConfig{
			Workers:   1,
			ChunkSize: 1000,
		},
		Output: OutputConfig{
			PreviewRows: 5,
		},
		Sink: SinkConfig{
			Kind: "none",
			SFTP: SFTPConfig{Port: 22, RemoteDir: "/"},
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    500,
				MaxDelayMs:        5000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadMB:     10,
			PreviewRows:     5,
			AllowedOrigins:  []string{"http://localhost:3000"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 5,
				Burst:             10,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file layered over Default,
// then applies GRADER_* environment overrides. An empty path skips the file.
func LoadConfig(filepath string) (*Config, error) {
	cfg := Default()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, describe(err))
	}

	// Output columns are appended next to the input columns, so every name
	// must be unique once whitespace and case are ignored.
	helper := utils.NewStringHelper()
	seen := make(map[string]string)

	for _, name := range append(c.RequiredColumns(), c.OutputColumns()...) {
		key := strings.ToLower(helper.NormalizeWhitespace(name))
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateColumn, prev, name)
		}

		seen[key] = name
	}

	switch c.Sink.Kind {
	case "file":
		if c.Sink.Dir == "" {
			return ErrMissingSinkDir
		}
	case "sftp":
		if c.Sink.SFTP.Host == "" || c.Sink.SFTP.User == "" {
			return ErrIncompleteSFTP
		}
	case "minio":
		if c.Sink.Minio.Endpoint == "" || c.Sink.Minio.Bucket == "" {
			return ErrIncompleteMinio
		}
	}

	if c.Sink.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Sink.Retry.MaxDelayMs < c.Sink.Retry.InitialDelayMs {
		return ErrMaxDelayBelowInitial
	}

	return nil
}

// RequiredColumns returns the input columns that must exist in every table.
func (c *Config) RequiredColumns() []string {
	return []string{
		c.Columns.Stipend,
		c.Columns.InternshipDuration,
		c.Columns.CourseStart,
		c.Columns.CourseEnd,
		c.Columns.CourseTitle,
	}
}

// OutputColumns returns the columns appended by the grader.
func (c *Config) OutputColumns() []string {
	return []string{c.Columns.Grade, c.Columns.TotalMarks, c.Columns.Remark}
}

// MaxUploadBytes returns the upload cap in bytes.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Stipend: %q, Workers: %d, Sink: %s, Addr: %s}",
		c.Columns.Stipend,
		c.Grading.Workers,
		c.Sink.Kind,
		c.Server.Addr,
	)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}

		msgs = append(msgs, msg)
	}

	return strings.Join(msgs, "; ")
}
