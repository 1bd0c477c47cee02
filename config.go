package tgenmm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// environment variables that override a Config
const (
	EnvModelPath = "TGENMM_MODEL"
	EnvSessions  = "TGENMM_SESSIONS"
	EnvLogLevel  = "TGENMM_LOG_LEVEL"
)

// Config describes one run of traffic sessions over a model
type Config struct {
	// name of the experiment, used in traces
	Name string `json:"name" yaml:"name" validate:"required"`

	// path of the model file (GraphML, or a yaml/json GraphDesc)
	ModelPath string `json:"modelpath" yaml:"modelpath" validate:"required"`

	// number of concurrent sessions, each with its own cursor and random stream
	Sessions int `json:"sessions" yaml:"sessions" validate:"min=1,max=100000"`

	// largest number of observations per session, zero for no limit
	StepLimit int `json:"steplimit" yaml:"steplimit" validate:"min=0"`

	// virtual time, in seconds, after which the run stops
	RunLimit float64 `json:"runlimit" yaml:"runlimit" validate:"gt=0"`

	// ceiling on delays, in microseconds, zero for the default
	MaxDelay uint64 `json:"maxdelay" yaml:"maxdelay"`

	// prefix of the names of the sessions' random streams
	StreamName string `json:"streamname" yaml:"streamname" validate:"required"`

	// output files, written when named
	TraceFile   string `json:"tracefile" yaml:"tracefile" validate:"omitempty,endswith=.yaml|endswith=.yml|endswith=.json"`
	MetricsFile string `json:"metricsfile" yaml:"metricsfile"`

	LogLevel string `json:"loglevel" yaml:"loglevel" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config with everything but the model path filled in
func DefaultConfig() *Config {
	return &Config{
		Name:       "tgenmm",
		Sessions:   1,
		RunLimit:   3600.0,
		MaxDelay:   DefaultMaxDelay,
		StreamName: "tgenmm",
		LogLevel:   "info",
	}
}

// ReadConfig deserializes a byte slice holding a representation of a Config.
// If the input argument of dict (those bytes) is empty, the file whose name is given is read
// to acquire them.  Fields the representation leaves out keep their defaults.
func ReadConfig(filename string, useYAML bool, dict []byte) (*Config, error) {
	var err error

	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if useYAML {
		err = yaml.Unmarshal(dict, cfg)
	} else {
		err = json.Unmarshal(dict, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteToFile stores the Config to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (cfg *Config) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch {
	case isYAMLExt(pathExt):
		bytes, merr = yaml.Marshal(*cfg)
	case isJSONExt(pathExt):
		bytes, merr = json.MarshalIndent(*cfg, "", "\t")
	default:
		return fmt.Errorf("config file '%s' needs a .yaml, .yml or .json extension", filename)
	}
	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// ApplyEnv loads the named .env files that exist, then overrides the Config from
// the TGENMM_* environment variables
func (cfg *Config) ApplyEnv(envFiles ...string) error {
	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if modelPath := os.Getenv(EnvModelPath); len(modelPath) > 0 {
		cfg.ModelPath = modelPath
	}
	if sessions := os.Getenv(EnvSessions); len(sessions) > 0 {
		n, err := strconv.Atoi(sessions)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvSessions, sessions)
		}
		cfg.Sessions = n
	}
	if level := os.Getenv(EnvLogLevel); len(level) > 0 {
		cfg.LogLevel = strings.ToLower(level)
	}
	return nil
}

// Validate checks the Config against its field constraints
func (cfg *Config) Validate() error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError rewrites validator errors as one readable error
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if len(fe.Param()) > 0 {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s=%s' (value %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s'", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
