package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/staircase-viewer/internal/app"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config captures runtime configuration for the application.
type Config struct {
	App     app.Config
	Logging Logging
	Source  Source
	Flags   map[string]string
	Args    []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

// Source records where layered defaults came from.
type Source struct {
	EnvFile    string
	ConfigFile string
}

const (
	envPrefix  = "STAIRCASE_VIEWER_"
	envEnvFile = envPrefix + "ENV_FILE"
	envConfig  = envPrefix + "CONFIG"

	defaultEnvFile = ".env"
)

const (
	DefaultWidth          = 640
	DefaultHeight         = 480
	DefaultFrameRate      = 60
	DefaultBootstrapDelay = time.Second
	DefaultWatchInterval  = 1500 * time.Millisecond
)

var knownKeys = []string{
	"headless", "file", "watch", "watch-interval", "width", "height",
	"frame-rate", "bootstrap-delay", "snapshot", "duration",
	"metrics-addr", "trace", "log-file",
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Values are
// layered lowest first: built-in defaults, the YAML config file, the .env
// file, the process environment, then flags.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	envFile := envOrDefault(env, envEnvFile, defaultEnvFile)
	dotenv, err := readDotenv(envFile)
	if err != nil {
		return Config{}, err
	}
	for k, v := range dotenv {
		if _, ok := env[k]; !ok {
			env[k] = v
		}
	}

	configPath := scanConfigFlag(args)
	if configPath == "" {
		configPath = env[envConfig]
	}
	values := map[string]string{}
	if configPath != "" {
		fileValues, err := readConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}
		values = fileValues
	}
	for _, key := range knownKeys {
		if v, ok := env[envName(key)]; ok {
			values[key] = v
		}
	}

	fs := flag.NewFlagSet("staircase-viewer", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	fs.String("config", configPath, "path to a YAML config file")
	headless := fs.Bool("headless", valueOrBool(values, "headless", false), "render offscreen without a terminal UI")
	file := fs.String("file", valueOrDefault(values, "file", ""), "STEP document to load (a positional argument also works)")
	watch := fs.Bool("watch", valueOrBool(values, "watch", false), "reload the document when the file changes")
	watchInterval := fs.Duration("watch-interval", valueOrDuration(values, "watch-interval", DefaultWatchInterval), "file polling interval")
	width := fs.Int("width", valueOrInt(values, "width", DefaultWidth), "surface width in pixels")
	height := fs.Int("height", valueOrInt(values, "height", DefaultHeight), "surface height in pixels")
	frameRate := fs.Float64("frame-rate", valueOrFloat(values, "frame-rate", DefaultFrameRate), "frames per second for the message pump")
	bootstrapDelay := fs.Duration("bootstrap-delay", valueOrDuration(values, "bootstrap-delay", DefaultBootstrapDelay), "delay before loading the demo when no file is given")
	snapshot := fs.String("snapshot", valueOrDefault(values, "snapshot", ""), "headless: write the final frame to this PNG")
	duration := fs.Duration("duration", valueOrDuration(values, "duration", 0), "headless: run time (0 waits for the load to settle)")
	metricsAddr := fs.String("metrics-addr", valueOrDefault(values, "metrics-addr", ""), "serve Prometheus metrics on this address")
	trace := fs.Bool("trace", valueOrBool(values, "trace", false), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", valueOrDefault(values, "log-file", ""), "path to the log file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	switch fs.NArg() {
	case 0:
	case 1:
		if *file != "" && *file != fs.Arg(0) {
			return Config{}, fmt.Errorf("both -file %q and argument %q given", *file, fs.Arg(0))
		}
		*file = fs.Arg(0)
	default:
		return Config{}, fmt.Errorf("expected at most one document, got %d", fs.NArg())
	}

	frameInterval := time.Duration(0)
	if *frameRate > 0 {
		frameInterval = time.Duration(float64(time.Second) / *frameRate)
	}

	cfg := Config{
		App: app.Config{
			Headless:       *headless,
			FilePath:       *file,
			Watch:          *watch,
			WatchInterval:  *watchInterval,
			Width:          *width,
			Height:         *height,
			FrameRate:      *frameRate,
			FrameInterval:  frameInterval,
			BootstrapDelay: *bootstrapDelay,
			SnapshotPath:   *snapshot,
			Duration:       *duration,
			MetricsAddr:    *metricsAddr,
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Source: Source{
			ConfigFile: configPath,
		},
		Flags: map[string]string{
			"headless":       strconv.FormatBool(*headless),
			"file":           *file,
			"watch":          strconv.FormatBool(*watch),
			"watchInterval":  watchInterval.String(),
			"width":          strconv.Itoa(*width),
			"height":         strconv.Itoa(*height),
			"frameRate":      strconv.FormatFloat(*frameRate, 'g', -1, 64),
			"bootstrapDelay": bootstrapDelay.String(),
			"snapshot":       *snapshot,
			"duration":       duration.String(),
			"metricsAddr":    *metricsAddr,
			"trace":          strconv.FormatBool(*trace),
			"logFile":        *logFile,
		},
		Args: append([]string(nil), args...),
	}
	if dotenv != nil {
		cfg.Source.EnvFile = envFile
	}

	return cfg, nil
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// scanConfigFlag finds -config ahead of the real parse, since the file it
// names supplies the other flags' defaults.
func scanConfigFlag(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return ""
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if name == "config" {
			if i+1 < len(args) {
				return args[i+1]
			}
			return ""
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
	}
	return ""
}

func readDotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return values, nil
}

func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	known := make(map[string]bool, len(knownKeys))
	for _, k := range knownKeys {
		known[k] = true
	}
	values := make(map[string]string, len(raw))
	var unknown []string
	for k, v := range raw {
		if !known[k] {
			unknown = append(unknown, k)
			continue
		}
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(unknown, ", "))
	}
	return values, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func valueOrDefault(values map[string]string, key, fallback string) string {
	if v, ok := values[key]; ok {
		return v
	}
	return fallback
}

func valueOrInt(values map[string]string, key string, fallback int) int {
	v, ok := values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func valueOrFloat(values map[string]string, key string, fallback float64) float64 {
	v, ok := values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func valueOrBool(values map[string]string, key string, fallback bool) bool {
	v, ok := values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func valueOrDuration(values map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := values[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate rejects option combinations the viewer cannot run with.
func Validate(cfg Config) error {
	a := cfg.App
	switch {
	case a.Width <= 0:
		return fmt.Errorf("width must be > 0 (got %d)", a.Width)
	case a.Height <= 0:
		return fmt.Errorf("height must be > 0 (got %d)", a.Height)
	case a.FrameRate <= 0:
		return fmt.Errorf("frame-rate must be > 0 (got %g)", a.FrameRate)
	case a.BootstrapDelay < 0:
		return fmt.Errorf("bootstrap-delay must be >= 0 (got %s)", a.BootstrapDelay)
	case a.Duration < 0:
		return fmt.Errorf("duration must be >= 0 (got %s)", a.Duration)
	case a.SnapshotPath != "" && !a.Headless:
		return errors.New("-snapshot requires -headless")
	case a.Watch && a.FilePath == "":
		return errors.New("-watch requires a document path")
	case a.Watch && a.WatchInterval <= 0:
		return fmt.Errorf("watch-interval must be > 0 (got %s)", a.WatchInterval)
	}
	return nil
}
