// Package config holds engine settings: defaults, YAML file and PARALLAX_* environment overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/parallax/memory"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PARALLAX_"

var ErrInvalid = errors.New("invalid configuration")

// Config is the complete engine configuration
type Config struct {
	Frame    FrameConfig    `yaml:"frame"`
	Memory   MemoryConfig   `yaml:"memory"`
	Graphics GraphicsConfig `yaml:"graphics"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Optics   OpticsConfig   `yaml:"optics"`
	Log      LogConfig      `yaml:"log"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// FrameConfig controls the frame loop and its budgets
type FrameConfig struct {
	Rate          int  `yaml:"rate"`           // Frames per second
	MaxElapsedMS  int  `yaml:"max_elapsed_ms"` // Clamp on a single frame step
	WriteBudget   int  `yaml:"write_budget"`   // Display memory bytes per frame, 0 unlimited
	TilesPerFrame int  `yaml:"tiles_per_frame"`
	RowsPerFrame  int  `yaml:"rows_per_frame"`
	DrawBudget    int  `yaml:"draw_budget"` // Direct draw pixels per frame
	Debug         bool `yaml:"debug"`       // Draw collider wireframes
}

// Interval is the frame period
func (f FrameConfig) Interval() time.Duration {
	return time.Second / time.Duration(max(f.Rate, 1))
}

// MemoryConfig sizes the block pool and every arena carved from it
type MemoryConfig struct {
	Pool       []memory.BlockClass `yaml:"pool"`
	Entities   int                 `yaml:"entities"`
	Bodies     int                 `yaml:"bodies"`
	Colliders  int                 `yaml:"colliders"`
	CharSets   int                 `yaml:"charsets"`
	Textures   int                 `yaml:"textures"`
	Sprites    int                 `yaml:"sprites"`
	Animations int                 `yaml:"animations"`
}

// GraphicsConfig partitions display memory
type GraphicsConfig struct {
	ReservedChars   int `yaml:"reserved_chars"`
	TextureSegments int `yaml:"texture_segments"`
	Layers          int `yaml:"layers"`
	Containers      int `yaml:"containers"`
	ObjectsPer      int `yaml:"objects_per_container"`
}

// PhysicsConfig values are in pixels and seconds
type PhysicsConfig struct {
	Gravity        float64 `yaml:"gravity"`
	TimeScale      float64 `yaml:"time_scale"`
	SleepThreshold float64 `yaml:"sleep_threshold"`
	SleepSteps     int     `yaml:"sleep_steps"`
}

// OpticsConfig values are in pixels
type OpticsConfig struct {
	DistanceEyeScreen   int `yaml:"distance_eye_screen"`
	BaseDistance        int `yaml:"base_distance"`
	MaximumViewDistance int `yaml:"maximum_view_distance"`
}

type LogConfig struct {
	Prefix            string  `yaml:"prefix"`
	ThrottlePerSecond float64 `yaml:"throttle_per_second"`
	ThrottleBurst     int     `yaml:"throttle_burst"`
}

type MonitorConfig struct {
	Addr string `yaml:"addr"` // Empty disables the debug endpoint
}

// Default returns a configuration that runs the engine at 50 frames per second
func Default() Config {
	return Config{
		Frame: FrameConfig{
			Rate:          50,
			MaxElapsedMS:  100,
			WriteBudget:   16384,
			TilesPerFrame: 64,
			RowsPerFrame:  32,
			DrawBudget:    4096,
		},
		Memory: MemoryConfig{
			Pool: []memory.BlockClass{
				{Size: 64, Count: 256},
				{Size: 512, Count: 512},
				{Size: 2048, Count: 320},
			},
			Entities:   128,
			Bodies:     128,
			Colliders:  256,
			CharSets:   64,
			Textures:   64,
			Sprites:    128,
			Animations: 64,
		},
		Graphics: GraphicsConfig{
			ReservedChars:   1,
			TextureSegments: 12,
			Layers:          32,
			Containers:      4,
			ObjectsPer:      256,
		},
		Physics: PhysicsConfig{
			Gravity:        240,
			TimeScale:      1,
			SleepThreshold: 0.25,
			SleepSteps:     25,
		},
		Optics: OpticsConfig{
			DistanceEyeScreen:   384,
			BaseDistance:        32,
			MaximumViewDistance: 4096,
		},
		Log: LogConfig{
			Prefix:            "[parallax] ",
			ThrottlePerSecond: 1,
			ThrottleBurst:     5,
		},
	}
}

// Load reads a YAML file over the defaults; a missing path returns the defaults
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from PARALLAX_* variables; unparsable values are ignored
func (c *Config) ApplyEnv() {
	c.Frame.Rate = envInt("FRAME_RATE", c.Frame.Rate)
	c.Frame.WriteBudget = envInt("WRITE_BUDGET", c.Frame.WriteBudget)
	c.Frame.TilesPerFrame = envInt("TILES_PER_FRAME", c.Frame.TilesPerFrame)
	c.Frame.RowsPerFrame = envInt("ROWS_PER_FRAME", c.Frame.RowsPerFrame)
	c.Frame.DrawBudget = envInt("DRAW_BUDGET", c.Frame.DrawBudget)
	c.Frame.Debug = envBool("DEBUG", c.Frame.Debug)
	c.Physics.Gravity = envFloat("GRAVITY", c.Physics.Gravity)
	c.Physics.TimeScale = envFloat("TIME_SCALE", c.Physics.TimeScale)
	c.Monitor.Addr = envString("MONITOR_ADDR", c.Monitor.Addr)
	c.Log.Prefix = envString("LOG_PREFIX", c.Log.Prefix)
}

// Validate rejects settings the engine cannot start with
func (c *Config) Validate() error {
	switch {
	case c.Frame.Rate <= 0:
		return fmt.Errorf("%w: frame rate %d", ErrInvalid, c.Frame.Rate)
	case len(c.Memory.Pool) == 0:
		return fmt.Errorf("%w: no pool block classes", ErrInvalid)
	case c.Graphics.Layers <= 0:
		return fmt.Errorf("%w: %d world layers", ErrInvalid, c.Graphics.Layers)
	case c.Optics.DistanceEyeScreen <= 0:
		return fmt.Errorf("%w: eye to screen distance %d", ErrInvalid, c.Optics.DistanceEyeScreen)
	}
	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
