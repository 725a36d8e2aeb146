// Package config loads meshsdftool settings from MESHSDF_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/voxelsplace/meshsdf/meshsdf"
)

const (
	// DefaultResolution is the voxel count along the X axis of the volume.
	DefaultResolution = 64
	// DefaultPadding grows the mesh bounds by this fraction of the largest side.
	DefaultPadding = 0.1
	// DefaultIsoCells is the marching cubes resolution used by sdf2glb.
	DefaultIsoCells = 64
	// DefaultLogLevel controls CLI verbosity.
	DefaultLogLevel = "info"
)

// Config captures every tunable of the command line tool.
type Config struct {
	Resolution   int
	Padding      float32
	FloodMode    meshsdf.FloodMode
	Quality      meshsdf.Quality
	Iterations   int
	DistanceMode meshsdf.DistanceMode
	Offset       float32
	Gradient     bool
	Half         bool
	Compression  meshsdf.Compression
	Workers      int
	IsoCells     int
	LogLevel     slog.Level
}

// Load reads the configuration from the environment, applying defaults and
// returning one error listing every invalid override.
func Load() (*Config, error) {
	cfg := &Config{
		Resolution:   DefaultResolution,
		Padding:      DefaultPadding,
		FloodMode:    meshsdf.FloodLinear,
		Quality:      meshsdf.QualityNormal,
		DistanceMode: meshsdf.DistanceSigned,
		Compression:  meshsdf.CompressionAuto,
		IsoCells:     DefaultIsoCells,
		LogLevel:     slog.LevelInfo,
	}

	var problems []string

	if raw := env("MESHSDF_RESOLUTION"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 || value > meshsdf.DefaultLimits.MaxAxis {
			problems = append(problems, fmt.Sprintf("MESHSDF_RESOLUTION must be an integer in [1, %d], got %q", meshsdf.DefaultLimits.MaxAxis, raw))
		} else {
			cfg.Resolution = value
		}
	}

	if raw := env("MESHSDF_PADDING"); raw != "" {
		value, err := strconv.ParseFloat(raw, 32)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("MESHSDF_PADDING must be a non-negative number, got %q", raw))
		} else {
			cfg.Padding = float32(value)
		}
	}

	if raw := env("MESHSDF_FLOOD_MODE"); raw != "" {
		value, err := meshsdf.ParseFloodMode(raw)
		if err != nil {
			problems = append(problems, "MESHSDF_FLOOD_MODE: "+err.Error())
		} else {
			cfg.FloodMode = value
		}
	}

	if raw := env("MESHSDF_QUALITY"); raw != "" {
		value, err := meshsdf.ParseQuality(raw)
		if err != nil {
			problems = append(problems, "MESHSDF_QUALITY: "+err.Error())
		} else {
			cfg.Quality = value
		}
	}

	if raw := env("MESHSDF_ITERATIONS"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 || value > meshsdf.MaxIterations {
			problems = append(problems, fmt.Sprintf("MESHSDF_ITERATIONS must be an integer in [0, %d], got %q", meshsdf.MaxIterations, raw))
		} else {
			cfg.Iterations = value
		}
	}

	if raw := env("MESHSDF_DISTANCE_MODE"); raw != "" {
		value, err := meshsdf.ParseDistanceMode(raw)
		if err != nil {
			problems = append(problems, "MESHSDF_DISTANCE_MODE: "+err.Error())
		} else {
			cfg.DistanceMode = value
		}
	}

	if raw := env("MESHSDF_OFFSET"); raw != "" {
		value, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			problems = append(problems, fmt.Sprintf("MESHSDF_OFFSET must be a number, got %q", raw))
		} else {
			cfg.Offset = float32(value)
		}
	}

	if raw := env("MESHSDF_GRADIENT"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("MESHSDF_GRADIENT must be a boolean value, got %q", raw))
		} else {
			cfg.Gradient = value
		}
	}

	if raw := env("MESHSDF_HALF"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("MESHSDF_HALF must be a boolean value, got %q", raw))
		} else {
			cfg.Half = value
		}
	}

	if raw := env("MESHSDF_COMPRESSION"); raw != "" {
		value, err := meshsdf.ParseCompression(raw)
		if err != nil {
			problems = append(problems, "MESHSDF_COMPRESSION: "+err.Error())
		} else {
			cfg.Compression = value
		}
	}

	if raw := env("MESHSDF_WORKERS"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("MESHSDF_WORKERS must be a non-negative integer, got %q", raw))
		} else {
			cfg.Workers = value
		}
	}

	if raw := env("MESHSDF_ISO_CELLS"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			problems = append(problems, fmt.Sprintf("MESHSDF_ISO_CELLS must be a positive integer, got %q", raw))
		} else {
			cfg.IsoCells = value
		}
	}

	if raw := getString("MESHSDF_LOG_LEVEL", DefaultLogLevel); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			problems = append(problems, fmt.Sprintf("MESHSDF_LOG_LEVEL must be debug, info, warn or error, got %q", raw))
		} else {
			cfg.LogLevel = level
		}
	}

	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, "; "))
	}
	return cfg, nil
}

// Options converts the configuration to generator options. Runs driven by
// the CLI are explicit.
func (c *Config) Options() []meshsdf.Option {
	return []meshsdf.Option{
		meshsdf.WithFloodMode(c.FloodMode),
		meshsdf.WithQuality(c.Quality),
		meshsdf.WithIterations(c.Iterations),
		meshsdf.WithDistanceMode(c.DistanceMode),
		meshsdf.WithOffset(c.Offset),
		meshsdf.WithGradient(c.Gradient),
		meshsdf.WithWorkers(c.Workers),
		meshsdf.WithUpdateMode(meshsdf.UpdateExplicit),
	}
}

// EncodeOptions returns the container settings.
func (c *Config) EncodeOptions() meshsdf.EncodeOptions {
	return meshsdf.EncodeOptions{Half: c.Half, Compression: c.Compression}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getString(key, fallback string) string {
	if value := env(key); value != "" {
		return value
	}
	return fallback
}
