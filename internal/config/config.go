package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// WorkspaceSize is the workspace extent in meters (x, y, z).
	// Used to seed a new database; the stored workspace wins afterwards.
	WorkspaceSize [3]float64 `json:"workspace_size_m,omitempty"`

	// DefaultResolution is used when a request names no resolution (e.g. "4cm").
	DefaultResolution string `json:"default_resolution,omitempty"`

	// MaxHistorySize bounds the selection undo stack. Oldest entries are evicted first.
	MaxHistorySize int `json:"max_history_size,omitempty"`

	// FloodFillMaxVoxels is the hard ceiling on flood fill results.
	FloodFillMaxVoxels int `json:"flood_fill_max_voxels,omitempty"`

	// FloodFillConnectivity is the default adjacency: face6, edge18 or vertex26.
	FloodFillConnectivity string `json:"flood_fill_connectivity,omitempty"`

	// StrictContainment selects only voxels fully inside a shape.
	// By default any intersecting voxel is selected.
	StrictContainment bool `json:"strict_containment,omitempty"`

	// UseFalloff enables distance weights on sphere selections.
	UseFalloff bool `json:"use_falloff,omitempty"`

	// FalloffStart is the normalized distance below which sphere weights stay at 1.
	// A pointer so an explicit 0 (decay from the center) differs from unset.
	FalloffStart *float64 `json:"falloff_start,omitempty"`

	// AssumeAllVoxelsExist skips existence checks entirely.
	// Intended for testing shapes without populated storage.
	AssumeAllVoxelsExist bool `json:"assume_all_voxels_exist,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// All tools are enabled by default. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "selection", "set", "voxel". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		WorkspaceSize:         [3]float64{5, 5, 5},
		DefaultResolution:     "4cm",
		MaxHistorySize:        100,
		FloodFillMaxVoxels:    1000000,
		FloodFillConnectivity: "face6",
		FalloffStart:          float64Ptr(0.8),
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.voxsel.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.voxsel) and repo (.voxsel) directories.
// Repo config is found by walking upward from startDir to find the nearest .voxsel/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	// Walk upward from startDir to find repo config
	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .voxsel/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".voxsel", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// File doesn't exist, return zero config
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.WorkspaceSize = overlay.WorkspaceSize
	if result.WorkspaceSize == ([3]float64{}) {
		result.WorkspaceSize = base.WorkspaceSize
	}

	result.DefaultResolution = firstNonEmpty(overlay.DefaultResolution, base.DefaultResolution)
	result.FloodFillConnectivity = firstNonEmpty(overlay.FloodFillConnectivity, base.FloodFillConnectivity)

	result.MaxHistorySize = overlay.MaxHistorySize
	if result.MaxHistorySize == 0 {
		result.MaxHistorySize = base.MaxHistorySize
	}

	result.FloodFillMaxVoxels = overlay.FloodFillMaxVoxels
	if result.FloodFillMaxVoxels == 0 {
		result.FloodFillMaxVoxels = base.FloodFillMaxVoxels
	}

	// Pointers: overlay wins if set, else base
	result.FalloffStart = overlay.FalloffStart
	if result.FalloffStart == nil {
		result.FalloffStart = base.FalloffStart
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.StrictContainment = base.StrictContainment || overlay.StrictContainment
	result.UseFalloff = base.UseFalloff || overlay.UseFalloff
	result.AssumeAllVoxelsExist = base.AssumeAllVoxelsExist || overlay.AssumeAllVoxelsExist

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return strings.TrimSpace(b)
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// Validate rejects values that cannot be applied at startup.
func (c *Config) Validate() error {
	for i, v := range c.WorkspaceSize {
		if v <= 0 {
			return fmt.Errorf("workspace_size_m[%d] must be positive, got %g", i, v)
		}
	}
	if c.MaxHistorySize < 0 {
		return fmt.Errorf("max_history_size must not be negative, got %d", c.MaxHistorySize)
	}
	if c.FloodFillMaxVoxels < 0 {
		return fmt.Errorf("flood_fill_max_voxels must not be negative, got %d", c.FloodFillMaxVoxels)
	}
	if f := c.FalloffStart; f != nil && (*f < 0 || *f > 1) {
		return fmt.Errorf("falloff_start must be within [0, 1], got %g", *f)
	}
	return nil
}

func float64Ptr(v float64) *float64 {
	return &v
}
