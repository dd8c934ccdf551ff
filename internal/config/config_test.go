package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxHistorySize != DefaultConfig().MaxHistorySize {
		t.Fatalf("MaxHistorySize = %d, want %d", cfg.MaxHistorySize, DefaultConfig().MaxHistorySize)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"max_history_size": 500}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxHistorySize != 500 {
		t.Fatalf("MaxHistorySize = %d, want %d", cfg.MaxHistorySize, 500)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"disabled_tools": ["selection_flood_fill", "set_delete"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "selection_flood_fill" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "selection_flood_fill")
	}
	if cfg.DisabledTools[1] != "set_delete" {
		t.Errorf("DisabledTools[1] = %q, want %q", cfg.DisabledTools[1], "set_delete")
	}
}

func TestLoad_DisabledToolsEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 0 {
		t.Fatalf("DisabledTools = %v, want nil or empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	// Global config
	globalConfig := `{"max_history_size": 80, "disabled_tools": ["selection_flood_fill"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	// Repo config at repoRoot/.voxsel/config.json
	cfgDir := filepath.Join(repoRoot, ".voxsel")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"max_history_size": 50, "disabled_tools": ["set_delete"]}`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// Repo overrides scalar
	if cfg.MaxHistorySize != 50 {
		t.Errorf("MaxHistorySize = %d, want 50 (repo override)", cfg.MaxHistorySize)
	}

	// Arrays merged
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_OnlyGlobal(t *testing.T) {
	globalDir := t.TempDir()
	repoDir := t.TempDir() // No config file

	globalConfig := `{"max_history_size": 80, "disabled_tools": ["selection_flood_fill"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.MaxHistorySize != 80 {
		t.Errorf("MaxHistorySize = %d, want 80", cfg.MaxHistorySize)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "selection_flood_fill" {
		t.Errorf("DisabledTools = %v, want [selection_flood_fill]", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_OnlyRepo(t *testing.T) {
	globalDir := t.TempDir() // No config file
	repoRoot := t.TempDir()

	// Repo config at repoRoot/.voxsel/config.json
	cfgDir := filepath.Join(repoRoot, ".voxsel")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"disabled_tools": ["set_delete", "voxel_remove"]}`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// Default value preserved
	if cfg.MaxHistorySize != 100 {
		t.Errorf("MaxHistorySize = %d, want 100 (default)", cfg.MaxHistorySize)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoDir := t.TempDir()

	cfg, err := LoadWithRepo(globalDir, repoDir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	// All defaults
	if cfg.MaxHistorySize != 100 {
		t.Errorf("MaxHistorySize = %d, want 100", cfg.MaxHistorySize)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{MaxHistorySize: 100, DBMaxOpenConns: 5, DefaultResolution: "8cm"}
	overlay := &Config{MaxHistorySize: 50, DefaultResolution: " "} // DBMaxOpenConns is 0 (zero value)

	result := Merge(base, overlay)

	if result.MaxHistorySize != 50 {
		t.Errorf("MaxHistorySize = %d, want 50 (overlay)", result.MaxHistorySize)
	}
	if result.DefaultResolution != "8cm" {
		t.Errorf("DefaultResolution = %q, want 8cm (base, overlay is blank)", result.DefaultResolution)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_FalloffStartExplicitZero(t *testing.T) {
	result := Merge(DefaultConfig(), &Config{FalloffStart: float64Ptr(0)})
	if result.FalloffStart == nil || *result.FalloffStart != 0 {
		t.Errorf("FalloffStart = %v, want 0 (overlay)", result.FalloffStart)
	}

	result = Merge(DefaultConfig(), &Config{})
	if result.FalloffStart == nil || *result.FalloffStart != 0.8 {
		t.Errorf("FalloffStart = %v, want 0.8 (base, overlay unset)", result.FalloffStart)
	}
}

func TestMerge_BooleanOr(t *testing.T) {
	base := &Config{UseFalloff: true}
	overlay := &Config{UseFalloff: false, AssumeAllVoxelsExist: true}

	result := Merge(base, overlay)

	if !result.UseFalloff {
		t.Error("UseFalloff should be true (base OR overlay)")
	}
	if !result.AssumeAllVoxelsExist {
		t.Error("AssumeAllVoxelsExist should be true (base OR overlay)")
	}
	if result.StrictContainment {
		t.Error("StrictContainment should stay false")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"selection_flood_fill", "set_delete"}}
	overlay := &Config{DisabledTools: []string{"set_delete", "voxel_remove"}}

	result := Merge(base, overlay)

	if len(result.DisabledTools) != 3 {
		t.Errorf("DisabledTools length = %d, want 3 (merged, deduped)", len(result.DisabledTools))
	}

	// Check all three are present
	has := make(map[string]bool)
	for _, s := range result.DisabledTools {
		has[s] = true
	}
	for _, want := range []string{"selection_flood_fill", "set_delete", "voxel_remove"} {
		if !has[want] {
			t.Errorf("DisabledTools missing %q", want)
		}
	}
}

func TestFindRepoConfig_InCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfgDir := filepath.Join(tmpDir, ".voxsel")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	configPath := filepath.Join(cfgDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	found := FindRepoConfig(tmpDir)
	if found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	// Create: tmpDir/.voxsel/config.json
	//         tmpDir/subdir/deeper/
	tmpDir := t.TempDir()
	cfgDir := filepath.Join(tmpDir, ".voxsel")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	configPath := filepath.Join(cfgDir, "config.json")
	if err := os.WriteFile(configPath, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	// Start from subdir, should find config in parent
	found := FindRepoConfig(subdir)
	if found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	// No .voxsel directory

	found := FindRepoConfig(tmpDir)
	if found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	// Create: tmpDir/.voxsel/config.json with disabled_tools
	//         tmpDir/subdir/
	tmpDir := t.TempDir()
	globalDir := t.TempDir() // Separate global dir

	cfgDir := filepath.Join(tmpDir, ".voxsel")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	repoConfig := `{"disabled_tools": ["selection_flood_fill"]}`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(repoConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	subdir := filepath.Join(tmpDir, "subdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	// Load from subdir, should find repo config in parent
	cfg, err := LoadWithRepo(globalDir, subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "selection_flood_fill" {
		t.Errorf("DisabledTools = %v, want [selection_flood_fill]", cfg.DisabledTools)
	}
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.WorkspaceSize != [3]float64{5, 5, 5} {
		t.Errorf("WorkspaceSize = %v, want [5 5 5]", cfg.WorkspaceSize)
	}
	if cfg.DefaultResolution != "4cm" {
		t.Errorf("DefaultResolution = %q, want 4cm", cfg.DefaultResolution)
	}
	if cfg.FloodFillMaxVoxels != 1000000 {
		t.Errorf("FloodFillMaxVoxels = %d, want 1000000", cfg.FloodFillMaxVoxels)
	}
	if cfg.FloodFillConnectivity != "face6" {
		t.Errorf("FloodFillConnectivity = %q, want face6", cfg.FloodFillConnectivity)
	}
	if cfg.FalloffStart == nil || *cfg.FalloffStart != 0.8 {
		t.Errorf("FalloffStart = %v, want 0.8", cfg.FalloffStart)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_WorkspaceSize(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"workspace_size_m": [2, 3, 4], "use_falloff": true}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WorkspaceSize != [3]float64{2, 3, 4} {
		t.Errorf("WorkspaceSize = %v, want [2 3 4]", cfg.WorkspaceSize)
	}
	if !cfg.UseFalloff {
		t.Error("UseFalloff should be true")
	}
	if cfg.FalloffStart == nil || *cfg.FalloffStart != 0.8 {
		t.Errorf("FalloffStart = %v, want default 0.8", cfg.FalloffStart)
	}
}

func TestLoad_FalloffStartZero(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	if err := os.WriteFile(configPath, []byte(`{"use_falloff": true, "falloff_start": 0}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.FalloffStart == nil || *cfg.FalloffStart != 0 {
		t.Errorf("FalloffStart = %v, want explicit 0", cfg.FalloffStart)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero workspace axis", func(c *Config) { c.WorkspaceSize[1] = 0 }, true},
		{"negative history", func(c *Config) { c.MaxHistorySize = -1 }, true},
		{"negative flood fill cap", func(c *Config) { c.FloodFillMaxVoxels = -5 }, true},
		{"falloff above one", func(c *Config) { c.FalloffStart = float64Ptr(1.5) }, true},
		{"falloff below zero", func(c *Config) { c.FalloffStart = float64Ptr(-0.1) }, true},
		{"falloff at one", func(c *Config) { c.FalloffStart = float64Ptr(1) }, false},
		{"falloff at zero", func(c *Config) { c.FalloffStart = float64Ptr(0) }, false},
		{"falloff unset", func(c *Config) { c.FalloffStart = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
