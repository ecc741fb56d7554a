// Package config is the layered configuration manager: user settings merged
// with project settings (project wins), the way the teacher's
// internal/config.Manager merges ~/.wingthing/settings.json with
// .wingthing/settings.json. Every option enumerated in spec.md §6 bullet 3
// lives here.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable named in spec.md §6 bullet 3, plus the
// persistence connection settings from §6 bullet 1.
type Config struct {
	// Persistence
	DSN      string `yaml:"dsn,omitempty"`
	TenantID string `yaml:"tenant_id,omitempty"`
	UserID   string `yaml:"user_id,omitempty"`

	// Model extractor (spec.md §4.5, §6)
	EmbeddingSimilarityThreshold float32 `yaml:"embedding_similarity_threshold,omitempty"`
	MaxNeighborsPerToken         int     `yaml:"max_neighbors_per_token,omitempty"`
	BlockSize                    int     `yaml:"block_size,omitempty"`

	// Walk engine
	WModel       float64 `yaml:"w_model,omitempty"`
	WText        float64 `yaml:"w_text,omitempty"`
	WRel         float64 `yaml:"w_rel,omitempty"`
	WRepeat      float64 `yaml:"w_repeat,omitempty"`
	WNovelty     float64 `yaml:"w_novelty,omitempty"`
	WEnergy      float64 `yaml:"w_energy,omitempty"`
	BaseTemp     float64 `yaml:"base_temp,omitempty"`
	MinTemp      float64 `yaml:"min_temp,omitempty"`
	EnergyAlpha  float64 `yaml:"energy_alpha,omitempty"`
	EnergyDecay  float64 `yaml:"energy_decay,omitempty"`
	RecentWindow int     `yaml:"recent_window,omitempty"`
	TopK         int     `yaml:"top_k,omitempty"`
	StartEnergy  float64 `yaml:"start_energy,omitempty"`

	// A* / multi-goal search
	HeuristicWeight float64 `yaml:"heuristic_weight,omitempty"`
	MinElo          float64 `yaml:"min_elo,omitempty"`
	MinObservations uint64  `yaml:"min_observations,omitempty"`
	MaxExpansions   int     `yaml:"max_expansions,omitempty"`
	BeamWidth       int     `yaml:"beam_width,omitempty"`

	// Reasoning orchestrator
	MinPathQuality       float64 `yaml:"min_path_quality,omitempty"`
	MaxReflexionRounds   int     `yaml:"max_reflexion_rounds,omitempty"`
	MaxResponseWords     int     `yaml:"max_response_words,omitempty"`
	WalkMaxSteps         int     `yaml:"walk_max_steps,omitempty"`
	SystemPrompt         string  `yaml:"system_prompt,omitempty"`
	IncludeReasoningTrace bool   `yaml:"include_reasoning_trace,omitempty"`

	// Ambient
	LogLevel string `yaml:"log_level,omitempty"`
	LogFile  string `yaml:"log_file,omitempty"`
}

// Defaults returns the default Config per the numeric defaults spec.md
// names explicitly (embedding_similarity_threshold 0.50,
// max_neighbors_per_token 20, top-K 32, etc.) and reasonable values for
// the rest.
func Defaults() *Config {
	return &Config{
		DSN:                          "file:substrate.db",
		EmbeddingSimilarityThreshold: 0.50,
		MaxNeighborsPerToken:         20,
		BlockSize:                    1024,

		WModel:       0.35,
		WText:        0.25,
		WRel:         0.15,
		WRepeat:      0.10,
		WNovelty:     0.10,
		WEnergy:      0.05,
		BaseTemp:     1.0,
		MinTemp:      0.2,
		EnergyAlpha:  0.5,
		EnergyDecay:  0.05,
		RecentWindow: 8,
		TopK:         32,
		StartEnergy:  1.0,

		HeuristicWeight: 1.0,
		MinElo:          800,
		MinObservations: 1,
		MaxExpansions:   10000,
		BeamWidth:       4,

		MinPathQuality:       0.55,
		MaxReflexionRounds:   3,
		MaxResponseWords:     120,
		WalkMaxSteps:         64,
		IncludeReasoningTrace: false,

		LogLevel: "info",
	}
}

// Manager layers a user config (~/.substrate/settings.yaml) under a project
// config (.substrate/settings.yaml), project wins. Mirrors the teacher's
// config.Manager user/project merge, generalized from JSON to YAML and from
// a fixed struct-field merge to a single layered Config.
type Manager struct {
	merged *Config
}

// NewManager returns a Manager seeded with Defaults.
func NewManager() *Manager {
	return &Manager{merged: Defaults()}
}

// Get returns the current merged configuration.
func (m *Manager) Get() *Config {
	return m.merged
}

// Load reads user then project settings.yaml (missing files are not an
// error) and merges them onto the defaults, project overriding user.
func (m *Manager) Load(userConfigDir, projectDir string) error {
	cfg := Defaults()

	if err := mergeFile(cfg, filepath.Join(userConfigDir, "settings.yaml")); err != nil {
		return err
	}
	if err := mergeFile(cfg, filepath.Join(projectDir, ".substrate", "settings.yaml")); err != nil {
		return err
	}
	applyEnvOverrides(cfg)

	m.merged = cfg
	return nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides reads the persistence connection string and
// credentials from the environment, per spec.md §6 bullet 3's "Environment
// variables used: persistence connection string and credentials."
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SUBSTRATE_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("SUBSTRATE_TENANT_ID"); v != "" {
		cfg.TenantID = v
	}
	if v := os.Getenv("SUBSTRATE_USER_ID"); v != "" {
		cfg.UserID = v
	}
}
