package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

type Config struct {
	Database Database
	CRM      CRM
	OpenAI   OpenAI
	Gemini   Gemini
	Render   Render
	Storage  Storage
	AI       AI
	Presets  Presets
}

type Database struct {
	URL          string // PostgreSQL connection URL for drafts and brands
	MaxOpenConns int    // default 25
	MaxIdleConns int    // default 5
}

type CRM struct {
	DSN string // MySQL DSN for the external listing database (read-only)
}

type OpenAI struct {
	Token string
}

type Gemini struct {
	APIKey string
}

type AI struct {
	Timeout     time.Duration // per external composition call
	RatePerMin  int           // request budget against the AI service
	Concurrency int           // parallel photo transforms per draft
}

type Render struct {
	ChromiumPath string        // headless chromium binary, default "chromium"
	Timeout      time.Duration // hard cap on a single render call
}

type Storage struct {
	Path string // root directory for photos and finished artifacts
}

// Presets is the embedded tuning file: per-classification print enhancement
// values and the transaction-type phrase tables used by the offline composer.
type Presets struct {
	Enhancement map[string]EnhancementPreset `yaml:"enhancement"`
	Phrases     PhraseTables                 `yaml:"phrases"`
}

// EnhancementPreset is a fixed print-enhancement tuple for one classification.
type EnhancementPreset struct {
	Brightness float64 `yaml:"brightness"`
	Saturation float64 `yaml:"saturation"`
	Contrast   float64 `yaml:"contrast"`
	Sharpen    bool    `yaml:"sharpen"`
}

// PhraseTables drive the deterministic offline composition path.
type PhraseTables struct {
	Overview map[string]string `yaml:"overview"` // transaction type -> opening phrase
	Tagline  map[string]string `yaml:"tagline"`  // transaction type -> tagline lead
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envDuration reads an environment variable as a Go duration string.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var presets Presets
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		// Embedded file, so this can only happen on a bad edit.
		panic("failed to unmarshal embedded presets.yaml: " + err.Error())
	}

	return &Config{
		Database: Database{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		CRM: CRM{
			DSN: os.Getenv("CRM_DATABASE_DSN"),
		},
		OpenAI: OpenAI{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: Gemini{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		AI: AI{
			Timeout:     envDuration("AI_TIMEOUT", 45*time.Second),
			RatePerMin:  envInt("AI_RATE_PER_MIN", 30),
			Concurrency: envInt("TRANSFORM_CONCURRENCY", 4),
		},
		Render: Render{
			ChromiumPath: envString("CHROMIUM_PATH", "chromium"),
			Timeout:      envDuration("RENDER_TIMEOUT", 2*time.Minute),
		},
		Storage: Storage{
			Path: envString("STORAGE_PATH", "./storage"),
		},
		Presets: presets,
	}
}

// EnhancementFor returns the preset for a classification, falling back to
// the default preset for unknown classifications.
func (p *Presets) EnhancementFor(classification string) EnhancementPreset {
	if preset, ok := p.Enhancement[classification]; ok {
		return preset
	}
	if preset, ok := p.Enhancement["default"]; ok {
		return preset
	}
	return EnhancementPreset{Brightness: 1.0, Saturation: 1.0, Contrast: 1.0}
}
