package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the namespace prefix for all consult-listener environment
// variables.
const EnvPrefix = "CONSULT_LISTENER_"

// Config holds all application configuration. Secrets (API keys) are loaded
// exclusively from environment variables and never appear in the config file.
type Config struct {
	Addr                  string `yaml:"addr"`
	ChatModel             string `yaml:"chat_model"`
	STTProvider           string `yaml:"stt_provider"`
	STTModel              string `yaml:"stt_model"`
	TTSModel              string `yaml:"tts_model"`
	TTSVoice              string `yaml:"tts_voice"`
	NotesDir              string `yaml:"notes_dir"`
	GDriveFolderID        string `yaml:"gdrive_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`

	// Secrets — env vars only, never serialized to YAML.
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`
	GeminiAPIKey    string `yaml:"-"`
	DeepgramAPIKey  string `yaml:"-"`
}

func defaults() Config {
	return Config{
		Addr:                  ":8080",
		ChatModel:             "openai/gpt-4o",
		STTProvider:           "openai",
		TTSModel:              "tts-1",
		TTSVoice:              "alloy",
		NotesDir:              "data/notes",
		GoogleCredentialsFile: "./service-account.json",
	}
}

// Load reads configuration from a YAML file (if it exists), applies
// environment variable overrides, loads secrets, and validates the result.
// It returns the config, any validation warnings, and an error if the file
// exists but cannot be read or parsed.
func Load(path string) (Config, []string, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, nil, fmt.Errorf("read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	loadSecrets(&cfg)

	warnings := validate(&cfg)
	return cfg, warnings, nil
}

// KeyFor returns the configured API key for an LLM provider name.
func (c *Config) KeyFor(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(EnvPrefix + "CHAT_MODEL"); v != "" {
		cfg.ChatModel = v
	}
	if v := os.Getenv(EnvPrefix + "STT_PROVIDER"); v != "" {
		cfg.STTProvider = v
	}
	if v := os.Getenv(EnvPrefix + "STT_MODEL"); v != "" {
		cfg.STTModel = v
	}
	if v := os.Getenv(EnvPrefix + "TTS_MODEL"); v != "" {
		cfg.TTSModel = v
	}
	if v := os.Getenv(EnvPrefix + "TTS_VOICE"); v != "" {
		cfg.TTSVoice = v
	}
	if v := os.Getenv(EnvPrefix + "NOTES_DIR"); v != "" {
		cfg.NotesDir = v
	}
	if v := os.Getenv(EnvPrefix + "GDRIVE_FOLDER_ID"); v != "" {
		cfg.GDriveFolderID = v
	}
	if v := os.Getenv(EnvPrefix + "GOOGLE_CREDENTIALS_FILE"); v != "" {
		cfg.GoogleCredentialsFile = v
	}
}

func loadSecrets(cfg *Config) {
	cfg.OpenAIAPIKey = os.Getenv(EnvPrefix + "OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv(EnvPrefix + "ANTHROPIC_API_KEY")
	cfg.GeminiAPIKey = os.Getenv(EnvPrefix + "GEMINI_API_KEY")
	cfg.DeepgramAPIKey = os.Getenv(EnvPrefix + "DEEPGRAM_API_KEY")
}

func validate(cfg *Config) []string {
	var warnings []string

	switch cfg.STTProvider {
	case "openai", "deepgram":
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown stt_provider %q — using openai.", cfg.STTProvider))
		cfg.STTProvider = "openai"
	}

	if cfg.OpenAIAPIKey == "" {
		warnings = append(warnings, "OpenAI API key not configured — speech and agents need it. Set "+EnvPrefix+"OPENAI_API_KEY.")
	}
	if cfg.STTProvider == "deepgram" && cfg.DeepgramAPIKey == "" {
		warnings = append(warnings, "Deepgram API key not configured — transcription will fail. Set "+EnvPrefix+"DEEPGRAM_API_KEY.")
	}

	return warnings
}
