// Package config loads runtime settings: built-in defaults, overridden
// by an optional TOML file, overridden by command-line flags.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

var systemPrompts = map[string]string{
	"en": "You are Parley, a friendly and helpful AI assistant talking to children.\n" +
		"Keep your answers simple, clear, and short — 2-3 sentences for simple " +
		"questions, a bit more for complex ones.\n" +
		"Use words that kids aged 7-11 can understand.\n" +
		"For homework questions, help them understand the concept rather than " +
		"just giving the answer.\n" +
		"Be encouraging, patient, and kind.\n" +
		"If you don't know something, say so honestly.\n" +
		"Never use complicated jargon.\n" +
		"IMPORTANT: Never use emojis, emoticons, or smileys in your responses. " +
		"Your responses will be read aloud by a text-to-speech system.",
	"fr": "Tu es Parley, un assistant IA amical et utile qui parle avec des enfants.\n" +
		"Garde tes réponses simples, claires et courtes — 2-3 phrases pour les " +
		"questions simples, un peu plus pour les questions complexes.\n" +
		"Utilise des mots que des enfants de 7 à 11 ans peuvent comprendre.\n" +
		"Pour les questions de devoirs, aide-les à comprendre le concept plutôt " +
		"que de simplement donner la réponse.\n" +
		"Sois encourageant, patient et gentil.\n" +
		"Si tu ne sais pas quelque chose, dis-le honnêtement.\n" +
		"Réponds toujours en français.\n" +
		"IMPORTANT : N'utilise jamais d'emojis, d'émoticônes ou de smileys dans " +
		"tes réponses. Tes réponses seront lues à voix haute par un système de " +
		"synthèse vocale.",
}

// Default voices for the macOS `say` backend, per language.
var macOSVoices = map[string]string{
	"en": "Samantha",
	"fr": "Thomas",
}

var languageLabels = map[string]string{
	"en": "English",
	"fr": "French",
}

type Config struct {
	Language     string `toml:"language"`
	WhisperModel string `toml:"whisper_model"`
	ModelDir     string `toml:"model_dir"`
	LLMModel     string `toml:"llm_model"`
	LLMHost      string `toml:"llm_host"`
	TTSBackend   string `toml:"tts_backend"`
	TTSVoice     string `toml:"tts_voice"`
	TTSRate      int    `toml:"tts_rate"`
	SampleRate   int    `toml:"sample_rate"`
	MaxHistory   int    `toml:"max_history"`
}

// fileConfig is the shape of the TOML file: a single [parley] table.
type fileConfig struct {
	Parley Config `toml:"parley"`
}

func Default() Config {
	return Config{
		Language:     "en",
		WhisperModel: "small",
		ModelDir:     "models",
		LLMModel:     "qwen3:8b",
		LLMHost:      "http://localhost:11434/v1",
		TTSBackend:   "say",
		TTSVoice:     "", // resolved from language when empty
		TTSRate:      155,
		SampleRate:   16000,
		MaxHistory:   20,
	}
}

// Load reads a TOML file over the defaults. A missing file is not an
// error; fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	fc := fileConfig{Parley: cfg}
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc.Parley, nil
}

func (c Config) Validate() error {
	if _, ok := systemPrompts[c.Language]; !ok {
		return fmt.Errorf("unsupported language %q (supported: en, fr)", c.Language)
	}
	if c.TTSBackend != "say" && c.TTSBackend != "piper" {
		return fmt.Errorf("unknown tts backend %q (supported: say, piper)", c.TTSBackend)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.MaxHistory < 1 {
		return fmt.Errorf("max_history must be at least 1, got %d", c.MaxHistory)
	}
	return nil
}

// SystemPrompt returns the assistant instruction for the configured
// language, falling back to English.
func (c Config) SystemPrompt() string {
	if p, ok := systemPrompts[c.Language]; ok {
		return p
	}
	return systemPrompts["en"]
}

// ResolvedVoice is the explicit voice override, or the language default.
func (c Config) ResolvedVoice() string {
	if c.TTSVoice != "" {
		return c.TTSVoice
	}
	if v, ok := macOSVoices[c.Language]; ok {
		return v
	}
	return macOSVoices["en"]
}

// LanguageLabel is the human-readable name shown in the banner.
func (c Config) LanguageLabel() string {
	if l, ok := languageLabels[c.Language]; ok {
		return l
	}
	return c.Language
}
