package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"parley/internal/assistant"
	"parley/internal/audio"
	"parley/internal/chat"
	"parley/internal/config"
	"parley/internal/llm"
	"parley/internal/playback"
	"parley/internal/speech"
	"parley/internal/stt"
	"parley/internal/term"
	"parley/internal/tts"
	"parley/pkg/audioconv"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	language := cli.StringP("language", "l", "", "conversation language (en, fr)")
	model := cli.StringP("model", "m", "", "LLM model name")
	whisperModel := cli.String("whisper-model", "", "whisper model size: tiny, base, small, medium")
	modelDir := cli.String("model-dir", "", "directory holding ggml whisper models")
	ttsBackend := cli.String("tts", "", "TTS backend (say, piper)")
	ttsVoice := cli.String("voice", "", "TTS voice name (say) or voice model path (piper)")
	host := cli.String("host", "", "OpenAI-compatible completion endpoint")
	configPath := cli.StringP("config", "c", "config.toml", "path to config.toml")
	envFile := cli.StringP("env", "e", ".env", "env file path")
	audioFile := cli.String("file", "", "transcribe this audio file for one turn instead of recording")
	dumpDir := cli.String("dump", "", "write each capture as a WAV file into this directory")
	logLevel := cli.String("log", "info", "log level (debug, info, warn, error)")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Debug("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	// Flags override the file, the file overrides defaults.
	if cli.CommandLine.Changed("language") {
		cfg.Language = *language
	}
	if cli.CommandLine.Changed("model") {
		cfg.LLMModel = *model
	}
	if cli.CommandLine.Changed("whisper-model") {
		cfg.WhisperModel = *whisperModel
	}
	if cli.CommandLine.Changed("model-dir") {
		cfg.ModelDir = *modelDir
	}
	if cli.CommandLine.Changed("tts") {
		cfg.TTSBackend = *ttsBackend
	}
	if cli.CommandLine.Changed("voice") {
		cfg.TTSVoice = *ttsVoice
	}
	if cli.CommandLine.Changed("host") {
		cfg.LLMHost = *host
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	fmt.Print("Loading whisper model... ")
	transcriber, err := stt.New(stt.ModelPath(cfg.ModelDir, cfg.WhisperModel), stt.Options{
		Language: cfg.Language,
	})
	if err != nil {
		fmt.Println("failed")
		log.Error("Failed to load whisper model", "err", err)
		os.Exit(1)
	}
	defer transcriber.Close()
	fmt.Println("ok")

	history := chat.NewHistory(cfg.SystemPrompt(), cfg.MaxHistory)
	chatClient := chat.NewClient(llm.New(cfg.LLMHost, os.Getenv("PARLEY_API_KEY"), cfg.LLMModel), history)

	// The speaker session backs both the listening cue and piper
	// playback, so it comes up before any backend can speak.
	var cue func()
	if err := playback.Init(); err != nil {
		log.Warn("Speaker unavailable, listening cue disabled", "err", err)
	} else {
		cue = func() {
			if err := playback.Tone(880, 120*time.Millisecond); err != nil {
				log.Debug("Cue failed", "err", err)
			}
		}
	}

	voice := cfg.ResolvedVoice()
	if cfg.TTSBackend == "piper" {
		// For piper the voice setting is the model path, no default.
		voice = cfg.TTSVoice
	}
	speaker, err := tts.New(cfg.TTSBackend, voice, cfg.TTSRate)
	if err != nil {
		log.Error("Failed to init speech output", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *audioFile != "" {
		if err := runFileTurn(ctx, cfg, *audioFile, transcriber, chatClient, speaker); err != nil {
			log.Error("File turn failed", "err", err)
			os.Exit(1)
		}
		return
	}

	rec := audio.NewRecorder(cfg.SampleRate)
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	printBanner(cfg)

	loop := assistant.New(assistant.Config{
		SampleRate: cfg.SampleRate,
		Out:        os.Stdout,
		Cue:        cue,
		OnCapture:  captureDumper(*dumpDir, cfg.SampleRate),
	}, term.NewKeyboard(), rec, transcriber, chatClient, speaker)

	// An interrupt surfaces as a cancelled context; still a clean exit.
	_ = loop.Run(ctx)
}

// runFileTurn runs a single turn from an audio file, for use without a
// microphone.
func runFileTurn(ctx context.Context, cfg config.Config, path string, transcriber *stt.Transcriber, chatClient *chat.Client, speaker tts.Speaker) error {
	pcm, err := audioconv.DecodeFile(path, cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	d := audio.Diagnose(pcm, cfg.SampleRate)
	log.Debug("Decoded audio", "duration", d.Duration, "peak", d.Peak)

	text, err := transcriber.Transcribe(ctx, pcm)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		fmt.Println("  (silence detected)")
		return nil
	}
	fmt.Printf("  You: %s\n", text)

	reply, err := chatClient.Chat(ctx, text)
	if err != nil {
		return err
	}
	fmt.Printf("  Parley: %s\n", reply)

	if err := speaker.Speak(speech.Normalize(reply)); err != nil {
		log.Warn("Speech output failed", "err", err)
	}
	return nil
}

// captureDumper writes each accepted capture to dir as a timestamped
// WAV, or returns nil when dumping is off.
func captureDumper(dir string, sampleRate int) func([]float32) {
	if dir == "" {
		return nil
	}
	return func(pcm []float32) {
		name := fmt.Sprintf("capture-%s.wav", time.Now().Format("20060102-150405"))
		path := filepath.Join(dir, name)
		if err := audioconv.EncodeWAV(path, pcm, sampleRate); err != nil {
			log.Warn("Failed to dump capture", "path", path, "err", err)
			return
		}
		log.Debug("Dumped capture", "path", path, "samples", len(pcm))
	}
}

func printBanner(cfg config.Config) {
	line := strings.Repeat("=", 50)
	title := color.New(color.FgCyan, color.Bold)

	fmt.Println(line)
	title.Println("  Parley - Voice AI Assistant")
	fmt.Printf("  Language : %s\n", cfg.LanguageLabel())
	fmt.Printf("  LLM      : %s @ %s\n", cfg.LLMModel, cfg.LLMHost)
	fmt.Printf("  Whisper  : %s\n", cfg.WhisperModel)
	fmt.Printf("  TTS      : %s (%s)\n", cfg.TTSBackend, cfg.ResolvedVoice())
	fmt.Println(line)
	fmt.Println()
}
