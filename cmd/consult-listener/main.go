package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consult-listener/internal/agents"
	"consult-listener/internal/config"
	"consult-listener/internal/consultation"
	"consult-listener/internal/export"
	"consult-listener/internal/listener"
	"consult-listener/internal/llm"
	"consult-listener/internal/server"
	"consult-listener/internal/speech"
)

func main() {
	log.Println("consult-listener: starting")

	cfgPath := os.Getenv(config.EnvPrefix + "CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, warnings, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, warning := range warnings {
		log.Printf("warning: %s", warning)
	}

	provider, model, err := llm.ParseModel(cfg.ChatModel)
	if err != nil {
		log.Fatalf("invalid chat_model: %v", err)
	}
	chat, err := llm.NewClient(provider, cfg.KeyFor(provider), model)
	if err != nil {
		log.Fatalf("llm client init failed: %v", err)
	}

	openaiSpeech := speech.NewOpenAISpeech(cfg.OpenAIAPIKey, cfg.STTModel, cfg.TTSModel, cfg.TTSVoice)
	var transcriber listener.Transcriber = openaiSpeech
	if cfg.STTProvider == "deepgram" {
		transcriber = speech.NewDeepgramSTT(cfg.DeepgramAPIKey, cfg.STTModel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var drive *export.DriveUploader
	if cfg.GDriveFolderID != "" {
		drive, err = export.NewDriveUploader(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if err != nil {
			log.Printf("warning: drive upload disabled: %v", err)
			drive = nil
		}
	}

	registry := consultation.NewRegistry()
	hub := server.NewHub()

	pipeline := listener.New(
		registry,
		transcriber,
		openaiSpeech,
		agents.NewExtractor(chat),
		agents.NewSummarizer(chat),
		agents.NewQA(chat),
		hub,
		export.NewNotes(cfg.NotesDir, drive),
	)

	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.Handler(hub, pipeline)}
	go func() {
		log.Printf("consult-listener: listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("consult-listener: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: http shutdown failed: %v", err)
	}
}
