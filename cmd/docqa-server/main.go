package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/extract"
	"docqa/internal/httpapi"
	"docqa/internal/llm"
	"docqa/internal/logger"
	"docqa/internal/service"
	"docqa/internal/session"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)
	lg := logger.ForComponent("main")

	// Assemble components via interfaces
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		o := cfg.Embedder.OpenAI
		if o == nil {
			o = &config.OpenAIEmbedderConfig{}
		}
		emb, err = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKeyEnv: o.APIKeyEnv,
			BaseURL:   o.BaseURL,
			Model:     o.Model,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
	case "local":
		dim := 0
		if cfg.Embedder.Local != nil {
			dim = cfg.Embedder.Local.Dimension
		}
		emb = embedding.NewLocalEmbedder(dim)
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	store, err := vectorstore.NewStore(cfg.Store.Dir, emb)
	if err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}

	converter := extract.NewConverterClient(extract.ConverterConfig{
		URL:     cfg.Converter.URL,
		Timeout: time.Duration(cfg.Converter.TimeoutSecs) * time.Second,
	})
	var ocr domain.OCREngine
	if cfg.Converter.URL != "" {
		ocr = converter
	}
	extractor := extract.NewService(ocr)
	extractor.Register(".txt", extract.Plaintext{})
	if cfg.Converter.URL != "" {
		extractor.Register(".pdf", converter)
		extractor.Register(".docx", converter)
		extractor.Register(".xlsx", converter)
	}

	generator, err := llm.NewOpenAIGenerator(llm.Config{
		APIKeyEnv:   cfg.LLM.APIKeyEnv,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("llm init failed: %v", err)
	}

	ch := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap, cfg.Chunker.RowsPerChunk)
	docs := service.NewDocumentService(store, extractor, ch, cfg.Uploads.Dir, cfg.Uploads.MaxFileSizeMB)
	chat := service.NewChatService(store, generator, summarizer.NewFrequency(), session.NewManager(cfg.Session.MaxEntries), cfg.Search.TopK)

	srv := httpapi.NewServer(cfg.Server.Host, cfg.Server.Port, docs, chat)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()
	lg.Info("server started", "host", cfg.Server.Host, "port", cfg.Server.Port)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server failed: %v", err)
		}
	case sig := <-stop:
		lg.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			lg.Error("shutdown failed", "error", err)
		}
	}
}
