// Package main is the entry point for the expense approval service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/expense-approval/internal/api"
	"gitlab.com/yelinaung/expense-approval/internal/approval"
	"gitlab.com/yelinaung/expense-approval/internal/config"
	"gitlab.com/yelinaung/expense-approval/internal/database"
	"gitlab.com/yelinaung/expense-approval/internal/exchange"
	"gitlab.com/yelinaung/expense-approval/internal/expense"
	"gitlab.com/yelinaung/expense-approval/internal/extract"
	"gitlab.com/yelinaung/expense-approval/internal/gemini"
	"gitlab.com/yelinaung/expense-approval/internal/llm"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/ocr"
	"gitlab.com/yelinaung/expense-approval/internal/receipt"
	"gitlab.com/yelinaung/expense-approval/internal/repository"
	"gitlab.com/yelinaung/expense-approval/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("expense-approval %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create metrics")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	expenseRepo := repository.NewExpenseRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	companyRepo := repository.NewCompanyRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	rates := exchange.NewCachedService(
		exchange.NewClient(cfg.ExchangeRateBaseURL, cfg.ExchangeRateTimeout),
		cfg.ExchangeRateCacheTTL,
	)

	machine := approval.NewMachine(expenseRepo, userRepo, metrics)
	expenses := expense.NewService(expense.Deps{
		Expenses:   expenseRepo,
		Users:      userRepo,
		Categories: categoryRepo,
		Companies:  companyRepo,
		Converter:  exchange.NewConverter(rates, metrics),
		Workflow:   machine,
	})

	opts := api.Options{
		Expenses:       expenses,
		Health:         pool,
		JWTSecret:      cfg.JWTSecret,
		UploadMaxBytes: cfg.UploadMaxBytes,
	}

	if cfg.ReceiptIngestionEnabled() {
		completer, err := newCompleter(ctx, cfg)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create language model client")
		}
		extractor := extract.New(extract.Options{
			Recognizer:     ocr.NewTesseract(cfg.OCRLanguage),
			OpenPDF:        ocr.OpenPDF,
			ScannedPDF:     cfg.OCRScannedPDF,
			DPI:            cfg.OCRPDFDPI,
			MinTextLength:  cfg.ExtractMinTextLength,
			MaxConcurrency: cfg.ExtractMaxConcurrency,
			Metrics:        metrics,
		})
		opts.Receipts = receipt.NewService(receipt.Deps{
			Extractor:  extractor,
			Normalizer: receipt.NewNormalizer(completer),
			Categories: categoryRepo,
			Companies:  companyRepo,
			Expenses:   expenseRepo,
			Provider:   cfg.LLMProvider,
		})
		logger.Log.Info().
			Str("provider", cfg.LLMProvider).
			Str("model", cfg.LLMModel).
			Bool("scanned_pdf_ocr", cfg.OCRScannedPDF).
			Msg("Receipt ingestion enabled")
	} else {
		logger.Log.Warn().Msg("No language model key configured; receipt upload is disabled")
	}

	app := api.New(opts)

	go func() {
		<-ctx.Done()
		logger.Log.Info().Msg("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to shut down HTTP server")
		}
	}()

	logger.Log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
	if err := app.Listen(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Error().Err(err).Msg("HTTP server stopped")
	}
}

func newCompleter(ctx context.Context, cfg *config.Config) (llm.Completer, error) {
	if cfg.LLMProvider == config.ProviderGemini {
		client, err := gemini.NewClient(ctx, cfg.LLMAPIKey, gemini.Options{
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
			Timeout:   cfg.LLMTimeout,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	return llm.NewChatClient(llm.Options{
		BaseURL:   cfg.LLMBaseURL,
		APIKey:    cfg.LLMAPIKey,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}), nil
}
