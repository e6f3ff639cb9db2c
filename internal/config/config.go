// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported language model providers.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Supported telemetry exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	defaultHTTPAddr            = ":8080"
	defaultLLMModel            = "llama-3.3-70b-versatile"
	defaultGeminiModel         = "gemini-2.5-flash"
	defaultGroqBaseURL         = "https://api.groq.com/openai/v1"
	defaultOpenAIBaseURL       = "https://api.openai.com/v1"
	defaultLLMMaxTokens        = 2048
	defaultLLMTimeout          = 60 * time.Second
	defaultExchangeRateBaseURL = "https://api.exchangerate-api.com/v4"
	defaultExchangeRateTimeout = 5 * time.Second
	defaultExchangeRateTTL     = 12 * time.Hour
	defaultOCRLanguage         = "eng"
	defaultOCRPDFDPI           = 200
	defaultExtractConcurrency  = 4
	defaultExtractMinText      = 20
	defaultUploadMaxBytes      = 10 << 20
	defaultServiceName         = "expense-approval"
)

// Config holds all configuration for the application.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	JWTSecret   string
	LogLevel    string
	LogFormat   string

	LLMProvider  string
	LLMAPIKey    string
	LLMBaseURL   string
	LLMModel     string
	LLMMaxTokens int
	LLMTimeout   time.Duration

	ExchangeRateBaseURL  string
	ExchangeRateTimeout  time.Duration
	ExchangeRateCacheTTL time.Duration

	OCRLanguage           string
	OCRScannedPDF         bool
	OCRPDFDPI             float64
	ExtractMaxConcurrency int
	ExtractMinTextLength  int
	UploadMaxBytes        int

	OTelExporter     string
	OTelOTLPProtocol string
	OTelServiceName  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:    envOr("HTTP_ADDR", defaultHTTPAddr),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   envOr("LOG_FORMAT", "console"),

		LLMProvider:  strings.ToLower(envOr("LLM_PROVIDER", ProviderGroq)),
		LLMMaxTokens: intOr("LLM_MAX_TOKENS", defaultLLMMaxTokens),
		LLMTimeout:   durationOr("LLM_TIMEOUT", defaultLLMTimeout),

		ExchangeRateBaseURL:  envOr("EXCHANGE_RATE_BASE_URL", defaultExchangeRateBaseURL),
		ExchangeRateTimeout:  durationOr("EXCHANGE_RATE_TIMEOUT", defaultExchangeRateTimeout),
		ExchangeRateCacheTTL: durationOr("EXCHANGE_RATE_CACHE_TTL", defaultExchangeRateTTL),

		OCRLanguage:           envOr("OCR_LANGUAGE", defaultOCRLanguage),
		OCRScannedPDF:         os.Getenv("OCR_SCANNED_PDF") == "true",
		OCRPDFDPI:             float64(intOr("OCR_PDF_DPI", defaultOCRPDFDPI)),
		ExtractMaxConcurrency: intOr("EXTRACT_MAX_CONCURRENCY", defaultExtractConcurrency),
		ExtractMinTextLength:  intOr("EXTRACT_MIN_TEXT_LENGTH", defaultExtractMinText),
		UploadMaxBytes:        intOr("UPLOAD_MAX_BYTES", defaultUploadMaxBytes),

		OTelExporter:     strings.ToLower(envOr("OTEL_EXPORTER", ExporterNone)),
		OTelOTLPProtocol: envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
		OTelServiceName:  envOr("OTEL_SERVICE_NAME", defaultServiceName),
	}

	cfg.applyProviderDefaults()

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyProviderDefaults() {
	c.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	c.LLMModel = os.Getenv("LLM_MODEL")
	c.LLMAPIKey = os.Getenv("LLM_API_KEY")

	switch c.LLMProvider {
	case ProviderGroq:
		if c.LLMAPIKey == "" {
			c.LLMAPIKey = os.Getenv("GROQ_API_KEY")
		}
		if c.LLMBaseURL == "" {
			c.LLMBaseURL = defaultGroqBaseURL
		}
		if c.LLMModel == "" {
			c.LLMModel = defaultLLMModel
		}
	case ProviderOpenAI:
		if c.LLMAPIKey == "" {
			c.LLMAPIKey = os.Getenv("OPENAI_API_KEY")
		}
		if c.LLMBaseURL == "" {
			c.LLMBaseURL = defaultOpenAIBaseURL
		}
		if c.LLMModel == "" {
			c.LLMModel = defaultLLMModel
		}
	case ProviderGemini:
		if c.LLMAPIKey == "" {
			c.LLMAPIKey = os.Getenv("GEMINI_API_KEY")
		}
		if c.LLMModel == "" {
			c.LLMModel = defaultGeminiModel
		}
	}
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}

	switch c.LLMProvider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Sprintf("LLM_PROVIDER %q is not supported (groq, openai, gemini)", c.LLMProvider))
	}

	switch c.OTelExporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not supported (none, stdout, otlp)", c.OTelExporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ReceiptIngestionEnabled reports whether a language model key is configured.
func (c *Config) ReceiptIngestionEnabled() bool {
	return c.LLMAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
