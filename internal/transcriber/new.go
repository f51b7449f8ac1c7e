package transcriber

import (
	"fmt"
	"net/http"
	"time"

	"github.com/nguyentantai21042004/broll-flow/internal/config"
	"github.com/nguyentantai21042004/broll-flow/internal/logger"
	"github.com/nguyentantai21042004/broll-flow/pkg/executor"
)

type implTranscriber struct {
	cfg      config.TranscriptionConfig
	tempDir  string
	executor executor.Executor
	logger   logger.Logger
	provider provider
}

// New creates the Transcriber selected by cfg.Provider
func New(cfg config.TranscriptionConfig, tempDir string, exec executor.Executor, log logger.Logger) (Transcriber, error) {
	var p provider
	switch cfg.Provider {
	case "openai":
		p = &openAIProvider{
			baseURL:  cfg.BaseURL,
			model:    cfg.Model,
			language: cfg.Language,
			client:   &http.Client{Timeout: 30 * time.Minute},
		}
	case "gemini":
		p = &geminiProvider{
			model:    cfg.Model,
			baseURL:  cfg.BaseURL,
			language: cfg.Language,
		}
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}

	return &implTranscriber{
		cfg:      cfg,
		tempDir:  tempDir,
		executor: exec,
		logger:   log,
		provider: p,
	}, nil
}
