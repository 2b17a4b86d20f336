package di

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lifecandle/internal/cache"
	"github.com/aristath/lifecandle/internal/clients/llm"
	"github.com/aristath/lifecandle/internal/config"
	"github.com/aristath/lifecandle/internal/modules/analysis"
	"github.com/aristath/lifecandle/internal/modules/analysis/handlers"
	"github.com/aristath/lifecandle/internal/modules/synthesis"
	"github.com/aristath/lifecandle/internal/work"
)

// InitializeServices builds the writer queue, the tiered cache, both
// generators and the analysis service on top of the stores in container.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.WriterQueue = work.NewQueue(work.Config{
		Workers:   cfg.Writer.Workers,
		QueueSize: cfg.Writer.QueueSize,
	}, log)

	container.TieredCache = cache.New(
		container.Ephemeral,
		container.Durable,
		container.Codec,
		container.WriterQueue,
		log,
	)

	container.Synthesizer = synthesis.New(
		rand.New(rand.NewSource(time.Now().UnixNano())),
		synthesis.Options{PhaseOnsetAge: cfg.PhaseOnsetAge},
	)

	container.LLMClient = llm.NewClient(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, log)

	container.AnalysisService = analysis.NewService(
		container.TieredCache,
		container.Synthesizer,
		container.LLMClient,
		cfg.LLM.APIKey,
		log,
	)

	container.AnalysisHandler = handlers.NewHandler(container.AnalysisService, log)
	if container.MemoryStore != nil {
		container.AnalysisHandler.SetStatsSources(container.TieredCache, container.WriterQueue, container.MemoryStore)
	} else {
		// A nil *MemoryStore in the interface would not compare equal to nil
		container.AnalysisHandler.SetStatsSources(container.TieredCache, container.WriterQueue, nil)
	}
}
