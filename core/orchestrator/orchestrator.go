// Package orchestrator is C7: it drives the three detection engines over a
// document, concatenates and deduplicates their output, and commits it in
// one batch (spec §4.7).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/motifkb/connectengine/core/ann"
	"github.com/motifkb/connectengine/core/engine"
	"github.com/motifkb/connectengine/core/llmadapter"
	"github.com/motifkb/connectengine/model"
)

// saveRetries is the single retry spec §7 grants transient I/O before a
// SaveConnections failure is surfaced.
const saveRetries = 1

// ConnectionSaver is the subset of the connections store ProcessDocument
// needs (§4.1 "SaveConnections").
type ConnectionSaver interface {
	SaveConnections(connections []model.Connection) error
}

// Result is ProcessDocument's return value (§4.7 "Public contract").
type Result struct {
	TotalConnections int                             `json:"total_connections"`
	ByEngine         map[model.ConnectionType]int    `json:"by_engine"`
	Errors           map[model.ConnectionType]error  `json:"-"`
	ExecutionTimeMs  int64                           `json:"execution_time_ms"`
}

// progressBand is the percentage range an engine's own 0-100 progress is
// mapped into (§4.7 "coarse-maps the three engines to percentage bands").
type progressBand struct {
	engineType model.ConnectionType
	lo, hi     int
}

// bands implements the example split §4.7 gives: 0-40, 40-55, 55-100.
var bands = []progressBand{
	{model.ConnectionTypeSemanticSimilarity, 0, 40},
	{model.ConnectionTypeContradiction, 40, 55},
	{model.ConnectionTypeThematicBridge, 55, 100},
}

// Orchestrator is C7.
type Orchestrator struct {
	chunks      engine.ChunkSource
	searcher    *ann.Searcher
	connections ConnectionSaver
	llm         llmadapter.Provider
	logger      *slog.Logger
}

// New builds an Orchestrator over the given stores and LLM provider.
func New(chunks engine.ChunkSource, searcher *ann.Searcher, connections ConnectionSaver, llm llmadapter.Provider, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{chunks: chunks, searcher: searcher, connections: connections, llm: llm, logger: logger}
}

// OnProgress is invoked with the orchestrator's band-mapped percent and a
// message, once per engine progress callback (§4.7 "Progress").
type OnProgress func(model.Progress)

// ProcessDocument runs the enabled engines in order, deduplicates, and
// saves the result (§4.7).
func (o *Orchestrator) ProcessDocument(ctx context.Context, documentID uuid.UUID, cfg model.OrchestratorConfig, onProgress OnProgress) (Result, error) {
	start := time.Now()
	cfg.Propagate()
	if onProgress == nil {
		onProgress = func(model.Progress) {}
	}

	var all []model.Connection
	byEngine := map[model.ConnectionType]int{}
	engineErrors := map[model.ConnectionType]error{}
	enabledCount := 0

	for _, band := range bands {
		if !cfg.EngineEnabled(band.engineType) {
			continue
		}
		enabledCount++

		connections, err := o.runEngine(ctx, documentID, band, cfg, onProgress)
		if err != nil {
			o.logger.Error("engine failed, continuing", "engine", band.engineType, "error", err)
			engineErrors[band.engineType] = err
			continue
		}

		byEngine[band.engineType] = len(connections)
		all = append(all, connections...)
	}

	deduped := model.DeduplicateConnections(all)
	result := Result{
		TotalConnections: len(deduped),
		ByEngine:         byEngine,
		Errors:           engineErrors,
		ExecutionTimeMs:  time.Since(start).Milliseconds(),
	}

	if len(deduped) > 0 {
		if err := o.saveConnections(deduped); err != nil {
			return result, err
		}
	} else if enabledCount > 0 && len(engineErrors) == enabledCount {
		// Every enabled engine errored and nothing was produced: not the
		// "at least one engine produced output" success case (§7).
		return result, fmt.Errorf("orchestrator: all %d enabled engines failed", enabledCount)
	}

	return result, nil
}

// saveConnections is the one place transient I/O is retried per §7: one
// retry after a short backoff, then the failure is surfaced to the caller.
func (o *Orchestrator) saveConnections(connections []model.Connection) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxElapsedTime = 2 * time.Second

	return backoff.Retry(func() error {
		return o.connections.SaveConnections(connections)
	}, backoff.WithMaxRetries(policy, saveRetries))
}

func (o *Orchestrator) runEngine(ctx context.Context, documentID uuid.UUID, band progressBand, cfg model.OrchestratorConfig, onProgress OnProgress) ([]model.Connection, error) {
	report := func(percent int, message string) {
		mapped := band.lo + percent*(band.hi-band.lo)/100
		onProgress(model.Progress{Percent: mapped, Stage: string(band.engineType), Message: message})
	}

	switch band.engineType {
	case model.ConnectionTypeSemanticSimilarity:
		return engine.RunSemantic(ctx, o.chunks, o.searcher, documentID, cfg.Semantic, report)
	case model.ConnectionTypeContradiction:
		connections, err := engine.RunContradiction(o.chunks, documentID, cfg.Contradiction, report)
		if err != nil {
			return nil, err
		}
		if cfg.Contradiction.EnableNegationDetection {
			emitted := make(map[model.ConnectionKey]bool, len(connections))
			for _, c := range connections {
				emitted[c.Key()] = true
			}
			negations, err := engine.RunNegation(o.chunks, documentID, cfg.Contradiction, emitted, report)
			if err != nil {
				return nil, err
			}
			connections = append(connections, negations...)
		}
		return connections, nil
	case model.ConnectionTypeThematicBridge:
		return engine.RunBridge(ctx, o.chunks, o.llm, documentID, cfg.Bridge, report)
	default:
		return nil, nil
	}
}
