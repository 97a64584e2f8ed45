package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/ambassador/internal/ambassador"
	"github.com/sells-group/ambassador/internal/dispatch"
	"github.com/sells-group/ambassador/internal/fund"
	"github.com/sells-group/ambassador/internal/probe"
	"github.com/sells-group/ambassador/internal/scoring"
	"github.com/sells-group/ambassador/internal/world"
	"github.com/sells-group/ambassador/pkg/llm"
)

// buildController wires the full orchestrator stack from configuration
// and a population snapshot file.
func buildController(populationPath string) (*ambassador.Controller, error) {
	w, err := world.LoadFile(populationPath)
	if err != nil {
		return nil, eris.Wrap(err, "load population")
	}

	gen := llm.NewAnthropicGenerator(cfg.Anthropic.Key,
		llm.WithModel(cfg.Anthropic.Model),
		llm.WithMaxTokens(cfg.Anthropic.MaxTokens),
	)

	funds := fund.NewManager(cfg.Fund.Initial)
	auditor := probe.NewAuditor(gen)
	dispatcher := dispatch.NewDispatcher(w, funds, auditor,
		dispatch.WithPosterCost(cfg.Dispatch.PosterCost),
		dispatch.WithAnnouncementCost(cfg.Dispatch.AnnouncementCost),
		dispatch.WithMessageQuota(cfg.Dispatch.MessageQuota),
		dispatch.WithAuditThresholds(cfg.Probe.MinCredibility, cfg.Probe.MinReasonableness),
	)
	engine := scoring.NewEngine(gen,
		scoring.WithConcurrency(cfg.Scoring.Concurrency),
		scoring.WithRateLimit(cfg.Scoring.RatePerSecond, cfg.Scoring.RateBurst),
	)

	return ambassador.NewController(w, funds, dispatcher, engine, gen), nil
}
