// Package ambassador drives the sense-plan-act round loop: each round it
// refreshes budget and population state, builds a prioritized outreach
// strategy and executes it over the dispatch channels.
package ambassador

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ambassador/internal/dispatch"
	"github.com/sells-group/ambassador/internal/fund"
	"github.com/sells-group/ambassador/internal/model"
	"github.com/sells-group/ambassador/internal/scoring"
	"github.com/sells-group/ambassador/internal/world"
	"github.com/sells-group/ambassador/pkg/llm"
)

// Phase names the controller's position in its round state machine.
type Phase string

const (
	PhaseUninitialized Phase = "UNINITIALIZED"
	PhaseSense         Phase = "SENSE"
	PhasePlan          Phase = "PLAN"
	PhaseAct           Phase = "ACT"
)

// RoundContext is the per-round scratch state. It is built fresh at the
// start of every round and discarded at its end; nothing in it survives
// into the next round.
type RoundContext struct {
	Round         int
	CurrentTime   string
	FundsSnapshot int64
	CostSummary   string
	Gathered      []string
	SenseHistory  []string
	Strategy      []PlannedAction
}

// PlannedAction is one entry of a round's ordered strategy.
type PlannedAction struct {
	Request dispatch.Request
	Cost    int64
}

// Controller is the single ambassador actor. It is driven externally,
// one round per harness tick, and never schedules itself.
type Controller struct {
	world      world.World
	funds      *fund.Manager
	dispatcher *dispatch.Dispatcher
	engine     *scoring.Engine
	gen        llm.Generator

	mu           sync.Mutex
	phase        Phase
	round        int
	citizens     map[model.CitizenID]model.Citizen
	areas        map[model.AreaID]model.Area
	scored       map[model.CitizenID]model.ScoredCitizen
	distribution []scoring.AreaStats

	communicated map[model.CitizenID]bool
	postered     map[model.AreaID]bool
	announced    bool

	actions []model.ActionRecord
}

// NewController wires the ambassador's collaborators together. The
// controller starts UNINITIALIZED; the first AdvanceRound performs
// one-time setup.
func NewController(w world.World, funds *fund.Manager, d *dispatch.Dispatcher, e *scoring.Engine, gen llm.Generator) *Controller {
	return &Controller{
		world:        w,
		funds:        funds,
		dispatcher:   d,
		engine:       e,
		gen:          gen,
		phase:        PhaseUninitialized,
		citizens:     make(map[model.CitizenID]model.Citizen),
		areas:        make(map[model.AreaID]model.Area),
		scored:       make(map[model.CitizenID]model.ScoredCitizen),
		communicated: make(map[model.CitizenID]bool),
		postered:     make(map[model.AreaID]bool),
	}
}

// AdvanceRound runs one full sense-plan-act cycle. Insufficiency, quota
// exhaustion and collaborator faults are all absorbed inside the round;
// only a failure of the controller's own sensing surface is returned.
func (c *Controller) AdvanceRound(ctx context.Context) error {
	if c.Phase() == PhaseUninitialized {
		if err := c.initialize(ctx); err != nil {
			return eris.Wrap(err, "ambassador: initialize")
		}
	}

	rc := c.beginRound(ctx)
	zap.L().Info("ambassador: round started",
		zap.Int("round", rc.Round),
		zap.Int64("funds", rc.FundsSnapshot),
	)

	c.setPhase(PhaseSense)
	if err := c.sense(ctx, rc); err != nil {
		return eris.Wrap(err, "ambassador: sense")
	}

	c.setPhase(PhasePlan)
	c.plan(ctx, rc)

	c.setPhase(PhaseAct)
	c.act(ctx, rc)

	zap.L().Info("ambassador: round complete",
		zap.Int("round", rc.Round),
		zap.Int("actions", len(rc.Strategy)),
		zap.Int64("funds_left", c.funds.Funds()),
	)
	return nil
}

// initialize performs the one-time setup: load the full population and
// geography so the first round can compute its distribution.
func (c *Controller) initialize(ctx context.Context) error {
	citizens, err := c.world.Citizens(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "load citizens")
	}
	areas, err := c.world.Areas(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "load areas")
	}

	seed := make([]model.Citizen, 0, len(citizens))
	for _, ct := range citizens {
		seed = append(seed, ct)
	}

	c.mu.Lock()
	c.citizens = citizens
	c.areas = areas
	c.distribution = scoring.CountsByArea(seed)
	c.mu.Unlock()

	zap.L().Info("ambassador: initialized",
		zap.Int("citizens", len(citizens)),
		zap.Int("areas", len(areas)),
	)
	return nil
}

// beginRound resets round-scoped state: a fresh context and a full
// message quota. Run-scoped state (scores, engagement, history) carries
// over untouched.
func (c *Controller) beginRound(ctx context.Context) *RoundContext {
	c.mu.Lock()
	c.round++
	round := c.round
	c.mu.Unlock()

	c.dispatcher.ResetRound()

	now, err := c.world.CurrentTime(ctx)
	if err != nil {
		zap.L().Warn("ambassador: clock unavailable", zap.Error(err))
		now = time.Now().UTC().Format(time.RFC3339)
	}

	return &RoundContext{
		Round:         round,
		CurrentTime:   now,
		FundsSnapshot: c.funds.Funds(),
	}
}

// sense refreshes budget state and citizen scores. The first engagement-
// free round surveys the whole population; later rounds re-score only
// already-engaged citizens to capture attitude drift.
func (c *Controller) sense(ctx context.Context, rc *RoundContext) error {
	rc.FundsSnapshot = c.funds.Funds()
	rc.CostSummary = c.funds.Summary(10)
	rc.SenseHistory = append(rc.SenseHistory, "funds refreshed")
	rc.Gathered = append(rc.Gathered, rc.CostSummary)

	targets := c.senseTargets()
	if len(targets) == 0 {
		rc.SenseHistory = append(rc.SenseHistory, "no citizens to score")
		return nil
	}

	scored, err := c.engine.ScoreAll(ctx, targets, c.areasSnapshot())
	if err != nil {
		return eris.Wrap(err, "score citizens")
	}

	c.mu.Lock()
	for _, sc := range scored {
		c.scored[sc.ID] = sc
	}
	all := make([]model.ScoredCitizen, 0, len(c.scored))
	for _, sc := range c.scored {
		all = append(all, sc)
	}
	c.distribution = scoring.DistributionByArea(all)
	c.mu.Unlock()

	rc.SenseHistory = append(rc.SenseHistory, "citizens scored")
	rc.Gathered = append(rc.Gathered, c.funds.Summary(0))
	return nil
}

// senseTargets picks which citizens this round's survey covers.
func (c *Controller) senseTargets() []model.Citizen {
	c.mu.Lock()
	defer c.mu.Unlock()

	var targets []model.Citizen
	if len(c.communicated) == 0 && !c.announced && len(c.postered) == 0 {
		// first contact: survey everyone
		for _, ct := range c.citizens {
			targets = append(targets, ct)
		}
	} else {
		for id := range c.communicated {
			if ct, ok := c.citizens[id]; ok {
				targets = append(targets, ct)
			}
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].ID < targets[j].ID })
	return targets
}

// act executes the strategy in order. A failed action is recorded and
// skipped; engagement state advances only on confirmed success.
func (c *Controller) act(ctx context.Context, rc *RoundContext) {
	for _, pa := range rc.Strategy {
		res := c.dispatcher.Execute(ctx, pa.Request)
		c.record(rc.CurrentTime, pa.Request, res)
		if !res.Success {
			zap.L().Warn("ambassador: action refused",
				zap.String("channel", string(pa.Request.Channel)),
				zap.String("reason", res.Reason),
			)
			continue
		}

		c.mu.Lock()
		switch pa.Request.Channel {
		case model.ChannelCommunication:
			for _, id := range pa.Request.CitizenIDs {
				c.communicated[id] = true
			}
		case model.ChannelPoster:
			for _, id := range pa.Request.AreaIDs {
				c.postered[id] = true
			}
		case model.ChannelAnnouncement:
			c.announced = true
		}
		c.mu.Unlock()
	}
}

func (c *Controller) record(timestamp string, req dispatch.Request, res dispatch.Result) {
	params := map[string]any{"content": req.Content}
	if len(req.CitizenIDs) > 0 {
		params["citizen_ids"] = req.CitizenIDs
	}
	if len(req.AreaIDs) > 0 {
		params["area_ids"] = req.AreaIDs
	}

	c.mu.Lock()
	c.actions = append(c.actions, model.ActionRecord{
		ID:        uuid.NewString(),
		Timestamp: timestamp,
		Channel:   req.Channel,
		Params:    params,
		Success:   res.Success,
		Reason:    res.Reason,
	})
	c.mu.Unlock()
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}

// Phase reports the controller's current state-machine phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Round reports how many rounds have started.
func (c *Controller) Round() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round
}

// Funds reports the current budget balance.
func (c *Controller) Funds() int64 {
	return c.funds.Funds()
}

// Ledger returns the spend history, newest last.
func (c *Controller) Ledger() []fund.SpendRecord {
	return c.funds.History(0)
}

// Actions returns a copy of the action history.
func (c *Controller) Actions() []model.ActionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ActionRecord, len(c.actions))
	copy(out, c.actions)
	return out
}

// Scores returns a copy of every scored citizen so far.
func (c *Controller) Scores() []model.ScoredCitizen {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.ScoredCitizen, 0, len(c.scored))
	for _, sc := range c.scored {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Distribution returns the latest per-area score aggregation, least
// engaged areas first.
func (c *Controller) Distribution() []scoring.AreaStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]scoring.AreaStats, len(c.distribution))
	copy(out, c.distribution)
	return out
}

// ChatHistories exposes the ambassador's conversation logs.
func (c *Controller) ChatHistories() map[model.CitizenID]string {
	return c.dispatcher.ChatHistories()
}

// QueryCitizens filters the known population by demographics. An empty
// filter matches nobody rather than everybody, so a malformed query
// cannot flood the caller.
func (c *Controller) QueryCitizens(f model.CitizenFilter) []model.Citizen {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f.Empty() {
		return nil
	}
	var out []model.Citizen
	for _, ct := range c.citizens {
		if f.Matches(ct) {
			out = append(out, ct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Controller) areasSnapshot() map[model.AreaID]model.Area {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[model.AreaID]model.Area, len(c.areas))
	for id, a := range c.areas {
		out[id] = a
	}
	return out
}
