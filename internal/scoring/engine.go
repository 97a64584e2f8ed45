package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/ambassador/internal/model"
	"github.com/sells-group/ambassador/pkg/llm"
)

const indicatorRubric = `Assess the resident's sustainability-related traits from the background story below and produce five scores.

# Scoring criteria:

## 1. Environmental awareness (awareness, 1-4):
4: actively participates, eager to join environmental activities, strong environmental awareness
3: some understanding of environmental protection, willing to try green behavior
2: follows the crowd, weak environmental awareness, low interest
1: doubts environmental protection, finds it a hassle, thinks it irrelevant, rarely participates

## 2. Frugality (frugalness, 1-4):
4: habitually thrifty, focused on reuse and recycling of resources
3: balances environmental and economic concerns, pragmatic green behavior
2: values practicality, occasionally considers environmental factors
1: prefers convenience, practicality and fashion over environment, value-for-money first

## 3. Policy responsiveness (policy, 1-5):
5: actively responds to and supports policy, trusts policy
4: responds when rewarded or required, moderate trust in government
3: neutral attitude, follows the crowd
2: indifferent, does not care
1: skeptical, lacks trust

## 4. Commute vehicle choice (vehicle, 1-4, -1 when unknown):
4: walks
3: bicycle or shared bike
2: public transport
1: ride-hailing, taxi or private car
-1: no related information

## 5. Waste sorting (waste, 1-4, -1 when unknown):
4: sorts waste
3: starting or already trying to sort waste
2: knows about sorting but does not practice it
1: does not sort waste
-1: no related information

# Output format:
- Respond with EXACTLY the following JSON, no extra content, no markdown fence, no line breaks:
{"awareness": [1-4],"frugalness": [1-4],"policy": [1-5],"vehicle": [1-4 or -1],"waste": [1-4 or -1]}

# Background story:
%s`

// faultIndicators is the neutral default applied when extraction fails.
var faultIndicators = model.Indicators{
	Awareness:  2,
	Frugalness: 2,
	Policy:     3,
	Vehicle:    model.NoData,
	Waste:      model.NoData,
}

// Engine extracts indicators concurrently through a rate-limited
// generator.
type Engine struct {
	gen         llm.Generator
	limiter     *rate.Limiter
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency caps the number of in-flight extraction calls.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithRateLimit caps extraction calls per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) {
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewEngine creates an Engine. Without options it runs 8 concurrent
// extractions with no rate cap.
func NewEngine(gen llm.Generator, opts ...Option) *Engine {
	e := &Engine{
		gen:         gen,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		concurrency: 8,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ScoreCitizen extracts one citizen's indicators. A generation or parse
// fault degrades to the neutral default rather than failing the survey.
func (e *Engine) ScoreCitizen(ctx context.Context, c model.Citizen) model.Indicators {
	ind, err := e.extract(ctx, c)
	if err != nil {
		zap.L().Warn("scoring: indicator extraction failed, using defaults",
			zap.Int64("citizen_id", int64(c.ID)),
			zap.Error(err),
		)
		return faultIndicators
	}
	return ind
}

// ScoreAll surveys every given citizen concurrently and returns one
// scored record per citizen, in input order. Individual extraction
// faults degrade to defaults; only context cancellation aborts the
// survey.
func (e *Engine) ScoreAll(ctx context.Context, citizens []model.Citizen, areas map[model.AreaID]model.Area) ([]model.ScoredCitizen, error) {
	scored := make([]model.ScoredCitizen, len(citizens))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, c := range citizens {
		i, c := i, c
		g.Go(func() error {
			if err := e.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "scoring: rate limit wait")
			}
			ind := e.ScoreCitizen(ctx, c)
			scored[i] = model.ScoredCitizen{
				Citizen:    c,
				Indicators: ind,
				Score:      Aggregate(ind),
				Vehicle:    ind.VehicleLabel(),
				CommuteKM:  commuteKM(c, areas),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("scoring: survey complete",
		zap.Int("citizens", len(scored)),
		zap.Float64("avg_score", AverageScore(scored)),
	)
	return scored, nil
}

func (e *Engine) extract(ctx context.Context, c model.Citizen) (model.Indicators, error) {
	text, err := e.gen.GenerateText(ctx, llm.Dialog{
		llm.System(fmt.Sprintf(indicatorRubric, c.BackgroundStory)),
	})
	if err != nil {
		return model.Indicators{}, err
	}
	return parseIndicators(text)
}

// parseIndicators extracts and validates the indicator JSON from a
// response that may carry surrounding text.
func parseIndicators(text string) (model.Indicators, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.Indicators{}, eris.New("scoring: no JSON object in response")
	}

	var ind model.Indicators
	if err := json.Unmarshal([]byte(text[start:end+1]), &ind); err != nil {
		return model.Indicators{}, eris.Wrap(err, "scoring: decode indicators")
	}
	if err := validate(ind); err != nil {
		return model.Indicators{}, err
	}
	return ind, nil
}

func validate(ind model.Indicators) error {
	inRange := func(v, lo, hi int, optional bool) bool {
		if optional && v == model.NoData {
			return true
		}
		return v >= lo && v <= hi
	}
	if !inRange(ind.Awareness, 1, 4, false) ||
		!inRange(ind.Frugalness, 1, 4, false) ||
		!inRange(ind.Policy, 1, 5, false) ||
		!inRange(ind.Vehicle, 1, 4, true) ||
		!inRange(ind.Waste, 1, 4, true) {
		return eris.Errorf("scoring: indicators out of range: %+v", ind)
	}
	return nil
}

// commuteKM is the great-circle distance between the citizen's home and
// work areas, using each area's first gate. Zero when either side is
// unknown.
func commuteKM(c model.Citizen, areas map[model.AreaID]model.Area) float64 {
	home, ok := areas[c.HomeAreaID]
	if !ok || len(home.Gates) == 0 {
		return 0
	}
	work, ok := areas[c.WorkAreaID]
	if !ok || len(work.Gates) == 0 {
		return 0
	}
	return model.HaversineKM(home.Gates[0], work.Gates[0])
}
