package ambassador

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ambassador/internal/dispatch"
	"github.com/sells-group/ambassador/internal/fund"
	"github.com/sells-group/ambassador/internal/model"
	"github.com/sells-group/ambassador/internal/probe"
	"github.com/sells-group/ambassador/internal/scoring"
	"github.com/sells-group/ambassador/internal/world"
	"github.com/sells-group/ambassador/pkg/llm"
)

// routingGen answers indicator surveys, audit probes and content
// generation from one stub, keyed on the system prompt.
type routingGen struct {
	err error
}

func (g *routingGen) GenerateText(_ context.Context, d llm.Dialog) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	sys := d[0].Content
	switch {
	case strings.Contains(sys, "frugalness"):
		return `{"awareness": 1, "frugalness": 1, "policy": 1, "vehicle": -1, "waste": -1}`, nil
	case strings.Contains(sys, "credibility"):
		return `{"credibility": 90, "reasonableness": 90}`, nil
	default:
		return "Generated outreach content.", nil
	}
}

type fixture struct {
	world      *world.MemoryWorld
	funds      *fund.Manager
	dispatcher *dispatch.Dispatcher
	controller *Controller
}

func newFixture(initialFunds int64, gen llm.Generator) *fixture {
	w := world.NewMemoryWorld(
		[]model.Citizen{
			{ID: 1, Name: "Ada", Age: 30, Occupation: "librarian", HomeAreaID: 100},
			{ID: 2, Name: "Ben", Age: 41, Occupation: "driver", HomeAreaID: 100},
			{ID: 3, Name: "Cam", Age: 25, Occupation: "nurse", HomeAreaID: 200},
			{ID: 4, Name: "Dee", Age: 52, Occupation: "clerk", HomeAreaID: 200},
			{ID: 5, Name: "Eli", Age: 36, Occupation: "chef", HomeAreaID: 300},
		},
		[]model.Area{
			{ID: 100, Type: "residential"},
			{ID: 200, Type: "commercial"},
			{ID: 300, Type: "mixed"},
		},
	)
	funds := fund.NewManager(initialFunds)
	d := dispatch.NewDispatcher(w, funds, probe.NewAuditor(gen))
	e := scoring.NewEngine(gen, scoring.WithConcurrency(2))
	return &fixture{
		world:      w,
		funds:      funds,
		dispatcher: d,
		controller: NewController(w, funds, d, e, gen),
	}
}

func TestAdvanceRoundEndToEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(100000, &routingGen{})
	c := f.controller

	assert.Equal(t, PhaseUninitialized, c.Phase())
	require.NoError(t, c.AdvanceRound(context.Background()))

	// announcement 20000 plus posters for 3 areas at 3000 each
	assert.Equal(t, int64(71000), f.funds.Funds())
	ledger := c.Ledger()
	require.Len(t, ledger, 2)
	assert.Equal(t, int64(20000), ledger[0].Amount)
	assert.Equal(t, int64(80000), ledger[0].NewBalance)
	assert.Equal(t, int64(9000), ledger[1].Amount)
	assert.Equal(t, int64(71000), ledger[1].NewBalance)

	// five messages against a quota of ten
	assert.Equal(t, 5, f.dispatcher.QuotaRemaining())

	actions := c.Actions()
	require.Len(t, actions, 3)
	for _, a := range actions {
		assert.True(t, a.Success)
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Timestamp)
	}
	assert.Equal(t, model.ChannelAnnouncement, actions[0].Channel)
	assert.Equal(t, model.ChannelPoster, actions[1].Channel)
	assert.Equal(t, model.ChannelCommunication, actions[2].Channel)

	// all five citizens scored, distribution covers all three areas
	assert.Len(t, c.Scores(), 5)
	assert.Len(t, c.Distribution(), 3)
	assert.Equal(t, 1, c.Round())
	assert.Equal(t, PhaseAct, c.Phase())
}

func TestSecondRoundSkipsEngagedTargets(t *testing.T) {
	t.Parallel()

	f := newFixture(100000, &routingGen{})
	c := f.controller

	require.NoError(t, c.AdvanceRound(context.Background()))
	fundsAfterFirst := f.funds.Funds()
	actionsAfterFirst := len(c.Actions())

	require.NoError(t, c.AdvanceRound(context.Background()))

	// everyone already contacted, every area postered, announcement made
	assert.Equal(t, fundsAfterFirst, f.funds.Funds())
	assert.Equal(t, actionsAfterFirst, len(c.Actions()))
	assert.Equal(t, 10, f.dispatcher.QuotaRemaining())
	assert.Equal(t, 2, c.Round())
}

func TestRoundIsolation(t *testing.T) {
	t.Parallel()

	f := newFixture(100000, &routingGen{})
	c := f.controller
	require.NoError(t, c.initialize(context.Background()))

	rc := c.beginRound(context.Background())
	assert.Empty(t, rc.Gathered)
	assert.Empty(t, rc.SenseHistory)
	assert.Empty(t, rc.Strategy)

	require.NoError(t, c.sense(context.Background(), rc))
	assert.NotEmpty(t, rc.Gathered)
	assert.NotEmpty(t, rc.SenseHistory)

	// a fresh round starts from a clean context
	next := c.beginRound(context.Background())
	assert.Empty(t, next.Gathered)
	assert.Empty(t, next.SenseHistory)
	assert.Empty(t, next.Strategy)
	assert.Equal(t, rc.Round+1, next.Round)
}

func TestActRecordsFailuresAndContinues(t *testing.T) {
	t.Parallel()

	f := newFixture(0, &routingGen{})
	c := f.controller
	require.NoError(t, c.initialize(context.Background()))

	rc := c.beginRound(context.Background())
	rc.Strategy = []PlannedAction{
		{Request: dispatch.Request{Channel: model.ChannelAnnouncement, Content: "x"}},
		{Request: dispatch.Request{Channel: model.ChannelCommunication, CitizenIDs: []model.CitizenID{1}, Content: "y"}},
	}
	c.act(context.Background(), rc)

	actions := c.Actions()
	require.Len(t, actions, 2)
	assert.False(t, actions[0].Success)
	assert.Contains(t, actions[0].Reason, "enough funds")
	assert.True(t, actions[1].Success)

	// engagement only advances on success
	assert.False(t, c.isAnnounced())
	c.mu.Lock()
	assert.True(t, c.communicated[1])
	c.mu.Unlock()
}

func TestCollaboratorFaultDoesNotAbortRound(t *testing.T) {
	t.Parallel()

	f := newFixture(100000, &routingGen{err: eris.New("provider down")})
	c := f.controller

	// scoring degrades to defaults, audits fall open, content falls back
	require.NoError(t, c.AdvanceRound(context.Background()))

	scores := c.Scores()
	require.Len(t, scores, 5)
	for _, sc := range scores {
		assert.Equal(t, 3, sc.Score)
	}
	assert.NotEmpty(t, c.Actions())
	assert.Equal(t, int64(71000), f.funds.Funds())
}

func TestOnCitizenMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(100000, &routingGen{})
	c := f.controller
	require.NoError(t, c.initialize(context.Background()))

	reply := c.OnCitizenMessage(context.Background(), 1, "why should I sort waste?")
	assert.Equal(t, "Generated outreach content.", reply)

	history := c.ChatHistories()[1]
	assert.Contains(t, history, "Ada: why should I sort waste?")
	assert.Contains(t, history, "Me: Generated outreach content.")
}

func TestOnCitizenMessageFallsBack(t *testing.T) {
	t.Parallel()

	f := newFixture(100000, &routingGen{err: eris.New("provider down")})
	c := f.controller

	// unknown sender, broken generator: still a usable reply
	reply := c.OnCitizenMessage(context.Background(), 99, "hello?")
	assert.Equal(t, fallbackReply, reply)
	assert.Contains(t, c.ChatHistories()[99], "Citizen 99: hello?")
}

func TestQueryCitizens(t *testing.T) {
	t.Parallel()

	f := newFixture(100000, &routingGen{})
	c := f.controller
	require.NoError(t, c.initialize(context.Background()))

	got := c.QueryCitizens(model.CitizenFilter{MinAge: 40})
	require.Len(t, got, 2)
	assert.Equal(t, model.CitizenID(2), got[0].ID)
	assert.Equal(t, model.CitizenID(4), got[1].ID)

	// an empty filter matches nobody
	assert.Empty(t, c.QueryCitizens(model.CitizenFilter{}))
}
