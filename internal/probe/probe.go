// Package probe evaluates outbound content for credibility and
// reasonableness before dispatch commits a delivery.
package probe

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ambassador/internal/model"
	"github.com/sells-group/ambassador/pkg/llm"
)

const messageRubric = `You are an outreach message evaluator.
You are given a message content sent by an outreach ambassador to individual citizens.
Evaluate the message content for credibility and reasonableness.
Respond with ONLY valid JSON, no other text:
{"credibility": 0, "reasonableness": 0}
Both fields are integers from 0 to 100.`

const posterRubric = `You are an outreach poster evaluator.
You are given a poster content put up by an outreach ambassador in a specific area;
each citizen in that area will see the poster.
Evaluate the poster content for credibility and reasonableness.
Respond with ONLY valid JSON, no other text:
{"credibility": 0, "reasonableness": 0}
Both fields are integers from 0 to 100.`

const announcementRubric = `You are an outreach announcement evaluator.
You are given an announcement content sent by an outreach ambassador to all citizens.
Announcements have a big impact on the citizens.
Evaluate the announcement content for credibility and reasonableness.
Respond with ONLY valid JSON, no other text:
{"credibility": 0, "reasonableness": 0}
Both fields are integers from 0 to 100.`

// rubrics maps each channel kind to its evaluation prompt.
var rubrics = map[model.Channel]string{
	model.ChannelCommunication: messageRubric,
	model.ChannelPoster:        posterRubric,
	model.ChannelAnnouncement:  announcementRubric,
}

// Score is an audit result on two 0-100 axes.
type Score struct {
	Credibility    int `json:"credibility"`
	Reasonableness int `json:"reasonableness"`
}

var errNoJSON = eris.New("probe: no JSON object in response")

// defaultScore is appended when the scoring call fails. Delivery is
// prioritized over audit completeness, so the default never blocks an
// otherwise-valid action under the default thresholds.
var defaultScore = Score{Credibility: 95, Reasonableness: 100}

// Entry is one logged audit, success or fault.
type Entry struct {
	Timestamp time.Time     `json:"timestamp"`
	Channel   model.Channel `json:"channel"`
	Score     Score         `json:"score"`
	// Faulted marks entries whose score is the fail-open default.
	Faulted bool `json:"faulted,omitempty"`
}

// Auditor scores content through a single generation round-trip per call
// and keeps a per-channel log of every result.
type Auditor struct {
	gen llm.Generator

	mu   sync.Mutex
	logs map[model.Channel][]Entry
}

// NewAuditor creates an Auditor backed by the given generator.
func NewAuditor(gen llm.Generator) *Auditor {
	return &Auditor{
		gen:  gen,
		logs: make(map[model.Channel][]Entry),
	}
}

// Probe evaluates content for the given channel kind. A collaborator
// fault never propagates: the fail-open default score is logged and
// returned instead, so a transient scoring fault cannot prevent an
// otherwise-valid outreach action from completing.
func (a *Auditor) Probe(ctx context.Context, content string, channel model.Channel) Score {
	rubric, ok := rubrics[channel]
	if !ok {
		rubric = messageRubric
	}

	score, err := a.evaluate(ctx, rubric, content)
	faulted := err != nil
	if faulted {
		zap.L().Warn("probe: evaluation failed, applying default score",
			zap.String("channel", string(channel)),
			zap.Error(err),
		)
		score = defaultScore
	}

	a.mu.Lock()
	a.logs[channel] = append(a.logs[channel], Entry{
		Timestamp: time.Now().UTC(),
		Channel:   channel,
		Score:     score,
		Faulted:   faulted,
	})
	a.mu.Unlock()

	zap.L().Info("probe: content audited",
		zap.String("channel", string(channel)),
		zap.Int("credibility", score.Credibility),
		zap.Int("reasonableness", score.Reasonableness),
		zap.Bool("faulted", faulted),
	)
	return score
}

// Results returns a copy of the per-channel audit logs.
func (a *Auditor) Results() map[model.Channel][]Entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[model.Channel][]Entry, len(a.logs))
	for ch, entries := range a.logs {
		cp := make([]Entry, len(entries))
		copy(cp, entries)
		out[ch] = cp
	}
	return out
}

func (a *Auditor) evaluate(ctx context.Context, rubric, content string) (Score, error) {
	text, err := a.gen.GenerateText(ctx, llm.Dialog{
		llm.System(rubric),
		llm.User("Content: " + content),
	})
	if err != nil {
		return Score{}, err
	}
	return parseScore(text)
}

// parseScore extracts the JSON score from a response that may carry
// surrounding text.
func parseScore(text string) (Score, error) {
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return Score{}, errNoJSON
	}

	var s Score
	if err := json.Unmarshal([]byte(text[jsonStart:jsonEnd+1]), &s); err != nil {
		return Score{}, err
	}

	s.Credibility = clamp(s.Credibility)
	s.Reasonableness = clamp(s.Reasonableness)
	return s, nil
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
