package probe

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/ambassador/internal/model"
	"github.com/sells-group/ambassador/pkg/llm"
)

type stubGenerator struct {
	text string
	err  error
	// dialogs records every request for prompt assertions.
	dialogs []llm.Dialog
}

func (s *stubGenerator) GenerateText(_ context.Context, dialog llm.Dialog) (string, error) {
	s.dialogs = append(s.dialogs, dialog)
	return s.text, s.err
}

func TestProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		err     error
		channel model.Channel
		want    Score
		faulted bool
	}{
		{
			name:    "clean json",
			text:    `{"credibility": 72, "reasonableness": 88}`,
			channel: model.ChannelCommunication,
			want:    Score{Credibility: 72, Reasonableness: 88},
		},
		{
			name:    "json with surrounding prose",
			text:    "Here is my evaluation:\n{\"credibility\": 40, \"reasonableness\": 55}\nThanks.",
			channel: model.ChannelPoster,
			want:    Score{Credibility: 40, Reasonableness: 55},
		},
		{
			name:    "out of range values clamped",
			text:    `{"credibility": 150, "reasonableness": -10}`,
			channel: model.ChannelAnnouncement,
			want:    Score{Credibility: 100, Reasonableness: 0},
		},
		{
			name:    "generator error falls open",
			err:     eris.New("boom"),
			channel: model.ChannelCommunication,
			want:    defaultScore,
			faulted: true,
		},
		{
			name:    "unparseable response falls open",
			text:    "I cannot evaluate this content.",
			channel: model.ChannelPoster,
			want:    defaultScore,
			faulted: true,
		},
		{
			name:    "malformed json falls open",
			text:    `{"credibility": "high"}`,
			channel: model.ChannelAnnouncement,
			want:    defaultScore,
			faulted: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{text: tt.text, err: tt.err}
			a := NewAuditor(gen)

			got := a.Probe(context.Background(), "recycle more", tt.channel)
			assert.Equal(t, tt.want, got)

			entries := a.Results()[tt.channel]
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0].Score)
			assert.Equal(t, tt.faulted, entries[0].Faulted)
		})
	}
}

func TestProbeSelectsRubricByChannel(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: `{"credibility": 50, "reasonableness": 50}`}
	a := NewAuditor(gen)

	a.Probe(context.Background(), "hello", model.ChannelPoster)
	require.Len(t, gen.dialogs, 1)
	require.NotEmpty(t, gen.dialogs[0])
	assert.Equal(t, "system", gen.dialogs[0][0].Role)
	assert.Contains(t, gen.dialogs[0][0].Content, "poster")

	a.Probe(context.Background(), "hello", model.ChannelAnnouncement)
	require.Len(t, gen.dialogs, 2)
	assert.Contains(t, gen.dialogs[1][0].Content, "announcement")
}

func TestResultsIsCopy(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{text: `{"credibility": 50, "reasonableness": 50}`}
	a := NewAuditor(gen)
	a.Probe(context.Background(), "hello", model.ChannelCommunication)

	got := a.Results()
	got[model.ChannelCommunication][0].Score.Credibility = 0

	again := a.Results()
	assert.Equal(t, 50, again[model.ChannelCommunication][0].Score.Credibility)
}
