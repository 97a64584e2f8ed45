package ambassador

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/ambassador/internal/model"
	"github.com/sells-group/ambassador/pkg/llm"
)

const announcementPrompt = `You are an environment protection ambassador making a city-wide announcement.
Write a short announcement (under 200 words) that encourages every citizen to adopt a greener lifestyle:
less single-use plastic, more public transport, waste sorting and energy saving.
Be concrete, credible and encouraging. Cite at most one well-known fact.
Your output must contain only the announcement content, nothing else.`

const posterPrompt = `You are an environment protection ambassador designing a poster.
The poster will be put up in these areas: %s.
Citizens in or passing through the areas will see it. They cannot reply to it.
Write a short, eye-catching poster text (under 120 words) that nudges residents toward
waste sorting, green commuting and frugal consumption.
Your output must contain only the poster content, nothing else.`

const messagePrompt = `You are an environment protection ambassador writing a direct message.
The recipients currently show low engagement with sustainable behavior:
%s
Write one short, warm, personal message (under 100 words) that meets them where they are
and suggests one easy first step toward a greener daily routine. Do not lecture.
Your output must contain only the message content, nothing else.`

const replyPrompt = `You are an environment protection ambassador chatting with a citizen.
Conversation so far:
%s

The citizen just said:
%s

Reply in one or two friendly sentences. Answer their point, encourage sustainable
habits and never argue. Your output must contain only the reply, nothing else.`

// Canned fallbacks keep outreach moving when generation faults.
const (
	fallbackAnnouncement = "Our city is going green. Please sort your waste, choose public transport when you can, and avoid single-use plastics. Small daily choices add up to a cleaner city for everyone."
	fallbackPoster       = "GREEN STARTS HERE. Sort your waste. Ride, walk or take the bus. Reuse before you buy. Your neighborhood, your future."
	fallbackMessage      = "Hi! I'm the city's environment protection ambassador. Even one small change, like sorting recyclables this week, makes a real difference. Could you give it a try?"
	fallbackReply        = "Thank you for reaching out! Every small step toward a greener routine counts, and I'm happy to help you find one that fits your life."
)

func (c *Controller) generateAnnouncement(ctx context.Context) string {
	return c.generate(ctx, llm.Dialog{llm.System(announcementPrompt)}, fallbackAnnouncement)
}

func (c *Controller) generatePoster(ctx context.Context, areaIDs []model.AreaID) string {
	descs := make([]string, 0, len(areaIDs))
	c.mu.Lock()
	for _, id := range areaIDs {
		if a, ok := c.areas[id]; ok && a.Type != "" {
			descs = append(descs, fmt.Sprintf("area %d (%s)", id, a.Type))
		} else {
			descs = append(descs, fmt.Sprintf("area %d", id))
		}
	}
	c.mu.Unlock()

	prompt := fmt.Sprintf(posterPrompt, strings.Join(descs, ", "))
	return c.generate(ctx, llm.Dialog{llm.System(prompt)}, fallbackPoster)
}

func (c *Controller) generateMessage(ctx context.Context, targets []model.CitizenID) string {
	var sb strings.Builder
	c.mu.Lock()
	for _, id := range targets {
		if sc, ok := c.scored[id]; ok {
			fmt.Fprintf(&sb, "- %s, age %d, %s, score %d/5, commutes by %s\n",
				sc.Name, sc.Age, sc.Occupation, sc.Score, sc.Vehicle)
		}
	}
	c.mu.Unlock()

	prompt := fmt.Sprintf(messagePrompt, sb.String())
	return c.generate(ctx, llm.Dialog{llm.System(prompt)}, fallbackMessage)
}

// OnCitizenMessage handles an incoming citizen message and returns the
// ambassador's reply. It always returns a usable string; a generation
// fault degrades to a canned reply and an unknown sender is answered
// anyway.
func (c *Controller) OnCitizenMessage(ctx context.Context, senderID model.CitizenID, content string) string {
	name := fmt.Sprintf("Citizen %d", senderID)
	c.mu.Lock()
	if ct, ok := c.citizens[senderID]; ok && ct.Name != "" {
		name = ct.Name
	}
	c.mu.Unlock()

	c.dispatcher.RecordCitizenLine(senderID, name+": "+content)

	history := c.dispatcher.ChatHistory(senderID)
	reply := c.generate(ctx, llm.Dialog{
		llm.System(fmt.Sprintf(replyPrompt, history, content)),
	}, fallbackReply)

	c.dispatcher.RecordCitizenLine(senderID, "Me: "+reply)

	zap.L().Info("ambassador: citizen message answered",
		zap.Int64("citizen_id", int64(senderID)),
	)
	return reply
}

// generate runs one generation round-trip, falling back to canned
// content on any fault.
func (c *Controller) generate(ctx context.Context, dialog llm.Dialog, fallback string) string {
	text, err := c.gen.GenerateText(ctx, dialog)
	if err != nil {
		zap.L().Warn("ambassador: content generation failed, using fallback", zap.Error(err))
		return fallback
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	return text
}
