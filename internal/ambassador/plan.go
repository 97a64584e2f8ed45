package ambassador

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/ambassador/internal/dispatch"
	"github.com/sells-group/ambassador/internal/model"
)

// maxPosterAreasPerRound bounds how many areas one round's poster batch
// covers, so early rounds don't drain the budget on a single channel.
const maxPosterAreasPerRound = 3

// plan assembles the round's ordered strategy from remaining funds, the
// unengaged citizens ranked ascending by score and the unpostered areas
// ranked ascending by mean score. Budget arithmetic here is advisory
// pre-filtering; the dispatcher's debit is the authoritative gate.
func (c *Controller) plan(ctx context.Context, rc *RoundContext) {
	remaining := rc.FundsSnapshot

	if !c.isAnnounced() && remaining >= c.dispatcher.AnnouncementCost() {
		rc.Strategy = append(rc.Strategy, PlannedAction{
			Request: dispatch.Request{
				Channel: model.ChannelAnnouncement,
				Content: c.generateAnnouncement(ctx),
				Reason:  "city-wide sustainability announcement",
			},
			Cost: c.dispatcher.AnnouncementCost(),
		})
		remaining -= c.dispatcher.AnnouncementCost()
	}

	if areaIDs := c.planPosterAreas(&remaining); len(areaIDs) > 0 {
		rc.Strategy = append(rc.Strategy, PlannedAction{
			Request: dispatch.Request{
				Channel: model.ChannelPoster,
				AreaIDs: areaIDs,
				Content: c.generatePoster(ctx, areaIDs),
				Reason:  fmt.Sprintf("posters for %d lowest-scoring areas", len(areaIDs)),
			},
			Cost: c.dispatcher.PosterCost() * int64(len(areaIDs)),
		})
	}

	if targets := c.planMessageTargets(); len(targets) > 0 {
		rc.Strategy = append(rc.Strategy, PlannedAction{
			Request: dispatch.Request{
				Channel:    model.ChannelCommunication,
				CitizenIDs: targets,
				Content:    c.generateMessage(ctx, targets),
			},
		})
	}

	zap.L().Info("ambassador: strategy planned",
		zap.Int("round", rc.Round),
		zap.Int("actions", len(rc.Strategy)),
		zap.Int64("projected_remaining", remaining),
	)
}

// planPosterAreas picks the lowest-mean unpostered areas that fit the
// advisory budget, decrementing it per area.
func (c *Controller) planPosterAreas(remaining *int64) []model.AreaID {
	cost := c.dispatcher.PosterCost()

	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model.AreaID
	for _, stats := range c.distribution {
		if len(out) == maxPosterAreasPerRound {
			break
		}
		if c.postered[stats.AreaID] {
			continue
		}
		if *remaining < cost {
			break
		}
		out = append(out, stats.AreaID)
		*remaining -= cost
	}
	return out
}

// planMessageTargets picks the lowest-scoring citizens not yet contacted,
// capped by the round's message quota.
func (c *Controller) planMessageTargets() []model.CitizenID {
	quota := c.dispatcher.QuotaRemaining()
	if quota == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var candidates []model.ScoredCitizen
	for id, sc := range c.scored {
		if !c.communicated[id] {
			candidates = append(candidates, sc)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score < candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})

	if len(candidates) > quota {
		candidates = candidates[:quota]
	}
	out := make([]model.CitizenID, len(candidates))
	for i, sc := range candidates {
		out[i] = sc.ID
	}
	return out
}

func (c *Controller) isAnnounced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.announced
}
