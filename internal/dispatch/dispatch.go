// Package dispatch executes outreach actions over the three delivery
// channels: direct messages, area posters and population-wide
// announcements. Paid channels settle against the fund manager before
// any delivery happens; the quota-bound message channel is free.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/ambassador/internal/fund"
	"github.com/sells-group/ambassador/internal/model"
	"github.com/sells-group/ambassador/internal/probe"
	"github.com/sells-group/ambassador/internal/world"
)

const messageBanner = `
========================================
THIS IS A MESSAGE SENT BY THE ENVIRONMENT PROTECTION AMBASSADOR.
========================================
`

const posterBanner = `
========================================
THIS IS A POSTER PUT UP BY THE ENVIRONMENT PROTECTION DEPARTMENT.
========================================
`

const announcementBanner = `
========================================
THIS IS AN ANNOUNCEMENT SENT BY THE ENVIRONMENT PROTECTION DEPARTMENT.
YOU DONT NEED TO REPLY TO THIS MESSAGE.
========================================
`

// Result reports the outcome of a dispatch attempt. A refused action is
// not an error: insufficiency, quota exhaustion and audit rejection are
// ordinary outcomes the caller plans around.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
}

// Request is a channel-agnostic action, used by the dispatch table.
type Request struct {
	Channel    model.Channel     `json:"channel"`
	CitizenIDs []model.CitizenID `json:"citizen_ids,omitempty"`
	AreaIDs    []model.AreaID    `json:"area_ids,omitempty"`
	Content    string            `json:"content"`
	Reason     string            `json:"reason,omitempty"`
}

// Dispatcher owns channel execution, the per-round message quota and the
// ambassador's side of every citizen conversation.
type Dispatcher struct {
	world   world.World
	funds   *fund.Manager
	auditor *probe.Auditor

	posterCost        int64
	announcementCost  int64
	messageQuota      int
	minCredibility    int
	minReasonableness int

	mu        sync.Mutex
	remaining int
	chats     map[model.CitizenID]string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPosterCost overrides the per-area poster cost.
func WithPosterCost(cost int64) Option {
	return func(d *Dispatcher) { d.posterCost = cost }
}

// WithAnnouncementCost overrides the flat announcement cost.
func WithAnnouncementCost(cost int64) Option {
	return func(d *Dispatcher) { d.announcementCost = cost }
}

// WithMessageQuota overrides the per-round message quota.
func WithMessageQuota(n int) Option {
	return func(d *Dispatcher) { d.messageQuota = n }
}

// WithAuditThresholds sets minimum audit scores below which content is
// refused. Both default to zero, which keeps the audit advisory.
func WithAuditThresholds(minCredibility, minReasonableness int) Option {
	return func(d *Dispatcher) {
		d.minCredibility = minCredibility
		d.minReasonableness = minReasonableness
	}
}

// NewDispatcher creates a Dispatcher with a full message quota.
func NewDispatcher(w world.World, funds *fund.Manager, auditor *probe.Auditor, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		world:            w,
		funds:            funds,
		auditor:          auditor,
		posterCost:       3000,
		announcementCost: 20000,
		messageQuota:     10,
		chats:            make(map[model.CitizenID]string),
	}
	for _, o := range opts {
		o(d)
	}
	d.remaining = d.messageQuota
	return d
}

// ResetRound restores the message quota to its full value. The
// conversation log survives resets.
func (d *Dispatcher) ResetRound() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remaining = d.messageQuota
}

// PosterCost reports the per-area poster cost.
func (d *Dispatcher) PosterCost() int64 { return d.posterCost }

// AnnouncementCost reports the flat announcement cost.
func (d *Dispatcher) AnnouncementCost() int64 { return d.announcementCost }

// QuotaRemaining reports how many message sends remain this round.
func (d *Dispatcher) QuotaRemaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.remaining
}

// Execute routes a Request to its channel handler.
func (d *Dispatcher) Execute(ctx context.Context, req Request) Result {
	switch req.Channel {
	case model.ChannelCommunication:
		return d.SendMessage(ctx, req.CitizenIDs, req.Content)
	case model.ChannelPoster:
		return d.PutUpPoster(ctx, req.AreaIDs, req.Content, req.Reason)
	case model.ChannelAnnouncement:
		return d.MakeAnnouncement(ctx, req.Content, req.Reason)
	default:
		return Result{Success: false, Reason: fmt.Sprintf("Unknown channel %q.", req.Channel)}
	}
}

// SendMessage delivers content to the given citizens. The whole call is
// atomic against the quota: if fewer sends remain than targets, nothing
// is delivered.
func (d *Dispatcher) SendMessage(ctx context.Context, ids []model.CitizenID, content string) Result {
	if len(ids) == 0 {
		return Result{Success: false, Reason: "No citizens to send message to."}
	}

	d.mu.Lock()
	if len(ids) > d.remaining {
		left := d.remaining
		d.mu.Unlock()
		return Result{
			Success: false,
			Reason:  fmt.Sprintf("You can only send message to %d citizens at this time.", left),
		}
	}
	d.remaining -= len(ids)
	d.mu.Unlock()

	if res, ok := d.audit(ctx, content, model.ChannelCommunication); !ok {
		d.mu.Lock()
		d.remaining += len(ids)
		d.mu.Unlock()
		return res
	}

	for _, id := range ids {
		if err := d.world.DeliverToCitizen(ctx, id, messageBanner+content); err != nil {
			zap.L().Warn("dispatch: message delivery failed",
				zap.Int64("citizen_id", int64(id)),
				zap.Error(err),
			)
			continue
		}
		d.appendChat(id, "Me: "+content)
	}

	zap.L().Info("dispatch: messages sent", zap.Int("count", len(ids)))
	return Result{
		Success: true,
		Reason:  fmt.Sprintf("You have sent message to %d citizens.", len(ids)),
	}
}

// PutUpPoster registers content against the given areas. The debit is
// batch-atomic: the full cost for every area is authorized in one step
// or the whole call is refused.
func (d *Dispatcher) PutUpPoster(ctx context.Context, areaIDs []model.AreaID, content, reason string) Result {
	if len(areaIDs) == 0 {
		return Result{Success: false, Reason: "No areas to put up poster in."}
	}

	cost := d.posterCost * int64(len(areaIDs))
	refused := Result{
		Success: false,
		Reason:  fmt.Sprintf("You don't have enough funds to put up poster for %d areas.", len(areaIDs)),
	}
	// cheap pre-check so an unaffordable call never reaches the auditor;
	// the debit below stays the authoritative gate
	if d.funds.Funds() < cost {
		return refused
	}

	if res, ok := d.audit(ctx, content, model.ChannelPoster); !ok {
		return res
	}

	if reason == "" {
		reason = fmt.Sprintf("poster in %d areas", len(areaIDs))
	}
	if !d.funds.AuthorizeAndDebit(cost, reason) {
		return refused
	}

	if err := d.world.RegisterAreaContent(ctx, areaIDs, posterBanner+content); err != nil {
		zap.L().Error("dispatch: poster registration failed", zap.Error(err))
		return Result{Success: false, Reason: "Poster delivery failed after payment."}
	}

	zap.L().Info("dispatch: poster put up",
		zap.Int("areas", len(areaIDs)),
		zap.Int64("cost", cost),
	)
	return Result{
		Success: true,
		Reason:  fmt.Sprintf("You have put up poster for %d areas.", len(areaIDs)),
	}
}

// MakeAnnouncement broadcasts content to the whole population for a flat
// cost.
func (d *Dispatcher) MakeAnnouncement(ctx context.Context, content, reason string) Result {
	refused := Result{Success: false, Reason: "You don't have enough funds to make announcement."}
	if d.funds.Funds() < d.announcementCost {
		return refused
	}

	if res, ok := d.audit(ctx, content, model.ChannelAnnouncement); !ok {
		return res
	}

	if reason == "" {
		reason = "city-wide announcement"
	}
	if !d.funds.AuthorizeAndDebit(d.announcementCost, reason) {
		return refused
	}

	if err := d.world.BroadcastToPopulation(ctx, announcementBanner+content); err != nil {
		zap.L().Error("dispatch: announcement broadcast failed", zap.Error(err))
		return Result{Success: false, Reason: "Announcement delivery failed after payment."}
	}

	zap.L().Info("dispatch: announcement made", zap.Int64("cost", d.announcementCost))
	return Result{Success: true, Reason: "You have made an announcement."}
}

// RecordCitizenLine appends an incoming citizen utterance to that
// citizen's conversation log.
func (d *Dispatcher) RecordCitizenLine(id model.CitizenID, line string) {
	d.appendChat(id, line)
}

// ChatHistory returns the conversation log for one citizen.
func (d *Dispatcher) ChatHistory(id model.CitizenID) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chats[id]
}

// ChatHistories returns a copy of every conversation log.
func (d *Dispatcher) ChatHistories() map[model.CitizenID]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[model.CitizenID]string, len(d.chats))
	for id, h := range d.chats {
		out[id] = h
	}
	return out
}

func (d *Dispatcher) appendChat(id model.CitizenID, line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h, ok := d.chats[id]; ok {
		d.chats[id] = h + "\n" + line
	} else {
		d.chats[id] = line
	}
}

// audit probes the content and applies the configured thresholds. The
// refusal Result is only meaningful when ok is false.
func (d *Dispatcher) audit(ctx context.Context, content string, ch model.Channel) (Result, bool) {
	score := d.auditor.Probe(ctx, content, ch)
	if score.Credibility < d.minCredibility || score.Reasonableness < d.minReasonableness {
		return Result{
			Success: false,
			Reason: fmt.Sprintf(
				"Content rejected by audit: credibility %d, reasonableness %d.",
				score.Credibility, score.Reasonableness,
			),
		}, false
	}
	return Result{}, true
}
