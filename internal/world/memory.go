package world

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/ambassador/internal/model"
)

// MemoryWorld is an in-process World backed by maps. It serves tests and
// the dry-run mode of the serve command; a production deployment replaces
// it with a client for the hosting simulation.
type MemoryWorld struct {
	mu       sync.RWMutex
	citizens map[model.CitizenID]model.Citizen
	areas    map[model.AreaID]model.Area
	chats    map[model.CitizenID]string

	// Delivered and AreaContent record outbound traffic for inspection.
	delivered   map[model.CitizenID][]string
	areaContent map[model.AreaID][]string
	broadcasts  []string
}

// NewMemoryWorld creates a MemoryWorld seeded with the given population.
func NewMemoryWorld(citizens []model.Citizen, areas []model.Area) *MemoryWorld {
	w := &MemoryWorld{
		citizens:    make(map[model.CitizenID]model.Citizen, len(citizens)),
		areas:       make(map[model.AreaID]model.Area, len(areas)),
		chats:       make(map[model.CitizenID]string),
		delivered:   make(map[model.CitizenID][]string),
		areaContent: make(map[model.AreaID][]string),
	}
	for _, c := range citizens {
		w.citizens[c.ID] = c
	}
	for _, a := range areas {
		w.areas[a.ID] = a
	}
	return w
}

// CurrentTime returns wall-clock time; the hosting simulation would
// report simulated time instead.
func (w *MemoryWorld) CurrentTime(_ context.Context) (string, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func (w *MemoryWorld) Citizens(_ context.Context, ids []model.CitizenID) (map[model.CitizenID]model.Citizen, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[model.CitizenID]model.Citizen)
	if len(ids) == 0 {
		for id, c := range w.citizens {
			out[id] = c
		}
		return out, nil
	}
	for _, id := range ids {
		if c, ok := w.citizens[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (w *MemoryWorld) Areas(_ context.Context, ids []model.AreaID) (map[model.AreaID]model.Area, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[model.AreaID]model.Area)
	if len(ids) == 0 {
		for id, a := range w.areas {
			out[id] = a
		}
		return out, nil
	}
	for _, id := range ids {
		if a, ok := w.areas[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (w *MemoryWorld) ChatHistory(_ context.Context, ids []model.CitizenID) (map[model.CitizenID]string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[model.CitizenID]string)
	if len(ids) == 0 {
		for id, h := range w.chats {
			out[id] = h
		}
		return out, nil
	}
	for _, id := range ids {
		if h, ok := w.chats[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

func (w *MemoryWorld) DeliverToCitizen(_ context.Context, id model.CitizenID, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.delivered[id] = append(w.delivered[id], content)
	return nil
}

func (w *MemoryWorld) RegisterAreaContent(_ context.Context, ids []model.AreaID, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, id := range ids {
		w.areaContent[id] = append(w.areaContent[id], content)
	}
	return nil
}

func (w *MemoryWorld) BroadcastToPopulation(_ context.Context, content string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.broadcasts = append(w.broadcasts, content)
	for id := range w.citizens {
		w.delivered[id] = append(w.delivered[id], content)
	}
	return nil
}

// Delivered returns the messages delivered to a citizen so far.
func (w *MemoryWorld) Delivered(id model.CitizenID) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.delivered[id]))
	copy(out, w.delivered[id])
	return out
}

// AreaContent returns the content registered against an area so far.
func (w *MemoryWorld) AreaContent(id model.AreaID) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.areaContent[id]))
	copy(out, w.areaContent[id])
	return out
}

// Broadcasts returns every population-wide broadcast so far.
func (w *MemoryWorld) Broadcasts() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.broadcasts))
	copy(out, w.broadcasts)
	return out
}
