// Package world defines the collaborator boundary the orchestrator senses
// and acts through. Everything behind these interfaces — population data,
// geography, message transport — belongs to the hosting simulation.
package world

import (
	"context"

	"github.com/sells-group/ambassador/internal/model"
)

// Clock supplies the simulation's notion of current time.
type Clock interface {
	CurrentTime(ctx context.Context) (string, error)
}

// Sensor reads population and geography data. A nil or empty id list
// requests every known record. Unknown ids are omitted from the result
// rather than reported as errors.
type Sensor interface {
	Citizens(ctx context.Context, ids []model.CitizenID) (map[model.CitizenID]model.Citizen, error)
	Areas(ctx context.Context, ids []model.AreaID) (map[model.AreaID]model.Area, error)
	ChatHistory(ctx context.Context, ids []model.CitizenID) (map[model.CitizenID]string, error)
}

// Delivery transports outreach content to its targets.
type Delivery interface {
	DeliverToCitizen(ctx context.Context, id model.CitizenID, content string) error
	RegisterAreaContent(ctx context.Context, ids []model.AreaID, content string) error
	BroadcastToPopulation(ctx context.Context, content string) error
}

// World bundles the full collaborator surface.
type World interface {
	Clock
	Sensor
	Delivery
}
