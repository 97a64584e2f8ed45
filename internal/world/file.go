package world

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ambassador/internal/model"
)

// Snapshot is the on-disk population format consumed by the dry-run
// world.
type Snapshot struct {
	Citizens []model.Citizen `json:"citizens"`
	Areas    []model.Area    `json:"areas"`
}

// LoadFile reads a population snapshot and builds a MemoryWorld from it.
func LoadFile(path string) (*MemoryWorld, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "world: read snapshot")
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, eris.Wrap(err, "world: decode snapshot")
	}
	if len(snap.Citizens) == 0 {
		return nil, eris.New("world: snapshot has no citizens")
	}

	return NewMemoryWorld(snap.Citizens, snap.Areas), nil
}
