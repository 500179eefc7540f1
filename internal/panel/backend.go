package panel

import (
	"context"
	"time"

	"github.com/openkairo/growdeck/internal/growbox"
	"github.com/openkairo/growdeck/internal/hass"
)

// Backend is the surface the panel needs from the Home Assistant client.
// *hass.Client satisfies it; tests substitute a fake.
type Backend interface {
	growbox.Source

	UpdateConfig(ctx context.Context, entryID string, patch map[string]any) (map[string]any, error)
	UploadImage(ctx context.Context, deviceID, entryID string, data []byte) (string, error)
	Events(ctx context.Context, start time.Time, entityIDs []string) ([]hass.Event, error)
	Toggle(ctx context.Context, entityID string) error
	StateOf(entityID string) *hass.State
	Signal() <-chan struct{}
}
