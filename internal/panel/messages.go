package panel

import (
	"time"

	"github.com/openkairo/growdeck/internal/growbox"
)

// refreshSignalMsg is one coalesced tick from the live-state
// subscription. The first one after startup triggers the bootstrap
// fetch; later ones only cause a re-render.
type refreshSignalMsg struct{}

// viewModelsMsg carries the result of one full fetch cycle. seq is the
// fetch sequence number the cycle was issued with; stale results are
// discarded by the controller.
type viewModelsMsg struct {
	seq uint64
	vms []*growbox.ViewModel
	err error
}

// saveResultMsg carries the outcome of a config save. applied holds
// only the keys the server reports back.
type saveResultMsg struct {
	entryID string
	applied map[string]any
	err     error
}

// phaseResultMsg carries the outcome of a phase change commit.
type phaseResultMsg struct {
	entryID string
	phase   growbox.Phase
	err     error
}

// uploadResultMsg carries the outcome of an image upload.
type uploadResultMsg struct {
	deviceID string
	entryID  string
	version  string
	err      error
}

// logEventsMsg carries the logbook query result for the log tab.
type logEventsMsg struct {
	entries []growbox.LogEntry
	err     error
}

// toggleResultMsg reports a fire-and-forget toggle failure.
type toggleResultMsg struct {
	entityID string
	err      error
}

// toastExpiredMsg clears a transient toast. seq guards against an old
// timer clearing a newer toast.
type toastExpiredMsg struct {
	seq int
}

// delayedRefetchMsg triggers the follow-up fetch after an image upload.
type delayedRefetchMsg struct{}

// toastDuration is how long transient confirmations stay visible.
const toastDuration = 3 * time.Second

// uploadRefetchDelay gives the server time to process an uploaded image
// before the reconciling fetch.
const uploadRefetchDelay = time.Second
