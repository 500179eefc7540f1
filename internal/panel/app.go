package panel

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/openkairo/growdeck/internal/growbox"
	"github.com/openkairo/growdeck/internal/logging"
)

// fetchTimeout bounds one full fetch cycle.
const fetchTimeout = 30 * time.Second

// commandTimeout bounds a single save/toggle/upload round-trip.
const commandTimeout = 15 * time.Second

// Init arms the live-state listener. Construction performs no fetch;
// the first refresh signal bootstraps the panel.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listenSignalCmd(), m.Spinner.Tick)
}

// listenSignalCmd waits for one coalesced state-change tick.
func (m Model) listenSignalCmd() tea.Cmd {
	sig := m.backend.Signal()
	return func() tea.Msg {
		<-sig
		return refreshSignalMsg{}
	}
}

// fetchCmd runs one full fetch cycle under the given sequence number.
func (m Model) fetchCmd(seq uint64) tea.Cmd {
	backend := m.backend
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		start := time.Now()
		vms, err := growbox.BuildViewModels(ctx, backend, log)
		if err == nil {
			logging.LogRefresh(seq, len(vms), time.Since(start))
		}
		return viewModelsMsg{seq: seq, vms: vms, err: err}
	}
}

// startFetch issues a new fetch cycle with the next sequence number.
func (m *Model) startFetch() tea.Cmd {
	m.fetchSeq++
	m.loading = true
	return m.fetchCmd(m.fetchSeq)
}

// saveCmd sends a merge patch for one chamber's options.
func (m Model) saveCmd(entryID string, patch map[string]any) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		applied, err := backend.UpdateConfig(ctx, entryID, patch)
		return saveResultMsg{entryID: entryID, applied: applied, err: err}
	}
}

// phaseCmd commits a phase change for one chamber.
func (m Model) phaseCmd(entryID string, phase growbox.Phase) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		_, err := backend.UpdateConfig(ctx, entryID, map[string]any{
			growbox.OptCurrentPhase: string(phase),
		})
		return phaseResultMsg{entryID: entryID, phase: phase, err: err}
	}
}

// uploadCmd reads a local image file and pushes it to the chamber.
func (m Model) uploadCmd(deviceID, entryID, path string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return uploadResultMsg{deviceID: deviceID, entryID: entryID, err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		version, err := backend.UploadImage(ctx, deviceID, entryID, data)
		return uploadResultMsg{deviceID: deviceID, entryID: entryID, version: version, err: err}
	}
}

// eventsCmd queries the logbook over every tracked entity.
func (m Model) eventsCmd() tea.Cmd {
	backend := m.backend
	classify := m.classify
	var ids []string
	for _, vm := range m.vms {
		ids = append(ids, vm.TrackedEntities()...)
	}
	start := m.now().Add(-growbox.DefaultLogLookback)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		events, err := backend.Events(ctx, start, ids)
		if err != nil {
			return logEventsMsg{err: err}
		}
		return logEventsMsg{entries: growbox.FilterEvents(events, classify)}
	}
}

// toggleCmd fires a toggle without waiting for a refresh.
func (m Model) toggleCmd(entityID string) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return toggleResultMsg{entityID: entityID, err: backend.Toggle(ctx, entityID)}
	}
}

// toastCmd expires the toast carrying the given sequence.
func toastCmd(seq int) tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

// delayedRefetchCmd schedules the post-upload reconciliation fetch.
func delayedRefetchCmd() tea.Cmd {
	return tea.Tick(uploadRefetchDelay, func(time.Time) tea.Msg {
		return delayedRefetchMsg{}
	})
}

// showToast sets a transient confirmation and returns its expiry cmd.
func (m *Model) showToast(text string) tea.Cmd {
	m.toast = text
	m.toastSeq++
	return toastCmd(m.toastSeq)
}

// Update handles all panel messages run-to-completion.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case refreshSignalMsg:
		rearm := m.listenSignalCmd()
		if !m.bootstrapped {
			m.bootstrapped = true
			return m, tea.Batch(rearm, m.startFetch())
		}
		// Later signals only re-render: live readouts come from the
		// state cache at View time, and mounted forms stay untouched.
		return m, rearm

	case viewModelsMsg:
		return m.applyViewModels(msg)

	case saveResultMsg:
		return m.applySaveResult(msg)

	case phaseResultMsg:
		m.phaseSaving = false
		if msg.err != nil {
			m.errLine = fmt.Sprintf("Phase change failed: %v", msg.err)
			return m, nil
		}
		if vm := m.vmByEntry(msg.entryID); vm != nil {
			vm.Options = vm.Options.Merge(map[string]any{
				growbox.OptCurrentPhase: string(msg.phase),
			})
		}
		m.errLine = ""
		toast := m.showToast("Phase changed to " + msg.phase.Label())
		return m, tea.Batch(toast, m.startFetch())

	case uploadResultMsg:
		m.uploading = false
		if msg.err != nil {
			m.errLine = fmt.Sprintf("Upload failed: %v", msg.err)
			return m, nil
		}
		if vm := m.vmByEntry(msg.entryID); vm != nil {
			vm.Options = vm.Options.Merge(map[string]any{
				growbox.OptImageVersion: msg.version,
			})
		}
		m.errLine = ""
		return m, tea.Batch(m.showToast("Photo uploaded"), delayedRefetchCmd())

	case delayedRefetchMsg:
		return m, m.startFetch()

	case logEventsMsg:
		m.logLoading = false
		m.logErr = msg.err
		if msg.err == nil {
			m.logEntries = msg.entries
		}
		return m, nil

	case toggleResultMsg:
		if msg.err != nil {
			m.errLine = fmt.Sprintf("Toggle failed: %v", msg.err)
			m.log.Warn("Toggle failed",
				zap.String("entity_id", msg.entityID),
				zap.Error(msg.err))
		}
		return m, nil

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applyViewModels installs a completed fetch cycle. Stale sequence
// numbers are dropped; mounted forms are never rebuilt here.
func (m Model) applyViewModels(msg viewModelsMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.fetchSeq {
		m.log.Debug("Dropping stale fetch result",
			zap.Uint64("got", msg.seq),
			zap.Uint64("want", m.fetchSeq))
		return m, nil
	}
	m.loading = false

	if msg.err != nil {
		m.errLine = fmt.Sprintf("Refresh failed: %v", msg.err)
		return m, nil
	}

	m.vms = msg.vms
	if m.selected >= len(m.vms) {
		m.selected = 0
	}
	m.errLine = ""
	return m, nil
}

// applySaveResult finishes a save: on success only the returned keys
// are merged into the chamber's options and the entry draft is dropped
// in one step; on failure everything stays as it was.
func (m Model) applySaveResult(msg saveResultMsg) (tea.Model, tea.Cmd) {
	m.saving = false
	if msg.err != nil {
		m.errLine = fmt.Sprintf("Save failed: %v", msg.err)
		return m, nil
	}

	if vm := m.vmByEntry(msg.entryID); vm != nil {
		vm.Options = vm.Options.Merge(msg.applied)
	}
	m.drafts.Clear(msg.entryID)
	m.errLine = ""
	return m, m.showToast("Saved")
}

// handleKey routes key input by modal state first, then by tab.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch {
	case m.showPhaseConfirm:
		return m.updatePhaseConfirm(msg)
	case m.showPhasePicker:
		return m.updatePhasePicker(msg)
	case m.showUploadPrompt:
		return m.updateUploadPrompt(msg)
	}

	if m.tab.Editable() {
		return m.handleEditTabKey(msg)
	}
	return m.handleReadTabKey(msg)
}

// handleReadTabKey handles keys on Overview, Log, and Info.
func (m Model) handleReadTabKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "tab":
		return m.switchTab(Tabs[(int(m.tab)+1)%len(Tabs)])
	case "shift+tab":
		return m.switchTab(Tabs[(int(m.tab)+len(Tabs)-1)%len(Tabs)])
	case "1", "2", "3", "4", "5":
		return m.switchTab(Tab(int(msg.String()[0] - '1')))

	case "left", "h":
		return m.switchDevice(-1)
	case "right", "l":
		return m.switchDevice(1)

	case "r":
		if m.tab == TabLog {
			m.logLoading = true
			return m, m.eventsCmd()
		}
		return m, m.startFetch()
	}

	switch m.tab {
	case TabOverview:
		return m.handleOverviewKey(msg)
	case TabLog:
		return m.handleLogKey(msg)
	}
	return m, nil
}

// handleEditTabKey handles keys on Settings and Phases, where a form
// owns most input.
func (m Model) handleEditTabKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.activeForm()
	if f == nil {
		// No chamber yet; treat the tab as read-only
		return m.handleReadTabKey(msg)
	}

	switch msg.String() {
	case "esc":
		return m.switchTab(TabOverview)

	case "tab", "down", "enter":
		f.Next()
		return m, nil
	case "shift+tab", "up":
		f.Prev()
		return m, nil

	case "ctrl+s":
		return m.startSave()

	case "ctrl+p":
		if m.tab == TabPhases {
			return m.openPhasePicker()
		}
	}

	// Everything else belongs to the focused input; edits write
	// through to the draft store.
	cmd := f.Update(msg, m.drafts)
	return m, cmd
}

// activeForm returns the mounted form for the current tab, if any.
func (m *Model) activeForm() *form {
	switch m.tab {
	case TabSettings:
		return m.settings
	case TabPhases:
		return m.phases
	}
	return nil
}

// switchTab rebuilds the target tab's content. Forms are re-seeded
// from draft-over-options; the draft store itself is never touched.
func (m Model) switchTab(t Tab) (tea.Model, tea.Cmd) {
	m.tab = t
	vm := m.selectedVM()

	switch t {
	case TabSettings:
		if vm != nil {
			m.settings = newSettingsForm(vm, m.drafts)
		}
	case TabPhases:
		if vm != nil {
			m.phases = newPhasesForm(vm, m.drafts)
		}
	case TabLog:
		if len(m.vms) > 0 {
			m.logLoading = true
			return m, m.eventsCmd()
		}
	}
	return m, nil
}

// switchDevice cycles the selected chamber and remounts any forms.
func (m Model) switchDevice(delta int) (tea.Model, tea.Cmd) {
	if len(m.vms) < 2 {
		return m, nil
	}
	m.selected = (m.selected + delta + len(m.vms)) % len(m.vms)
	if m.tab.Editable() {
		return m.switchTab(m.tab)
	}
	return m, nil
}

// startSave assembles the merge patch for the chamber the mounted form
// belongs to: the draft snapshot overlaid with the form's live input
// values. The form's own entry id is authoritative; a refetch can
// reorder the chamber list under a mounted form without remounting it,
// so the selection index must not pick the target.
func (m Model) startSave() (tea.Model, tea.Cmd) {
	f := m.activeForm()
	if f == nil || m.saving {
		return m, nil
	}
	if m.vmByEntry(f.entryID) == nil {
		return m, nil
	}

	patch := make(map[string]any)
	for k, v := range m.drafts.Snapshot(f.entryID) {
		patch[k] = v
	}
	for k, v := range f.Values() {
		patch[k] = v
	}
	if len(patch) == 0 {
		return m, nil
	}

	m.saving = true
	m.errLine = ""
	return m, m.saveCmd(f.entryID, patch)
}

// handleOverviewKey handles the Overview tab's action keys.
func (m Model) handleOverviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vm := m.selectedVM()
	if vm == nil {
		return m, nil
	}

	switch msg.String() {
	case "m":
		if vm.Refs.Master != "" {
			return m, m.toggleCmd(vm.Refs.Master)
		}
	case "w":
		if pump := vm.Options.String(growbox.OptPumpEntity, vm.Refs.Pump); pump != "" {
			return m, m.toggleCmd(pump)
		}
	case "u":
		m.showUploadPrompt = true
		m.uploadInput.SetValue("")
		m.uploadInput.Focus()
		return m, nil
	}
	return m, nil
}

// handleLogKey cycles the Log tab's client-side filters.
func (m Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "d":
		m.logDevice++
		if m.logDevice >= len(m.vms) {
			m.logDevice = -1
		}
	case "f":
		order := []growbox.EventKind{"", growbox.EventLight, growbox.EventPump, growbox.EventFan, growbox.EventPhase}
		for i, kind := range order {
			if kind == m.logKind {
				m.logKind = order[(i+1)%len(order)]
				break
			}
		}
	}
	return m, nil
}

// openPhasePicker opens the phase selection modal, cursor on the
// committed phase.
func (m Model) openPhasePicker() (tea.Model, tea.Cmd) {
	vm := m.selectedVM()
	if vm == nil || m.phaseSaving {
		return m, nil
	}
	m.showPhasePicker = true
	m.phaseCursor = 0
	for i, p := range growbox.Phases {
		if p == vm.Phase() {
			m.phaseCursor = i
			break
		}
	}
	return m, nil
}

// updatePhasePicker handles the phase list modal.
func (m Model) updatePhasePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showPhasePicker = false
	case "up", "k":
		m.phaseCursor = (m.phaseCursor + len(growbox.Phases) - 1) % len(growbox.Phases)
	case "down", "j":
		m.phaseCursor = (m.phaseCursor + 1) % len(growbox.Phases)
	case "enter":
		vm := m.selectedVM()
		picked := growbox.Phases[m.phaseCursor]
		m.showPhasePicker = false
		if vm != nil && picked != vm.Phase() {
			m.pendingPhase = picked
			m.confirmCursor = 1 // Default to Cancel
			m.showPhaseConfirm = true
		}
	}
	return m, nil
}

// updatePhaseConfirm handles the destructive-change confirmation.
// Cancel or failure leaves the committed phase in place.
func (m Model) updatePhaseConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showPhaseConfirm = false
	case "left", "h":
		m.confirmCursor = 0
	case "right", "l":
		m.confirmCursor = 1
	case "enter", " ":
		m.showPhaseConfirm = false
		if m.confirmCursor == 0 {
			vm := m.selectedVM()
			if vm != nil {
				m.phaseSaving = true
				return m, m.phaseCmd(vm.EntryID, m.pendingPhase)
			}
		}
	}
	return m, nil
}

// updateUploadPrompt handles the image path prompt.
func (m Model) updateUploadPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showUploadPrompt = false
		return m, nil
	case "enter":
		path := m.uploadInput.Value()
		m.showUploadPrompt = false
		vm := m.selectedVM()
		if path == "" || vm == nil {
			return m, nil
		}
		m.uploading = true
		return m, m.uploadCmd(vm.DeviceID, vm.EntryID, path)
	}

	var cmd tea.Cmd
	m.uploadInput, cmd = m.uploadInput.Update(msg)
	return m, cmd
}
