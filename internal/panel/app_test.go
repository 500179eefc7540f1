package panel

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/openkairo/growdeck/internal/growbox"
	"github.com/openkairo/growdeck/internal/hass"
)

type fakeBackend struct {
	sig        chan struct{}
	states     map[string]*hass.State
	updateFunc     func(entryID string, patch map[string]any) (map[string]any, error)
	updates        []map[string]any
	updatedEntries []string
	toggled    []string
	events     []hass.Event
	eventsErr  error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{sig: make(chan struct{}, 1)}
}

func (f *fakeBackend) ListDevices(ctx context.Context) ([]hass.Device, error)   { return nil, nil }
func (f *fakeBackend) ListEntities(ctx context.Context) ([]hass.Entity, error)  { return nil, nil }
func (f *fakeBackend) ListConfigEntries(ctx context.Context, domain string) ([]hass.ConfigEntry, error) {
	return nil, nil
}
func (f *fakeBackend) GetConfig(ctx context.Context, entryID string) (map[string]any, error) {
	return nil, nil
}

func (f *fakeBackend) UpdateConfig(ctx context.Context, entryID string, patch map[string]any) (map[string]any, error) {
	f.updates = append(f.updates, patch)
	f.updatedEntries = append(f.updatedEntries, entryID)
	if f.updateFunc != nil {
		return f.updateFunc(entryID, patch)
	}
	return patch, nil
}

func (f *fakeBackend) UploadImage(ctx context.Context, deviceID, entryID string, data []byte) (string, error) {
	return "1", nil
}

func (f *fakeBackend) Events(ctx context.Context, start time.Time, entityIDs []string) ([]hass.Event, error) {
	return f.events, f.eventsErr
}

func (f *fakeBackend) Toggle(ctx context.Context, entityID string) error {
	f.toggled = append(f.toggled, entityID)
	return nil
}

func (f *fakeBackend) StateOf(entityID string) *hass.State { return f.states[entityID] }
func (f *fakeBackend) Signal() <-chan struct{}             { return f.sig }

func testVM() *growbox.ViewModel {
	return &growbox.ViewModel{
		DeviceID: "dev1",
		Name:     "Tent A",
		EntryID:  "entry1",
		Options: growbox.Options{
			growbox.OptCurrentPhase: "vegetative",
			growbox.OptTempSensor:   "sensor.tent_temp",
			growbox.OptTargetTemp:   24.0,
		},
		Refs: growbox.EntityRefs{Master: "switch.tent_master"},
	}
}

// apply runs one Update step and returns the concrete model.
func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	nm, cmd := m.Update(msg)
	return nm.(Model), cmd
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// bootModel builds a panel model with one chamber already loaded.
func bootModel(t *testing.T, fake *fakeBackend) Model {
	t.Helper()
	m := New(fake, zap.NewNop())
	m.Width = 100
	m.Height = 40
	m, _ = apply(t, m, viewModelsMsg{seq: 0, vms: []*growbox.ViewModel{testVM()}})
	return m
}

func TestFormSurvivesBackgroundRefresh(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('2'))
	if m.tab != TabSettings || m.settings == nil {
		t.Fatalf("expected mounted settings form, got tab %v", m.tab)
	}

	m, _ = apply(t, m, keyRune('X'))
	want := "sensor.tent_tempX"
	if got := m.settings.fields[0].input.Value(); got != want {
		t.Fatalf("typed value = %q, want %q", got, want)
	}

	// Focus the second field, then let a refresh signal and a fresh
	// fetch result land.
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = apply(t, m, refreshSignalMsg{})
	m, _ = apply(t, m, viewModelsMsg{seq: m.fetchSeq, vms: []*growbox.ViewModel{testVM()}})

	if got := m.settings.fields[0].input.Value(); got != want {
		t.Errorf("value after refresh = %q, want %q", got, want)
	}
	if m.settings.focus != 1 {
		t.Errorf("focus after refresh = %d, want 1", m.settings.focus)
	}
}

func TestDraftSurvivesTabRoundTrips(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('2'))
	m, _ = apply(t, m, keyRune('X'))

	if v, ok := m.drafts.Get("entry1", growbox.OptTempSensor); !ok || v != "sensor.tent_tempX" {
		t.Fatalf("draft = %q, %v", v, ok)
	}

	for i := 0; i < 2; i++ {
		m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
		m, _ = apply(t, m, keyRune('2'))
	}

	if got := m.settings.fields[0].input.Value(); got != "sensor.tent_tempX" {
		t.Errorf("re-mounted form seeded with %q, want draft value", got)
	}
}

func TestStaleFetchResultDiscarded(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('r')) // seq 1
	m, _ = apply(t, m, keyRune('r')) // seq 2

	renamed := testVM()
	renamed.Name = "Stale"
	m, _ = apply(t, m, viewModelsMsg{seq: 1, vms: []*growbox.ViewModel{renamed}})
	if m.vms[0].Name != "Tent A" {
		t.Fatalf("stale result applied: %q", m.vms[0].Name)
	}
	if !m.loading {
		t.Error("stale result cleared loading")
	}

	fresh := testVM()
	fresh.Name = "Fresh"
	m, _ = apply(t, m, viewModelsMsg{seq: 2, vms: []*growbox.ViewModel{fresh}})
	if m.vms[0].Name != "Fresh" || m.loading {
		t.Errorf("latest result not applied: %q loading=%v", m.vms[0].Name, m.loading)
	}
}

func TestSaveMergesAppliedKeysAndClearsDraft(t *testing.T) {
	fake := newFakeBackend()
	fake.updateFunc = func(entryID string, patch map[string]any) (map[string]any, error) {
		return map[string]any{growbox.OptTempSensor: patch[growbox.OptTempSensor]}, nil
	}
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('2'))
	m, _ = apply(t, m, keyRune('X'))

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.saving || cmd == nil {
		t.Fatal("save did not start")
	}
	m, _ = apply(t, m, cmd())

	if len(fake.updates) != 1 {
		t.Fatalf("updates sent = %d", len(fake.updates))
	}
	if got := fake.updates[0][growbox.OptTempSensor]; got != "sensor.tent_tempX" {
		t.Errorf("patched value = %v", got)
	}

	vm := m.vms[0]
	if got := vm.Options.String(growbox.OptTempSensor, ""); got != "sensor.tent_tempX" {
		t.Errorf("option after save = %q", got)
	}
	// Only the applied key merges back
	if got := vm.Options.Float(growbox.OptTargetTemp, 0); got != 24.0 {
		t.Errorf("untouched option changed: %v", got)
	}
	if m.drafts.Has("entry1") {
		t.Error("draft not cleared after save")
	}
	if m.toast == "" {
		t.Error("no confirmation toast")
	}
}

func TestSaveTargetsMountedFormEntry(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('2'))
	m, _ = apply(t, m, keyRune('X'))

	// A refresh lands a new chamber that sorts first, shifting the
	// selection index onto it while the form stays mounted.
	other := &growbox.ViewModel{DeviceID: "dev0", Name: "Aardvark", EntryID: "entry0"}
	m, _ = apply(t, m, viewModelsMsg{seq: m.fetchSeq, vms: []*growbox.ViewModel{other, testVM()}})
	if m.selectedVM().EntryID != "entry0" {
		t.Fatalf("selection = %s, expected the list to shift", m.selectedVM().EntryID)
	}

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("save did not start")
	}
	apply(t, m, cmd())

	if len(fake.updatedEntries) != 1 || fake.updatedEntries[0] != "entry1" {
		t.Fatalf("patch sent to %v, want the form's own entry", fake.updatedEntries)
	}
	if got := fake.updates[0][growbox.OptTempSensor]; got != "sensor.tent_tempX" {
		t.Errorf("patched value = %v", got)
	}
}

func TestFailedSaveKeepsDraftAndInput(t *testing.T) {
	fake := newFakeBackend()
	fake.updateFunc = func(string, map[string]any) (map[string]any, error) {
		return nil, errors.New("config entry locked")
	}
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('2'))
	m, _ = apply(t, m, keyRune('X'))
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = apply(t, m, cmd())

	if m.errLine == "" {
		t.Error("failure not surfaced")
	}
	if !m.drafts.Has("entry1") {
		t.Error("draft dropped on failed save")
	}
	if got := m.settings.fields[0].input.Value(); got != "sensor.tent_tempX" {
		t.Errorf("input reset on failed save: %q", got)
	}
	if got := m.vms[0].Options.String(growbox.OptTempSensor, ""); got != "sensor.tent_temp" {
		t.Errorf("committed option changed on failed save: %q", got)
	}
}

func TestPhaseChangeCancelKeepsPhase(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('3'))
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	if !m.showPhasePicker {
		t.Fatal("picker did not open")
	}
	if growbox.Phases[m.phaseCursor] != growbox.PhaseVegetative {
		t.Errorf("picker cursor = %v, want committed phase", growbox.Phases[m.phaseCursor])
	}

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.showPhaseConfirm || m.confirmCursor != 1 {
		t.Fatal("confirm dialog should open on Cancel")
	}

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.showPhaseConfirm {
		t.Fatal("cancel issued a command")
	}
	if m.vms[0].Phase() != growbox.PhaseVegetative {
		t.Errorf("phase changed on cancel: %v", m.vms[0].Phase())
	}
}

func TestPhaseChangeFailureKeepsPhase(t *testing.T) {
	fake := newFakeBackend()
	fake.updateFunc = func(string, map[string]any) (map[string]any, error) {
		return nil, errors.New("unreachable")
	}
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('3'))
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.phaseSaving {
		t.Fatal("confirm did not issue the phase command")
	}

	m, _ = apply(t, m, cmd())
	if m.errLine == "" || m.phaseSaving {
		t.Error("failure not surfaced")
	}
	if m.vms[0].Phase() != growbox.PhaseVegetative {
		t.Errorf("phase changed on failure: %v", m.vms[0].Phase())
	}
}

func TestPhaseChangeSuccessRefetches(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	m, _ = apply(t, m, keyRune('3'))
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	seqBefore := m.fetchSeq
	m, _ = apply(t, m, cmd())
	if m.vms[0].Phase() != growbox.PhaseFlowering {
		t.Errorf("phase = %v, want flowering", m.vms[0].Phase())
	}
	if m.fetchSeq != seqBefore+1 {
		t.Error("success did not trigger a reconciling fetch")
	}
}

func TestToastSeqGuard(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	m.showToast("first")
	m.showToast("second")

	m, _ = apply(t, m, toastExpiredMsg{seq: 1})
	if m.toast != "second" {
		t.Fatalf("old timer cleared newer toast: %q", m.toast)
	}
	m, _ = apply(t, m, toastExpiredMsg{seq: 2})
	if m.toast != "" {
		t.Errorf("toast not cleared: %q", m.toast)
	}
}

func TestFirstSignalBootstrapsOnlyOnce(t *testing.T) {
	fake := newFakeBackend()
	m := New(fake, zap.NewNop())

	m, _ = apply(t, m, refreshSignalMsg{})
	if !m.bootstrapped || m.fetchSeq != 1 {
		t.Fatalf("bootstrap fetch not issued: seq=%d", m.fetchSeq)
	}

	m, _ = apply(t, m, refreshSignalMsg{})
	if m.fetchSeq != 1 {
		t.Errorf("later signal issued a fetch: seq=%d", m.fetchSeq)
	}
}

func TestOverviewToggleKeys(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	_, cmd := apply(t, m, keyRune('m'))
	if cmd == nil {
		t.Fatal("master toggle issued no command")
	}
	cmd()
	if len(fake.toggled) != 1 || fake.toggled[0] != "switch.tent_master" {
		t.Errorf("toggled = %v", fake.toggled)
	}
}

func TestLogFilters(t *testing.T) {
	fake := newFakeBackend()
	m := bootModel(t, fake)

	vm := m.vms[0]
	vm.Options = vm.Options.Merge(map[string]any{growbox.OptLightEntity: "switch.tent_light"})

	m.logEntries = []growbox.LogEntry{
		{Event: hass.Event{EntityID: "switch.tent_light"}, Kind: growbox.EventLight},
		{Event: hass.Event{EntityID: "switch.other_pump"}, Kind: growbox.EventPump},
	}

	if got := len(m.filteredLogEntries()); got != 2 {
		t.Fatalf("unfiltered = %d", got)
	}

	m.logKind = growbox.EventPump
	if got := m.filteredLogEntries(); len(got) != 1 || got[0].Kind != growbox.EventPump {
		t.Errorf("kind filter = %v", got)
	}

	m.logKind = ""
	m.logDevice = 0
	got := m.filteredLogEntries()
	if len(got) != 1 || got[0].Event.EntityID != "switch.tent_light" {
		t.Errorf("device filter = %v", got)
	}
}
