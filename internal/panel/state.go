package panel

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"go.uber.org/zap"

	"github.com/openkairo/growdeck/internal/growbox"
)

// Tab identifies one of the panel's fixed tabs.
type Tab int

const (
	TabOverview Tab = iota
	TabSettings
	TabPhases
	TabLog
	TabInfo
)

// Tabs lists the tabs in display order.
var Tabs = []Tab{TabOverview, TabSettings, TabPhases, TabLog, TabInfo}

// Title returns the tab bar label.
func (t Tab) Title() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabSettings:
		return "Settings"
	case TabPhases:
		return "Phases"
	case TabLog:
		return "Log"
	case TabInfo:
		return "Info"
	}
	return "?"
}

// Editable reports whether the tab mounts form widgets that background
// refreshes must not rebuild.
func (t Tab) Editable() bool {
	return t == TabSettings || t == TabPhases
}

// keyMap defines the panel key bindings.
type keyMap struct {
	NextTab    key.Binding
	PrevDevice key.Binding
	NextDevice key.Binding
	Refresh    key.Binding
	Save       key.Binding
	Phase      key.Binding
	Quit       key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.NextDevice, k.Refresh, k.Save, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevDevice, k.NextDevice},
		{k.Refresh, k.Save, k.Phase, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		NextTab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab/1-5", "switch tab"),
		),
		PrevDevice: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/→", "switch chamber"),
		),
		NextDevice: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("", ""),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Phase: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "change phase"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the panel's single state struct: the reconciliation
// controller plus all tab/selection state. Everything external arrives
// as a tea.Msg and is handled run-to-completion; the tea.Cmd closures
// issued from Update are the only suspension points.
type Model struct {
	backend Backend
	log     *zap.Logger

	// UI dimensions
	Width  int
	Height int

	// Tab and chamber selection
	tab      Tab
	vms      []*growbox.ViewModel
	selected int

	// Unsaved edits, keyed by config entry
	drafts *growbox.DraftStore

	// Fetch cycle state. bootstrapped flips on the first refresh
	// signal; fetchSeq is the latest issued sequence number and any
	// response carrying an older one is dropped.
	bootstrapped bool
	fetchSeq     uint64
	loading      bool

	// Mounted forms (nil until their tab is entered)
	settings *form
	phases   *form

	// Phase change flow
	showPhasePicker  bool
	phaseCursor      int
	showPhaseConfirm bool
	pendingPhase     growbox.Phase
	confirmCursor    int
	phaseSaving      bool

	// Image upload flow
	showUploadPrompt bool
	uploadInput      textinput.Model
	uploading        bool

	// Save state and operator feedback
	saving   bool
	errLine  string
	toast    string
	toastSeq int

	// Log tab state
	logEntries []growbox.LogEntry
	logErr     error
	logLoading bool
	logDevice  int               // index into vms, -1 = all chambers
	logKind    growbox.EventKind // "" = all kinds
	classify   growbox.Classifier

	Spinner spinner.Model
	Help    help.Model
	Keys    keyMap

	// now is the clock used for derived status; tests pin it.
	now func() time.Time
}

// New creates the panel model. The backend must already be connected.
func New(backend Backend, log *zap.Logger) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	uploadInput := textinput.New()
	uploadInput.Placeholder = "/path/to/photo.jpg"
	uploadInput.CharLimit = 250
	uploadInput.Width = 50

	return Model{
		backend:     backend,
		log:         log,
		tab:         TabOverview,
		drafts:      growbox.NewDraftStore(),
		uploadInput: uploadInput,
		logDevice:   -1,
		classify:    growbox.ClassifyEvent,
		Spinner:     s,
		Help:        help.New(),
		Keys:        newKeyMap(),
		now:         time.Now,
	}
}

// selectedVM returns the currently selected chamber, nil when none.
func (m Model) selectedVM() *growbox.ViewModel {
	if len(m.vms) == 0 || m.selected < 0 || m.selected >= len(m.vms) {
		return nil
	}
	return m.vms[m.selected]
}

// vmByEntry finds a chamber by config entry id.
func (m Model) vmByEntry(entryID string) *growbox.ViewModel {
	for _, vm := range m.vms {
		if vm.EntryID == entryID {
			return vm
		}
	}
	return nil
}
