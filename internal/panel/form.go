package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/openkairo/growdeck/internal/growbox"
)

// formField is one editable option backed by a textinput.
type formField struct {
	key         string
	label       string
	placeholder string
	input       textinput.Model
}

// form is a mounted column of option inputs for one chamber. It is
// built when its tab is entered (or the chamber selection changes) and
// deliberately NOT rebuilt on background refreshes, so in-progress
// edits, cursor position, and focus survive live-state churn.
type form struct {
	entryID string
	fields  []formField
	focus   int
}

// settingsFieldSpecs is the Settings tab field set.
var settingsFieldSpecs = []struct {
	key         string
	label       string
	placeholder string
	fallback    string
}{
	{growbox.OptTempSensor, "Temperature sensor", "sensor.tent_temp", ""},
	{growbox.OptHumiditySensor, "Humidity sensor", "sensor.tent_humidity", ""},
	{growbox.OptMoistureSensor, "Soil moisture sensor", "sensor.tent_moisture", ""},
	{growbox.OptLightEntity, "Light entity", "switch.tent_light", ""},
	{growbox.OptFanEntity, "Fan entity", "switch.tent_fan", ""},
	{growbox.OptPumpEntity, "Pump entity", "switch.tent_pump", ""},
	{growbox.OptCameraEntity, "Camera entity", "camera.tent", ""},
	{growbox.OptTargetTemp, "Target temperature (°C)", "24", fmt.Sprintf("%g", growbox.DefaultTargetTemp)},
	{growbox.OptMaxHumidity, "Max humidity (%)", "60", fmt.Sprintf("%g", growbox.DefaultMaxHumidity)},
	{growbox.OptTargetMoisture, "Target moisture (%)", "40", fmt.Sprintf("%g", growbox.DefaultTargetMoisture)},
	{growbox.OptPumpDuration, "Pump duration (s)", "30", fmt.Sprintf("%d", growbox.DefaultPumpDuration)},
	{growbox.OptLightStartHour, "Light start hour (0-23)", "18", fmt.Sprintf("%d", growbox.DefaultLightStartHour)},
	{growbox.OptPhaseStartDate, "Phase start date", "2026-03-01", ""},
}

// newSettingsForm mounts the Settings form for a chamber, seeding each
// input with the effective value: draft over committed option over
// default.
func newSettingsForm(vm *growbox.ViewModel, drafts *growbox.DraftStore) *form {
	f := &form{entryID: vm.EntryID}
	for _, spec := range settingsFieldSpecs {
		in := textinput.New()
		in.Placeholder = spec.placeholder
		in.CharLimit = 120
		in.Width = 40
		in.SetValue(drafts.Effective(vm, spec.key, spec.fallback))
		f.fields = append(f.fields, formField{
			key:         spec.key,
			label:       spec.label,
			placeholder: spec.placeholder,
			input:       in,
		})
	}
	f.fields[0].input.Focus()
	return f
}

// newPhasesForm mounts the Phases tab form: one light-hours input per
// phase, seeded like the settings form.
func newPhasesForm(vm *growbox.ViewModel, drafts *growbox.DraftStore) *form {
	f := &form{entryID: vm.EntryID}
	for _, phase := range growbox.Phases {
		in := textinput.New()
		in.Placeholder = fmt.Sprintf("%d", growbox.DefaultLightHours(phase))
		in.CharLimit = 4
		in.Width = 8
		in.SetValue(drafts.Effective(vm, phase.HoursOptionKey(), ""))
		f.fields = append(f.fields, formField{
			key:         phase.HoursOptionKey(),
			label:       phase.Label() + " light hours",
			placeholder: in.Placeholder,
			input:       in,
		})
	}
	f.fields[0].input.Focus()
	return f
}

// Next moves focus to the following field, wrapping at the end.
func (f *form) Next() {
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + 1) % len(f.fields)
	f.fields[f.focus].input.Focus()
}

// Prev moves focus to the preceding field, wrapping at the start.
func (f *form) Prev() {
	f.fields[f.focus].input.Blur()
	f.focus--
	if f.focus < 0 {
		f.focus = len(f.fields) - 1
	}
	f.fields[f.focus].input.Focus()
}

// Update routes a message to the focused input and writes the edit
// through to the draft store.
func (f *form) Update(msg tea.Msg, drafts *growbox.DraftStore) tea.Cmd {
	before := f.fields[f.focus].input.Value()
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	after := f.fields[f.focus].input.Value()
	if after != before {
		drafts.Set(f.entryID, f.fields[f.focus].key, after)
	}
	return cmd
}

// Values returns the live value of every mounted input.
func (f *form) Values() map[string]string {
	values := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		values[field.key] = field.input.Value()
	}
	return values
}

// View renders the form rows; drafted fields carry a pending marker.
func (f *form) View(drafts *growbox.DraftStore) string {
	var b strings.Builder
	for i, field := range f.fields {
		label := LabelStyle.Render(fmt.Sprintf("%-26s", field.label))
		if i == f.focus {
			label = FocusedFieldStyle.Render(fmt.Sprintf("%-26s", field.label))
		}

		marker := "  "
		if _, drafted := drafts.Get(f.entryID, field.key); drafted {
			marker = DraftMarkerStyle.Render("* ")
		}

		b.WriteString(marker + label + " " + field.input.View())
		b.WriteString("\n")
	}
	return b.String()
}
