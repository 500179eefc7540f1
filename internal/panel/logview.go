package panel

import (
	"fmt"
	"strings"

	"github.com/openkairo/growdeck/internal/growbox"
)

// logPageSize caps the rows shown on the log tab.
const logPageSize = 30

// logView renders the event log tab with its client-side filters.
func (m Model) logView() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Event log"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Chamber: ") + ValueStyle.Render(m.logDeviceLabel()) +
		LabelStyle.Render("   Kind: ") + ValueStyle.Render(m.logKindLabel()) +
		SubtitleStyle.Render(fmt.Sprintf("   (last %dh)", int(growbox.DefaultLogLookback.Hours()))))
	b.WriteString("\n\n")

	switch {
	case m.logLoading:
		b.WriteString(SubtitleStyle.Render(m.Spinner.View() + " Loading events..."))
		return b.String()
	case m.logErr != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Could not load events: %v", m.logErr)))
		return b.String()
	}

	entries := m.filteredLogEntries()
	if len(entries) == 0 {
		b.WriteString(SubtitleStyle.Render("No matching events."))
		return b.String()
	}

	shown := entries
	if len(shown) > logPageSize {
		shown = shown[:logPageSize]
	}
	for _, entry := range shown {
		b.WriteString(m.logRow(entry))
	}
	if len(entries) > logPageSize {
		b.WriteString(SubtitleStyle.Render(fmt.Sprintf("... %d more", len(entries)-logPageSize)))
		b.WriteString("\n")
	}
	return b.String()
}

// filteredLogEntries applies the device and kind filters.
func (m Model) filteredLogEntries() []growbox.LogEntry {
	var tracked map[string]bool
	if m.logDevice >= 0 && m.logDevice < len(m.vms) {
		tracked = make(map[string]bool)
		for _, id := range m.vms[m.logDevice].TrackedEntities() {
			tracked[id] = true
		}
	}

	var out []growbox.LogEntry
	for _, entry := range m.logEntries {
		if tracked != nil && !tracked[entry.Event.EntityID] {
			continue
		}
		if m.logKind != "" && entry.Kind != m.logKind {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// logRow renders one event line: timestamp, kind tag, subject, change.
func (m Model) logRow(entry growbox.LogEntry) string {
	when := entry.When.Local().Format("Jan 02 15:04")

	name := entry.Event.Name
	if name == "" {
		name = entry.Event.EntityID
	}

	detail := entry.Event.Message
	if detail == "" {
		detail = "→ " + entry.Event.State
	}

	return LabelStyle.Render(when) + "  " +
		m.kindTag(entry.Kind) + "  " +
		ValueStyle.Render(name) + " " +
		SubtitleStyle.Render(detail) + "\n"
}

// kindTag renders a fixed-width colored tag for the event kind.
func (m Model) kindTag(kind growbox.EventKind) string {
	label := fmt.Sprintf("%-5s", string(kind))
	switch kind {
	case growbox.EventLight:
		return MismatchStyle.Render(label)
	case growbox.EventPump:
		return AccentStyle.Render(label)
	case growbox.EventFan:
		return OnStyle.Render(label)
	case growbox.EventPhase:
		return FocusedFieldStyle.Render(label)
	}
	return OffStyle.Render(label)
}

// logDeviceLabel names the active chamber filter.
func (m Model) logDeviceLabel() string {
	if m.logDevice < 0 || m.logDevice >= len(m.vms) {
		return "all"
	}
	return m.vms[m.logDevice].Name
}

// logKindLabel names the active kind filter.
func (m Model) logKindLabel() string {
	if m.logKind == "" {
		return "all"
	}
	return string(m.logKind)
}
