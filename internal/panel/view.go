package panel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/openkairo/growdeck/internal/growbox"
)

// View renders the whole panel. Modals take over the screen; otherwise
// the active tab renders inside the application frame.
func (m Model) View() string {
	if m.Width == 0 {
		return "Starting " + AppName + "..."
	}
	if m.Width < MinTerminalWidth {
		return ErrorStyle.Render(fmt.Sprintf("Terminal too narrow (need %d columns)", MinTerminalWidth))
	}

	switch {
	case m.showPhaseConfirm:
		return RenderModal(m.phaseConfirmView(), m.Width, m.Height)
	case m.showPhasePicker:
		return RenderModal(m.phasePickerView(), m.Width, m.Height)
	case m.showUploadPrompt:
		return RenderModal(m.uploadPromptView(), m.Width, m.Height)
	}

	var content string
	switch m.tab {
	case TabOverview:
		content = m.overviewView()
	case TabSettings:
		content = m.settingsView()
	case TabPhases:
		content = m.phasesView()
	case TabLog:
		content = m.logView()
	case TabInfo:
		content = m.infoView()
	}

	body := m.tabBar() + "\n" + m.chamberBar() + "\n\n" + content + "\n" + m.statusLine()
	return RenderApplicationContainer(body, m.footerText(), m.Width, m.Height)
}

// tabBar renders the fixed tab strip.
func (m Model) tabBar() string {
	var parts []string
	for i, t := range Tabs {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if t == m.tab {
			parts = append(parts, ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, InactiveTabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// chamberBar renders the chamber selector strip.
func (m Model) chamberBar() string {
	if len(m.vms) == 0 {
		if m.loading {
			return SubtitleStyle.Render(m.Spinner.View() + " Looking for grow boxes...")
		}
		return SubtitleStyle.Render("No grow boxes found")
	}

	var parts []string
	for i, vm := range m.vms {
		name := vm.Name
		if m.drafts.Has(vm.EntryID) {
			name += DraftMarkerStyle.Render(" *")
		}
		if i == m.selected {
			parts = append(parts, OnStyle.Render("▸ "+name))
		} else {
			parts = append(parts, OffStyle.Render("  "+name))
		}
	}
	return strings.Join(parts, "   ")
}

// statusLine renders transient feedback under the tab content.
func (m Model) statusLine() string {
	switch {
	case m.errLine != "":
		return ErrorStyle.Render(m.errLine)
	case m.saving || m.phaseSaving || m.uploading:
		return SubtitleStyle.Render(m.Spinner.View() + " Working...")
	case m.toast != "":
		return ToastStyle.Render("✓ " + m.toast)
	case m.loading:
		return SubtitleStyle.Render(m.Spinner.View() + " Refreshing...")
	}
	return ""
}

// footerText returns the per-tab key hints for the frame footer.
func (m Model) footerText() string {
	switch m.tab {
	case TabOverview:
		return "←/→ chamber · m master · w pump · u photo · r refresh · tab switch · q quit"
	case TabSettings:
		return "tab/↑↓ field · ctrl+s save · esc back"
	case TabPhases:
		return "tab/↑↓ field · ctrl+s save · ctrl+p change phase · esc back"
	case TabLog:
		return "d device filter · f kind filter · r reload · tab switch · q quit"
	}
	return m.Help.View(m.Keys)
}

// settingsView renders the Settings tab.
func (m Model) settingsView() string {
	vm := m.selectedVM()
	if vm == nil || m.settings == nil {
		return SubtitleStyle.Render("No chamber selected.")
	}

	title := TitleStyle.Render("Settings · " + vm.Name)
	hint := ""
	if m.drafts.Has(vm.EntryID) {
		hint = "\n" + DraftMarkerStyle.Render("* ") + SubtitleStyle.Render("unsaved changes (ctrl+s to save)")
	}
	return title + "\n" + m.settings.View(m.drafts) + hint
}

// phasesView renders the Phases tab: the committed phase, its targets,
// and the per-phase light-hours form.
func (m Model) phasesView() string {
	vm := m.selectedVM()
	if vm == nil || m.phases == nil {
		return SubtitleStyle.Render("No chamber selected.")
	}

	phase := vm.Phase()
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Phases · " + vm.Name))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render("Current phase   ") + OnStyle.Render(phase.Label()))
	if days, ok := growbox.DaysInPhase(vm.Options, m.now()); ok {
		b.WriteString(ValueStyle.Render(fmt.Sprintf("  (day %d)", days)))
	}
	b.WriteString("\n")
	if band, ok := growbox.VPDTarget(phase); ok {
		b.WriteString(LabelStyle.Render("VPD target      ") +
			ValueStyle.Render(fmt.Sprintf("%.1f - %.1f kPa", band.Min, band.Max)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Light hours per phase"))
	b.WriteString("\n")
	b.WriteString(m.phases.View(m.drafts))
	b.WriteString("\n" + HelpStyle.Render("ctrl+p to move this chamber to another phase"))
	return b.String()
}

// phasePickerView renders the phase selection modal.
func (m Model) phasePickerView() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Change phase"))
	b.WriteString("\n")
	for i, p := range growbox.Phases {
		line := "  " + p.Label()
		if i == m.phaseCursor {
			line = FocusedFieldStyle.Render("▸ " + p.Label())
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + HelpStyle.Render("enter select · esc cancel"))
	return ModalStyle.Render(b.String())
}

// phaseConfirmView renders the destructive-change confirmation dialog.
func (m Model) phaseConfirmView() string {
	vm := m.selectedVM()
	name := "this chamber"
	if vm != nil {
		name = vm.Name
	}

	confirm := ModalButtonStyle.Render("Change")
	cancel := ModalButtonActiveStyle.Render("Cancel")
	if m.confirmCursor == 0 {
		confirm = ModalButtonActiveStyle.Render("Change")
		cancel = ModalButtonStyle.Render("Cancel")
	}

	body := TitleStyle.Render("Confirm phase change") + "\n" +
		fmt.Sprintf("Move %s to %s?\n", ValueStyle.Render(name), OnStyle.Render(m.pendingPhase.Label())) +
		SubtitleStyle.Render("Light schedule and targets change immediately.") + "\n\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, confirm, "  ", cancel)
	return ModalStyle.Render(body)
}

// uploadPromptView renders the photo path prompt.
func (m Model) uploadPromptView() string {
	body := TitleStyle.Render("Upload chamber photo") + "\n" +
		m.uploadInput.View() + "\n\n" +
		HelpStyle.Render("enter upload · esc cancel")
	return ModalStyle.Render(body)
}
