package panel

import (
	"fmt"
	"strings"

	"github.com/openkairo/growdeck/internal/growbox"
	"github.com/openkairo/growdeck/internal/urls"
)

// infoView renders the static reference tab: phase table, docs links,
// and the version line.
func (m Model) infoView() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Growth phase reference"))
	b.WriteString("\n")
	b.WriteString(LabelStyle.Render(fmt.Sprintf("%-14s %-13s %s", "Phase", "Light hours", "VPD target")))
	b.WriteString("\n")
	for _, p := range growbox.Phases {
		hours := fmt.Sprintf("%dh", growbox.DefaultLightHours(p))
		target := "--"
		if band, ok := growbox.VPDTarget(p); ok {
			target = fmt.Sprintf("%.1f - %.1f kPa", band.Min, band.Max)
		}
		b.WriteString(ValueStyle.Render(fmt.Sprintf("%-14s %-13s %s", p.Label(), hours, target)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Documentation"))
	b.WriteString("\n")
	for _, link := range []struct{ label, url string }{
		{"Getting started", urls.GettingStarted},
		{"Phases and VPD", urls.PhaseGuide},
		{"Device setup", urls.DeviceSetup},
		{"Troubleshooting", urls.TroubleshootingGuide},
	} {
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%-18s", link.label)) + AccentStyle.Render(link.url))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render(AppName + " v" + AppVersion() + " · " + GitHubFullURL))
	b.WriteString("\n")
	return b.String()
}
