package panel

import (
	"fmt"
	"strings"

	"github.com/openkairo/growdeck/internal/growbox"
)

// Gauge display ranges. Temperature covers the span a grow tent can
// realistically reach; VPD covers the full target table with headroom.
const (
	gaugeTempMin = 10.0
	gaugeTempMax = 40.0
	gaugeVPDMax  = 2.0
)

// overviewView renders the selected chamber's live dashboard card.
func (m Model) overviewView() string {
	vm := m.selectedVM()
	if vm == nil {
		if m.loading {
			return ""
		}
		return SubtitleStyle.Render("No grow boxes found. Check the integration on your Home Assistant instance.")
	}

	phase := vm.Phase()
	var b strings.Builder

	// Identity row
	b.WriteString(TitleStyle.Render(vm.Name))
	b.WriteString("\n")
	b.WriteString(m.row("Phase", OnStyle.Render(phase.Label())+m.dayCounter(vm)))
	b.WriteString(m.row("Master", m.switchText(m.backend.StateOf(vm.Refs.Master).IsOn())))

	// Climate gauges
	b.WriteString("\n")
	temp, tempOK := m.backend.StateOf(vm.TempSensor()).Float()
	b.WriteString(m.gaugeRow("Temperature", temp, tempOK, gaugeTempMin, gaugeTempMax, "%.1f °C"))

	rh, rhOK := m.backend.StateOf(vm.HumiditySensor()).Float()
	b.WriteString(m.gaugeRow("Humidity", rh, rhOK, 0, 100, "%.0f %%"))

	b.WriteString(m.vpdRow(phase, temp, rh, tempOK && rhOK))

	moist, moistOK := m.backend.StateOf(vm.MoistureSensor()).Float()
	b.WriteString(m.gaugeRow("Soil moisture", moist, moistOK, 0, 100, "%.0f %%"))

	// Actuators
	b.WriteString("\n")
	b.WriteString(m.lightRows(vm, phase))
	b.WriteString(m.row("Fan", m.switchText(m.backend.StateOf(vm.FanEntity()).IsOn())))
	pump := vm.Options.String(growbox.OptPumpEntity, vm.Refs.Pump)
	b.WriteString(m.row("Pump", m.switchText(m.backend.StateOf(pump).IsOn())+
		SubtitleStyle.Render(fmt.Sprintf("  (%ds cycle)", vm.Options.Int(growbox.OptPumpDuration, growbox.DefaultPumpDuration)))))

	if v := vm.Options.String(growbox.OptImageVersion, ""); v != "" {
		b.WriteString(m.row("Photo", SubtitleStyle.Render("version "+v)))
	}

	return b.String()
}

// row renders one aligned label/value line.
func (m Model) row(label, value string) string {
	return LabelStyle.Render(fmt.Sprintf("%-15s", label)) + value + "\n"
}

// dayCounter renders the day-in-phase suffix, empty when no start date
// is set.
func (m Model) dayCounter(vm *growbox.ViewModel) string {
	if days, ok := growbox.DaysInPhase(vm.Options, m.now()); ok {
		return ValueStyle.Render(fmt.Sprintf("  day %d", days))
	}
	return ""
}

// switchText renders an on/off state.
func (m Model) switchText(on bool) string {
	if on {
		return OnStyle.Render("ON")
	}
	return OffStyle.Render("OFF")
}

// gaugeRow renders a sensor line: bar plus numeric readout.
func (m Model) gaugeRow(label string, value float64, ok bool, min, max float64, format string) string {
	g := growbox.Gauge(value, ok, min, max)
	bar := RenderGauge(g.Pct, g.OK, GaugeWidth)
	readout := ""
	if ok {
		readout = " " + ValueStyle.Render(fmt.Sprintf(format, value))
	}
	return m.row(label, bar+readout)
}

// vpdRow renders the derived VPD with the phase target band marked on
// the gauge.
func (m Model) vpdRow(phase growbox.Phase, temp, rh float64, ok bool) string {
	if !ok {
		return m.row("VPD", RenderGauge(0, false, GaugeWidth))
	}

	vpd := growbox.VPD(temp, rh)
	g := growbox.Gauge(vpd, true, 0, gaugeVPDMax)
	band, hasBand := growbox.VPDTarget(phase)
	if !hasBand {
		return m.row("VPD", RenderGauge(g.Pct, g.OK, GaugeWidth)+" "+ValueStyle.Render(fmt.Sprintf("%.2f kPa", vpd)))
	}

	lo := band.Min / gaugeVPDMax * 100
	hi := band.Max / gaugeVPDMax * 100
	bar := RenderBandGauge(g.Pct, g.OK, lo, hi, GaugeWidth)
	readout := ValueStyle.Render(fmt.Sprintf("%.2f kPa", vpd))
	target := SubtitleStyle.Render(fmt.Sprintf(" (target %.1f-%.1f)", band.Min, band.Max))
	return m.row("VPD", bar+" "+readout+target)
}

// lightRows renders the light status, schedule, and countdown lines.
// A schedule/actual mismatch draws in the warning style.
func (m Model) lightRows(vm *growbox.ViewModel, phase growbox.Phase) string {
	actualOn := m.backend.StateOf(vm.LightEntity()).IsOn()
	status := growbox.ComputeLightWindow(vm.Options, phase, actualOn, m.now())

	text := status.StatusText()
	style := OffStyle
	switch {
	case status.IsOn != status.ScheduledOn:
		style = MismatchStyle
	case status.IsOn:
		style = OnStyle
	}

	out := m.row("Light", style.Render(text))
	out += m.row("Schedule", ValueStyle.Render(status.Schedule))
	if status.CountdownText() != "--" {
		label := "Lights off in"
		if !status.ScheduledOn {
			label = "Lights on in"
		}
		out += m.row(label, ValueStyle.Render(status.CountdownText()))
	}
	return out
}
