package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"moiratui/internal/moira"
	"moiratui/internal/triggerview"
)

const timeLayout = "2006-01-02 15:04"

func (m Model) runDetail(job triggerview.Job) tea.Cmd {
	if job == nil {
		return nil
	}
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return detailMsg{result: job(ctx)}
	}
}

func (m Model) selectedMetric() (string, bool) {
	metrics := m.detail.View().Metrics
	if len(metrics) == 0 {
		return "", false
	}
	return metrics[clampCursor(m.metricCursor, len(metrics))], true
}

func (m Model) updateDetailMode(key string) (tea.Model, tea.Cmd) {
	view := m.detail.View()
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Cancel, m.cfg.Keys.Back, "esc":
		m.detail.Close()
		m.mode = modeList
		m.status = ""
	case m.cfg.Keys.Down, "down":
		m.metricCursor = clampCursor(m.metricCursor+1, len(view.Metrics))
	case m.cfg.Keys.Up, "up":
		m.metricCursor = clampCursor(m.metricCursor-1, len(view.Metrics))
	case m.cfg.Keys.Events:
		m.showEvents = !m.showEvents
	case m.cfg.Keys.Refresh:
		m.status = "Refreshing"
		return m, m.runDetail(m.detail.Reload())
	case m.cfg.Keys.Maintenance:
		if _, ok := m.selectedMetric(); !ok || m.showEvents {
			m.status = "No metric selected"
			return m, nil
		}
		m.mode = modeMaintenance
		m.presetCursor = 0
		m.status = "Maintenance: choose a duration, enter to apply"
	case m.cfg.Keys.RemoveMetric:
		metric, ok := m.selectedMetric()
		if !ok || m.showEvents {
			m.status = "No metric selected"
			return m, nil
		}
		m.status = "Removing " + metric
		return m, m.runDetail(m.detail.RemoveMetric(metric))
	case m.cfg.Keys.RemoveThrottling:
		if !view.Throttled(time.Now()) {
			m.status = "Trigger is not throttled"
			return m, nil
		}
		m.status = "Removing throttling"
		return m, m.runDetail(m.detail.RemoveThrottling())
	}
	return m, nil
}

func (m Model) updateMaintenanceMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeDetail
		m.status = ""
	case m.cfg.Keys.Down, "down":
		m.presetCursor = clampCursor(m.presetCursor+1, len(triggerview.Presets))
	case m.cfg.Keys.Up, "up":
		m.presetCursor = clampCursor(m.presetCursor-1, len(triggerview.Presets))
	case m.cfg.Keys.Confirm, "enter":
		m.mode = modeDetail
		metric, ok := m.selectedMetric()
		if !ok {
			return m, nil
		}
		preset := triggerview.Presets[clampCursor(m.presetCursor, len(triggerview.Presets))]
		m.status = fmt.Sprintf("Maintenance %s for %s", preset.Label, metric)
		return m, m.runDetail(m.detail.SetMaintenance(metric, preset))
	}
	return m, nil
}

func (m Model) detailView() string {
	view := m.detail.View()
	var b strings.Builder

	title := "Trigger " + view.ID
	if view.Trigger.Name != "" {
		title = view.Trigger.Name
	}
	b.WriteString(titleStyle.Render(title))
	if view.Loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n")
	b.WriteString(locationStyle.Render(view.ID))
	b.WriteString("\n\n")

	if view.Trigger.ID != "" {
		b.WriteString(renderTriggerInfo(view, time.Now()))
		b.WriteString("\n")
	}

	switch {
	case m.mode == modeMaintenance:
		b.WriteString(m.renderPresets())
	case m.showEvents:
		b.WriteString(renderEvents(view.Events))
	default:
		b.WriteString(m.renderMetrics(view))
	}

	b.WriteString("\n---\n")
	if view.Err != nil && m.status == "" {
		b.WriteString(errorStyle.Render(fmt.Sprintf("trigger: %v", view.Err)))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	k := m.cfg.Keys
	b.WriteString(helpStyle.Render(fmt.Sprintf("%s/%s move • %s metrics/events • %s maintenance • %s remove metric • %s remove throttling • %s refresh • %s back",
		k.Up, k.Down, k.Events, k.Maintenance, k.RemoveMetric, k.RemoveThrottling, k.Refresh, k.Cancel)))
	return b.String()
}

func renderTriggerInfo(view triggerview.View, now time.Time) string {
	t := view.Trigger
	parts := []string{"state " + stateBadge(view.State.State)}
	if t.WarnValue != nil {
		parts = append(parts, "warn "+formatValue(t.WarnValue))
	}
	if t.ErrorValue != nil {
		parts = append(parts, "error "+formatValue(t.ErrorValue))
	}
	if t.TTL > 0 {
		ttl := fmt.Sprintf("ttl %s", time.Duration(t.TTL)*time.Second)
		if t.TTLState != "" {
			ttl += " → " + t.TTLState
		}
		parts = append(parts, ttl)
	}
	var b strings.Builder
	b.WriteString(filterStyle.Render(strings.Join(parts, " • ")))
	b.WriteString("\n")
	if t.Desc != "" {
		b.WriteString(t.Desc + "\n")
	}
	for _, target := range t.Targets {
		b.WriteString(locationStyle.Render("target: "+target) + "\n")
	}
	if len(t.Tags) > 0 {
		b.WriteString(locationStyle.Render("tags: "+strings.Join(t.Tags, ", ")) + "\n")
	}
	if view.Throttled(now) {
		b.WriteString(subStyle.Render("throttled until "+formatTime(t.Throttled)) + "\n")
	}
	if view.State.Message != "" {
		b.WriteString(errorStyle.Render(view.State.Message) + "\n")
	}
	return b.String()
}

func (m Model) renderMetrics(view triggerview.View) string {
	if len(view.Metrics) == 0 {
		if view.Loading {
			return "Loading...\n"
		}
		return "No metrics.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Metrics (%d)\n", len(view.Metrics))
	for i, name := range view.Metrics {
		metric := view.State.Metrics[name]
		cursor := " "
		label := name
		if m.metricCursor == i {
			cursor = ">"
			label = selectedStyle.Render(name)
		}
		line := fmt.Sprintf("%s %s %s %s", cursor, stateBadge(metric.State), label, formatValue(metric.Value))
		if metric.Maintenance > time.Now().Unix() {
			line += " " + subStyle.Render("maintenance until "+formatTime(metric.Maintenance))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderPresets() string {
	metric, _ := m.selectedMetric()
	var b strings.Builder
	fmt.Fprintf(&b, "Maintenance for %s\n", metric)
	for i, p := range triggerview.Presets {
		cursor := " "
		if m.presetCursor == i {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s %s\n", cursor, p.Label)
	}
	return b.String()
}

func renderEvents(events moira.EventList) string {
	if len(events.List) == 0 {
		return "No events.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Events (%d of %d)\n", len(events.List), events.Total)
	for _, e := range events.List {
		fmt.Fprintf(&b, "  %s %s %s → %s %s\n",
			formatTime(e.Timestamp), e.Metric, e.OldState, e.State, formatValue(e.Value))
	}
	return b.String()
}

func formatValue(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).Format(timeLayout)
}
