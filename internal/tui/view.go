package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"betledger/internal/bet"
	"betledger/internal/controller"
	"betledger/internal/stats"
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("betledger"))
	b.WriteString("  ")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if !m.loaded {
		b.WriteString(dimStyle.Render("loading..."))
		b.WriteString("\n")
	} else {
		switch m.mode {
		case modeBetForm:
			b.WriteString(m.renderBetForm())
		case modeMethodForm:
			b.WriteString(m.renderMethodForm())
		default:
			b.WriteString(m.renderTab())
		}
	}

	if m.mode == modeConfirm {
		b.WriteString("\n")
		b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %q? (y/n)", m.confirm.label)))
		b.WriteString("\n")
	}

	if notes := m.renderNotifications(); notes != "" {
		b.WriteString("\n")
		b.WriteString(notes)
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == m.tab {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderTab() string {
	switch m.tab {
	case tabMethods:
		return m.renderMethods()
	case tabStats:
		return renderStats(m.ctrl.Snapshot())
	default:
		return m.renderBets()
	}
}

func (m Model) renderBets() string {
	bets := m.ctrl.Bets()
	if len(bets) == 0 {
		return borderStyle.Render(dimStyle.Render("No bets yet. Press n to add one."))
	}

	var rows []string
	rows = append(rows, dimStyle.Render(fmt.Sprintf("%-16s  %-28s  %-14s  %10s  %12s  %8s  %-4s",
		"Date/time", "Game", "Method", "Risk", "Profit/loss", "Return", "")))
	for i, b := range bets {
		ret := stats.Unavailable
		if pct, ok := b.ReturnPct(); ok {
			ret = stats.Percent(&pct)
		}
		status := winStyle.Render(string(bet.StatusWin))
		if !b.IsWin() {
			status = lossStyle.Render(string(bet.StatusLoss))
		}
		method := b.MethodName
		if method == "" {
			method = "#" + strconv.FormatInt(b.MethodID, 10)
		}
		line := fmt.Sprintf("%-16s  %-28s  %-14s  %10s  %12s  %8s  ",
			b.Timestamp.Display(), truncate(b.Game, 28), truncate(method, 14),
			stats.Money(&b.Risk), stats.Money(&b.ProfitLoss), ret) + status
		if i == m.cursor[tabBets] {
			line = selectedStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return borderStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderMethods() string {
	methods := m.ctrl.Methods()
	if len(methods) == 0 {
		return borderStyle.Render(dimStyle.Render("No methods. Press n to add one."))
	}

	rows := []string{dimStyle.Render(fmt.Sprintf("%5s  %s", "ID", "Name"))}
	for i, mt := range methods {
		line := fmt.Sprintf("%5d  %s", mt.ID, mt.Name)
		if i == m.cursor[tabMethods] {
			line = selectedStyle.Render(line)
		}
		rows = append(rows, line)
	}
	return borderStyle.Render(strings.Join(rows, "\n"))
}

func renderStats(s stats.Snapshot) string {
	rows := make([]string, 0, 16)
	for _, line := range stats.Lines(s) {
		rows = append(rows, labelStyle.Render(line.Label)+line.Value)
	}
	return borderStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderBetForm() string {
	form := m.ctrl.BetForm()
	title := "New bet"
	if form.State == controller.FormEditing || form.EditingID != 0 {
		title = fmt.Sprintf("Edit bet #%d", form.EditingID)
	}
	if form.State == controller.FormSubmitting {
		title += dimStyle.Render("  saving...")
	}

	values := [fieldCount]string{
		form.Input.Timestamp,
		form.Input.Game,
		form.Input.MethodID,
		form.Input.Risk,
		form.Input.ProfitLoss,
	}

	rows := []string{headerStyle.Render(title), ""}
	for i, label := range fieldLabels {
		value := values[i]
		if i == fieldMethod {
			if id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
				if name, ok := m.ctrl.MethodName(id); ok {
					value += dimStyle.Render("  " + name)
				}
			}
		}
		field := value + " "
		if i == m.focus {
			field = focusStyle.Render(values[i]+"_") + strings.TrimPrefix(value, values[i])
		}
		rows = append(rows, labelStyle.Render(label)+field)
	}
	rows = append(rows, "", dimStyle.Render("date/time as "+bet.TimestampLayout+" (ctrl+t: now)  method: ←/→ to cycle"))
	return borderStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderMethodForm() string {
	form := m.ctrl.MethodForm()
	title := "New method"
	if form.State == controller.FormEditing || form.EditingID != 0 {
		title = fmt.Sprintf("Rename method #%d", form.EditingID)
	}
	rows := []string{
		headerStyle.Render(title),
		"",
		labelStyle.Render("Name") + focusStyle.Render(form.Name+"_"),
	}
	return borderStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderNotifications() string {
	notes := m.ctrl.Notifications()
	if len(notes) == 0 {
		return ""
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		style := successNoteStyle
		if n.Level == controller.LevelError {
			style = errorNoteStyle
		}
		lines[i] = style.Render(n.Message)
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m Model) helpLine() string {
	switch m.mode {
	case modeBetForm:
		return "tab/↑↓ field • enter save • esc cancel • ctrl+c quit"
	case modeMethodForm:
		return "enter save • esc cancel • ctrl+c quit"
	case modeConfirm:
		return "y confirm • n cancel"
	}
	if m.busy {
		return "working..."
	}
	return "1-3/tab switch • ↑↓ select • n new • e edit • d delete • r refresh • x dismiss • q quit"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
