package tui

import (
	"context"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"betledger/internal/bet"
	"betledger/internal/controller"
)

type tab int

const (
	tabBets tab = iota
	tabMethods
	tabStats
)

var tabNames = []string{"Bets", "Methods", "Statistics"}

type mode int

const (
	modeBrowse mode = iota
	modeBetForm
	modeMethodForm
	modeConfirm
)

// Bet form fields, in focus order.
const (
	fieldTimestamp = iota
	fieldGame
	fieldMethod
	fieldRisk
	fieldProfitLoss
	fieldCount
)

var fieldLabels = [fieldCount]string{"Date/time", "Game", "Method", "Risk", "Profit/loss"}

// pendingDelete is the record awaiting confirmation.
type pendingDelete struct {
	kind  tab
	id    int64
	label string
}

type (
	tickMsg    time.Time
	refreshMsg struct{ err error }
	doneMsg    struct {
		form bool
		err  error
	}
)

// Model is the bubbletea model for the dashboard. All state that outlives a
// keystroke is held by the controller; the model keeps only view state.
type Model struct {
	ctx  context.Context
	ctrl *controller.Controller

	tab     tab
	mode    mode
	cursor  [3]int
	focus   int
	confirm pendingDelete
	busy    bool
	loaded  bool
	width   int
}

func New(ctx context.Context, ctrl *controller.Controller) Model {
	return Model{ctx: ctx, ctrl: ctrl}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return refreshMsg{err: ctrl.Refresh(ctx)}
	}
}

// run executes a controller call off the UI goroutine. form marks calls whose
// success should close the open form.
func (m Model) run(form bool, call func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{form: form, err: call(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		// Redraw so expired notifications disappear.
		return m, tickCmd()

	case refreshMsg:
		m.busy = false
		m.loaded = true
		m.clampCursors()
		return m, nil

	case doneMsg:
		m.busy = false
		if msg.err == nil && msg.form {
			m.mode = modeBrowse
			m.focus = 0
		}
		m.clampCursors()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.mode {
		case modeBetForm:
			return m.updateBetForm(msg)
		case modeMethodForm:
			return m.updateMethodForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		m.tab = (m.tab + 1) % tab(len(tabNames))
	case "shift+tab", "left", "h":
		m.tab = (m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames))
	case "1":
		m.tab = tabBets
	case "2":
		m.tab = tabMethods
	case "3":
		m.tab = tabStats
	case "up", "k":
		if m.cursor[m.tab] > 0 {
			m.cursor[m.tab]--
		}
	case "down", "j":
		if m.cursor[m.tab] < m.rows()-1 {
			m.cursor[m.tab]++
		}
	case "r":
		m.busy = true
		return m, m.refreshCmd()
	case "x":
		if notes := m.ctrl.Notifications(); len(notes) > 0 {
			m.ctrl.Dismiss(notes[0].ID)
		}
	case "n":
		return m.openNew()
	case "e", "enter":
		return m.openEdit()
	case "d":
		return m.askDelete()
	}
	return m, nil
}

func (m Model) openNew() (tea.Model, tea.Cmd) {
	switch m.tab {
	case tabBets:
		if m.ctrl.BetForm().State == controller.FormEditing {
			_ = m.ctrl.CancelBetEdit()
		}
		m.mode = modeBetForm
		m.focus = fieldTimestamp
	case tabMethods:
		if m.ctrl.MethodForm().State == controller.FormEditing {
			_ = m.ctrl.CancelMethodEdit()
		}
		m.mode = modeMethodForm
	}
	return m, nil
}

func (m Model) openEdit() (tea.Model, tea.Cmd) {
	switch m.tab {
	case tabBets:
		bets := m.ctrl.Bets()
		if len(bets) == 0 {
			return m, nil
		}
		if err := m.ctrl.EditBet(bets[m.cursor[tabBets]]); err == nil {
			m.mode = modeBetForm
			m.focus = fieldTimestamp
		}
	case tabMethods:
		methods := m.ctrl.Methods()
		if len(methods) == 0 {
			return m, nil
		}
		if err := m.ctrl.EditMethod(methods[m.cursor[tabMethods]]); err == nil {
			m.mode = modeMethodForm
		}
	}
	return m, nil
}

func (m Model) askDelete() (tea.Model, tea.Cmd) {
	switch m.tab {
	case tabBets:
		bets := m.ctrl.Bets()
		if len(bets) == 0 {
			return m, nil
		}
		b := bets[m.cursor[tabBets]]
		m.confirm = pendingDelete{kind: tabBets, id: b.ID, label: b.Game + " (" + b.Timestamp.Display() + ")"}
		m.mode = modeConfirm
	case tabMethods:
		methods := m.ctrl.Methods()
		if len(methods) == 0 {
			return m, nil
		}
		mt := methods[m.cursor[tabMethods]]
		m.confirm = pendingDelete{kind: tabMethods, id: mt.ID, label: mt.Name}
		m.mode = modeConfirm
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		target := m.confirm
		m.mode = modeBrowse
		m.confirm = pendingDelete{}
		m.busy = true
		ctrl := m.ctrl
		if target.kind == tabMethods {
			return m, m.run(false, func(ctx context.Context) error { return ctrl.DeleteMethod(ctx, target.id) })
		}
		return m, m.run(false, func(ctx context.Context) error { return ctrl.DeleteBet(ctx, target.id) })
	case "n", "N", "esc", "q":
		m.mode = modeBrowse
		m.confirm = pendingDelete{}
	}
	return m, nil
}

func (m Model) updateBetForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	in := m.ctrl.BetForm().Input
	ctrl := m.ctrl

	switch msg.Type {
	case tea.KeyEsc:
		_ = ctrl.CancelBetEdit()
		m.mode = modeBrowse
		m.focus = 0
		return m, nil
	case tea.KeyEnter:
		m.busy = true
		return m, m.run(true, func(ctx context.Context) error {
			_, err := ctrl.SubmitBet(ctx)
			return err
		})
	case tea.KeyTab, tea.KeyDown:
		m.focus = (m.focus + 1) % fieldCount
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		return m, nil
	case tea.KeyCtrlT:
		_ = ctrl.UseCurrentTime()
		return m, nil
	case tea.KeyLeft, tea.KeyRight:
		if m.focus == fieldMethod {
			in.MethodID = m.cycleMethod(in.MethodID, msg.Type == tea.KeyRight)
			_ = ctrl.SetBetInput(in)
		}
		return m, nil
	case tea.KeyBackspace:
		field := betField(&in, m.focus)
		if r := []rune(*field); len(r) > 0 {
			*field = string(r[:len(r)-1])
		}
		_ = ctrl.SetBetInput(in)
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		field := betField(&in, m.focus)
		*field += string(msg.Runes)
		_ = ctrl.SetBetInput(in)
		return m, nil
	}
	return m, nil
}

func (m Model) updateMethodForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := m.ctrl.MethodForm()
	ctrl := m.ctrl

	switch msg.Type {
	case tea.KeyEsc:
		_ = ctrl.CancelMethodEdit()
		m.mode = modeBrowse
	case tea.KeyEnter:
		m.busy = true
		return m, m.run(true, func(ctx context.Context) error {
			_, err := ctrl.SubmitMethod(ctx)
			return err
		})
	case tea.KeyBackspace:
		if r := []rune(form.Name); len(r) > 0 {
			_ = ctrl.SetMethodName(string(r[:len(r)-1]))
		}
	case tea.KeyRunes, tea.KeySpace:
		_ = ctrl.SetMethodName(form.Name + string(msg.Runes))
	}
	return m, nil
}

func betField(in *bet.Input, focus int) *string {
	switch focus {
	case fieldGame:
		return &in.Game
	case fieldMethod:
		return &in.MethodID
	case fieldRisk:
		return &in.Risk
	case fieldProfitLoss:
		return &in.ProfitLoss
	default:
		return &in.Timestamp
	}
}

// cycleMethod steps the method id field through the loaded methods.
func (m Model) cycleMethod(current string, forward bool) string {
	methods := m.ctrl.Methods()
	if len(methods) == 0 {
		return current
	}
	idx := -1
	for i, mt := range methods {
		if strconv.FormatInt(mt.ID, 10) == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		idx = 0
	case forward:
		idx = (idx + 1) % len(methods)
	default:
		idx = (idx + len(methods) - 1) % len(methods)
	}
	return strconv.FormatInt(methods[idx].ID, 10)
}

func (m Model) rows() int {
	switch m.tab {
	case tabBets:
		return len(m.ctrl.Bets())
	case tabMethods:
		return len(m.ctrl.Methods())
	default:
		return 0
	}
}

func (m *Model) clampCursors() {
	counts := [3]int{len(m.ctrl.Bets()), len(m.ctrl.Methods()), 0}
	for i, n := range counts {
		if m.cursor[i] >= n {
			m.cursor[i] = max(n-1, 0)
		}
	}
}
