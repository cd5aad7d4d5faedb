package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/mkessler-dev/schoolday/internal/cli/formatter"
	"github.com/mkessler-dev/schoolday/internal/domain"
	"github.com/mkessler-dev/schoolday/internal/service"
)

// saveEvery is how often the countdown is flushed to storage so a crash
// loses at most a few seconds of timer.
const saveEvery = 10 * time.Second

type tickMsg time.Time

type refreshedMsg struct {
	state *service.FocusState
}

type markedStuckMsg struct {
	mark *domain.StuckMark
}

type stuckResolvedMsg struct{}

type errMsg struct {
	err error
}

// guidedModel walks the student through the composed day block by block.
// The cursor position is never trusted from a previous run; every refresh
// re-derives it from canonical state.
type guidedModel struct {
	app     *App
	student string

	blocks  []domain.ScheduleBlock
	idx     int
	dayDone bool

	secondsLeft int
	lastSaved   time.Time

	pendingMark *domain.StuckMark
	stuckForm   *huh.Form
	stuckReason string
	stuckNotify bool

	bar      progress.Model
	width    int
	err      error
	quitting bool
}

func newGuidedModel(app *App, student string) *guidedModel {
	return &guidedModel{
		app:     app,
		student: student,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
}

func (m *guidedModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

// tick is the model's one-second heartbeat. It keeps firing even after the
// block countdown reaches zero: the periodic session save and the stuck-mark
// auto-commit both ride on it.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *guidedModel) refresh() tea.Cmd {
	return func() tea.Msg {
		state, err := m.app.Focus.Resume(context.Background(), m.student, m.app.now())
		if err != nil {
			return errMsg{err}
		}
		return refreshedMsg{state}
	}
}

func (m *guidedModel) currentBlock() *domain.ScheduleBlock {
	if m.idx < 0 || m.idx >= len(m.blocks) {
		return nil
	}
	return &m.blocks[m.idx]
}

func (m *guidedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.stuckForm != nil {
		return m.updateStuckForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-8, 50)
		return m, nil

	case refreshedMsg:
		m.blocks = msg.state.Blocks
		m.idx = msg.state.Session.CurrentBlockIndex
		m.dayDone = msg.state.DayComplete
		if msg.state.Session.TimeRemainingSeconds > 0 {
			m.secondsLeft = msg.state.Session.TimeRemainingSeconds
		} else if b := m.currentBlock(); b != nil {
			m.secondsLeft = b.EstimatedMinutes * 60
		}
		m.lastSaved = m.app.now()
		return m, nil

	case tickMsg:
		if m.dayDone || m.quitting {
			return m, tick()
		}
		if m.secondsLeft > 0 {
			m.secondsLeft--
		}
		cmds := []tea.Cmd{tick()}
		if now := m.app.now(); now.Sub(m.lastSaved) >= saveEvery {
			m.lastSaved = now
			cmds = append(cmds, m.saveTimer())
		}
		if m.pendingMark != nil && m.pendingMark.Due(m.app.now()) {
			cmds = append(cmds, m.commitStuck())
		}
		return m, tea.Batch(cmds...)

	case markedStuckMsg:
		m.pendingMark = msg.mark
		return m, nil

	case stuckResolvedMsg:
		m.pendingMark = nil
		return m, m.refresh()

	case errMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *guidedModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Sequence(m.saveTimer(), tea.Quit)

	case "u":
		if m.pendingMark != nil {
			return m, m.cancelStuck()
		}
		return m, nil

	case "enter", "d":
		if m.dayDone || m.pendingMark != nil {
			return m, nil
		}
		return m, m.completeCurrent()

	case "m":
		if m.dayDone || m.pendingMark != nil {
			return m, nil
		}
		return m, m.moreTimeCurrent()

	case "s":
		b := m.currentBlock()
		if m.dayDone || m.pendingMark != nil || b == nil || !b.HasAssignment() {
			return m, nil
		}
		m.openStuckForm()
		return m, m.stuckForm.Init()
	}

	return m, nil
}

func (m *guidedModel) updateStuckForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.stuckForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.stuckForm = f
	}

	switch m.stuckForm.State {
	case huh.StateCompleted:
		b := m.currentBlock()
		m.stuckForm = nil
		if b == nil {
			return m, nil
		}
		return m, m.markStuck(b.AssignmentID)
	case huh.StateAborted:
		m.stuckForm = nil
		return m, nil
	}
	return m, cmd
}

func (m *guidedModel) openStuckForm() {
	m.stuckReason = ""
	m.stuckNotify = true
	m.stuckForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("What are you stuck on?").
				Value(&m.stuckReason),
			huh.NewConfirm().
				Title("Ask a parent for help?").
				Value(&m.stuckNotify),
		),
	).WithShowHelp(false)
}

func (m *guidedModel) completeCurrent() tea.Cmd {
	b := m.currentBlock()
	if b == nil {
		return nil
	}
	elapsed := 0
	if b.EstimatedMinutes > 0 {
		elapsed = b.EstimatedMinutes - m.secondsLeft/60
		if elapsed < 0 {
			elapsed = 0
		}
	}
	blockID := b.TemplateBlockID
	assignmentID := b.AssignmentID
	hasAssignment := b.HasAssignment()

	return func() tea.Msg {
		ctx := context.Background()
		if hasAssignment {
			if _, err := m.app.Assignments.Complete(ctx, assignmentID, elapsed); err != nil {
				return errMsg{err}
			}
		} else {
			if err := m.app.Focus.CompleteBlock(ctx, m.student, blockID, m.app.now()); err != nil {
				return errMsg{err}
			}
		}
		state, err := m.app.Focus.Resume(ctx, m.student, m.app.now())
		if err != nil {
			return errMsg{err}
		}
		return refreshedMsg{state}
	}
}

func (m *guidedModel) moreTimeCurrent() tea.Cmd {
	b := m.currentBlock()
	if b == nil {
		return nil
	}
	assignmentID := b.AssignmentID
	isBible := b.Type == domain.BlockBible

	return func() tea.Msg {
		ctx := context.Background()
		if isBible {
			if _, err := m.app.Reschedule.NeedMoreTimeBible(ctx, m.student, m.app.now()); err != nil {
				return errMsg{err}
			}
		} else if assignmentID != "" {
			if _, err := m.app.Reschedule.NeedMoreTime(ctx, assignmentID, m.app.now()); err != nil {
				return errMsg{err}
			}
		}
		state, err := m.app.Focus.Resume(ctx, m.student, m.app.now())
		if err != nil {
			return errMsg{err}
		}
		return refreshedMsg{state}
	}
}

func (m *guidedModel) markStuck(assignmentID string) tea.Cmd {
	reason := m.stuckReason
	notify := m.stuckNotify
	return func() tea.Msg {
		mark, err := m.app.Reschedule.MarkStuck(context.Background(), assignmentID, reason, notify, m.app.now())
		if err != nil {
			return errMsg{err}
		}
		return markedStuckMsg{mark}
	}
}

func (m *guidedModel) cancelStuck() tea.Cmd {
	assignmentID := m.pendingMark.AssignmentID
	return func() tea.Msg {
		if err := m.app.Reschedule.CancelStuck(context.Background(), assignmentID); err != nil {
			return errMsg{err}
		}
		return stuckResolvedMsg{}
	}
}

func (m *guidedModel) commitStuck() tea.Cmd {
	markID := m.pendingMark.ID
	return func() tea.Msg {
		if _, err := m.app.Reschedule.CommitStuck(context.Background(), markID); err != nil {
			// Cancelled from elsewhere; the refresh shows current truth.
			return stuckResolvedMsg{}
		}
		return stuckResolvedMsg{}
	}
}

func (m *guidedModel) saveTimer() tea.Cmd {
	seconds := m.secondsLeft
	return func() tea.Msg {
		if err := m.app.Focus.SaveTimer(context.Background(), m.student, seconds, m.app.now()); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (m *guidedModel) View() string {
	if m.quitting {
		return ""
	}
	if m.stuckForm != nil {
		return m.stuckForm.View()
	}

	var b strings.Builder
	b.WriteString(formatter.Header("Guided mode") + "\n\n")

	if m.dayDone {
		b.WriteString(formatter.StyleGreen.Render("All blocks done. Great work today!") + "\n\n")
		b.WriteString(formatter.Dim("q to exit") + "\n")
		return b.String()
	}

	for i, block := range m.blocks {
		cursor := "  "
		label := block.Label
		if label == "" {
			label = "(open)"
		}
		line := fmt.Sprintf("%s–%s  %s",
			domain.FormatClock(block.StartMinute), domain.FormatClock(block.EndMinute), label)
		if i == m.idx {
			cursor = formatter.StyleHeader.Render("▶ ")
			line = formatter.Bold(line)
		} else if block.Terminal() {
			line = formatter.Dim(line)
		}
		b.WriteString(fmt.Sprintf("%s%s  %s\n", cursor, line, formatter.BlockStatePill(block.State)))
	}

	if cur := m.currentBlock(); cur != nil {
		b.WriteString("\n")
		total := cur.EstimatedMinutes * 60
		pct := 0.0
		if total > 0 {
			pct = 1 - float64(m.secondsLeft)/float64(total)
		}
		b.WriteString(fmt.Sprintf("  %02d:%02d left  %s\n",
			m.secondsLeft/60, m.secondsLeft%60, m.bar.ViewAs(pct)))
	}

	b.WriteString("\n")
	if m.pendingMark != nil {
		remaining := time.Until(m.pendingMark.CommitAt).Round(time.Second)
		b.WriteString(formatter.StyleYellow.Render(
			fmt.Sprintf("Marked stuck; press u within %s to undo", remaining)) + "\n")
	} else {
		b.WriteString(formatter.Dim("enter done · m more time · s stuck · q save and exit") + "\n")
	}
	return b.String()
}
