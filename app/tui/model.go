// Package tui is the terminal chat client. It talks to a running canvaspilot
// server over the NDJSON stream and renders status, plan, step, and summary
// events as they arrive.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/canvaspilot/canvaspilot/chat"
	"github.com/canvaspilot/canvaspilot/session"
)

// Options configures a TUI run.
type Options struct {
	ServerURL   string
	SessionID   string
	Store       *session.Store
	CanvasURL   string
	CanvasToken string
}

// Run bootstraps the chat TUI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.ServerURL == "" {
		return fmt.Errorf("server url is required")
	}
	model, err := NewModel(ctx, opts)
	if err != nil {
		return err
	}
	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = program.Run()
	return err
}

// Model implements the Bubble Tea Model interface and coordinates the
// transcript feed, prompt bar, and live stream state.
type Model struct {
	opts   Options
	client *StreamClient
	store  *session.Store

	feed    viewport.Model
	input   textinput.Model
	spinner spinner.Model

	history []chat.Message
	lines   []string

	width  int
	height int
	ready  bool

	streaming bool
	status    string
	events    <-chan chat.Event
	errs      <-chan error
	cancel    context.CancelFunc
}

// streamEventMsg carries one decoded event from the server stream.
type streamEventMsg chat.Event

// streamDoneMsg signals the stream has closed, possibly with an error.
type streamDoneMsg struct{ err error }

// NewModel builds the initial model, loading prior history from the
// session store when one is configured.
func NewModel(ctx context.Context, opts Options) (Model, error) {
	input := textinput.New()
	input.Placeholder = "Ask about your courses, assignments, grades..."
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := Model{
		opts:    opts,
		client:  NewStreamClient(opts.ServerURL),
		store:   opts.Store,
		input:   input,
		spinner: sp,
	}

	if m.store != nil && opts.SessionID != "" {
		history, err := m.store.History(ctx, opts.SessionID)
		if err != nil {
			return Model{}, fmt.Errorf("load session history: %w", err)
		}
		m.history = history
		for _, msg := range history {
			m.lines = append(m.lines, renderMessage(msg), "")
		}
	}
	return m, nil
}

// Init fulfills the Bubble Tea Model interface.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update applies incoming Bubble Tea messages to mutate the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case streamEventMsg:
		return m.handleEvent(chat.Event(msg))
	case streamDoneMsg:
		return m.handleDone(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	statusHeight := 1
	promptHeight := 1
	feedHeight := msg.Height - statusHeight - promptHeight - 1
	if feedHeight < 1 {
		feedHeight = 1
	}

	if !m.ready {
		m.feed = viewport.New(msg.Width, feedHeight)
		m.ready = true
	} else {
		m.feed.Width = msg.Width
		m.feed.Height = feedHeight
	}
	m.input.Width = msg.Width - 4
	if m.input.Width < 10 {
		m.input.Width = 10
	}
	return m.refreshFeed(), nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	case "esc":
		if m.streaming && m.cancel != nil {
			m.cancel()
			m = m.appendLine(statusStyle.Render("(request cancelled)"))
			m.streaming = false
			m.status = ""
			m.events = nil
			m.errs = nil
			m.cancel = nil
		}
		return m, nil
	case "ctrl+l":
		return m.clearHistory()
	case "enter":
		return m.submitPrompt()
	case "up", "down", "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// submitPrompt sends the current input as a new chat turn.
func (m Model) submitPrompt() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" || m.streaming {
		return m, nil
	}

	userMsg := chat.Message{Role: chat.RoleUser, Content: value}
	m.history = append(m.history, userMsg)
	m = m.appendLine(renderMessage(userMsg), "")
	m.input.SetValue("")
	m.persist(userMsg)

	ctx, cancel := context.WithCancel(context.Background())
	req := chat.Request{
		Messages:    m.history,
		CanvasURL:   m.opts.CanvasURL,
		CanvasToken: m.opts.CanvasToken,
	}
	events, errs, err := m.client.Chat(ctx, req)
	if err != nil {
		cancel()
		return m.appendLine(errorStyle.Render(fmt.Sprintf("request failed: %v", err)), ""), nil
	}

	m.streaming = true
	m.status = "Connecting..."
	m.events = events
	m.errs = errs
	m.cancel = cancel
	return m, tea.Batch(m.spinner.Tick, waitForEvent(events, errs))
}

// handleEvent folds one stream event into the transcript.
func (m Model) handleEvent(ev chat.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case chat.EventStatus:
		m.status = ev.Message
	case chat.EventPlan:
		var b strings.Builder
		b.WriteString(planStyle.Render("Plan:"))
		for i, step := range ev.Steps {
			b.WriteString("\n")
			b.WriteString(planStyle.Render(fmt.Sprintf("  %d. %s", i+1, step.Describe())))
		}
		m = m.appendLine(b.String(), "")
	case chat.EventStep:
		m = m.appendLine(stepStyle.Render(fmt.Sprintf("✓ step %d: %s", ev.Index+1, ev.Step)), "")
	case chat.EventSummaryChunk:
		// Deltas are dropped from the feed; the terminal summary event
		// carries the full text and is the rendered source of truth.
	case chat.EventSummary:
		m = m.finishTurn(ev)
	}
	return m.refreshFeed(), waitForEvent(m.events, m.errs)
}

// finishTurn renders the terminal summary and persists the assistant reply.
func (m Model) finishTurn(ev chat.Event) Model {
	m.status = ""
	if ev.Error {
		return m.appendLine(errorStyle.Render(ev.Summary), "")
	}
	reply := chat.Message{Role: chat.RoleAssistant, Content: ev.Summary}
	m.history = append(m.history, reply)
	m.persist(reply)
	return m.appendLine(renderMessage(reply), "")
}

func (m Model) handleDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	m.streaming = false
	m.status = ""
	m.events = nil
	m.errs = nil
	m.cancel = nil
	if msg.err != nil {
		m = m.appendLine(errorStyle.Render(fmt.Sprintf("stream error: %v", msg.err)), "")
	}
	return m.refreshFeed(), nil
}

func (m Model) clearHistory() (tea.Model, tea.Cmd) {
	if m.streaming {
		return m, nil
	}
	m.history = nil
	m.lines = nil
	if m.store != nil && m.opts.SessionID != "" {
		if err := m.store.Clear(context.Background(), m.opts.SessionID); err != nil {
			m = m.appendLine(errorStyle.Render(fmt.Sprintf("clear session: %v", err)))
		}
	}
	return m.refreshFeed(), nil
}

// persist appends a message to the session store, ignoring the case where
// no store is configured.
func (m Model) persist(msg chat.Message) {
	if m.store == nil || m.opts.SessionID == "" {
		return
	}
	// Store errors do not interrupt the conversation.
	_ = m.store.Append(context.Background(), m.opts.SessionID, msg)
}

func (m Model) appendLine(lines ...string) Model {
	m.lines = append(m.lines, lines...)
	return m
}

func (m Model) refreshFeed() Model {
	if !m.ready {
		return m
	}
	m.feed.SetContent(strings.Join(m.lines, "\n"))
	m.feed.GotoBottom()
	return m
}

// View assembles the transcript feed, a one-line status bar, and the
// prompt bar.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var status string
	if m.streaming {
		label := m.status
		if label == "" {
			label = "Working..."
		}
		status = m.spinner.View() + " " + statusStyle.Render(label)
	} else {
		status = helpStyle.Render("enter: send · esc: cancel · ctrl+l: clear · ctrl+c: quit")
	}

	return m.feed.View() + "\n" + status + "\n> " + m.input.View()
}

// renderMessage formats one stored conversation turn for the feed.
func renderMessage(msg chat.Message) string {
	switch msg.Role {
	case chat.RoleUser:
		return userStyle.Render("You: ") + msg.Content
	case chat.RoleAssistant:
		return assistantStyle.Render("Assistant: ") + msg.Content
	default:
		return statusStyle.Render(msg.Content)
	}
}

// waitForEvent adapts the stream channels to a Bubble Tea command. Once the
// event channel closes it drains the error channel exactly once.
func waitForEvent(events <-chan chat.Event, errs <-chan error) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		if ev, ok := <-events; ok {
			return streamEventMsg(ev)
		}
		if errs != nil {
			if err, ok := <-errs; ok {
				return streamDoneMsg{err: err}
			}
		}
		return streamDoneMsg{}
	}
}
