// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/components/input"
	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/components/status"
	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/keymap"
	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/messages"
	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/styles"
	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

// ErrNoQueryService is reported when a question is asked without a router.
var ErrNoQueryService = errors.New("query service not available")

// chromeHeight is the number of lines used by the header, input and status bar.
const chromeHeight = 8

// entry is one question and its outcome.
type entry struct {
	question string
	answer   *domain.Answer
	err      error
}

// View is a scrolling transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	spinner    spinner.Model
	statusbar  *status.Bar

	query driving.QueryService
	ctx   context.Context

	entries []entry
	pending bool

	width  int
	height int
	ready  bool
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, query driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: viewport.New(80, 24-chromeHeight),
		spinner:    sp,
		statusbar:  status.NewBar(s, km.AskHelp()),
		query:      query,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context questions are asked under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the input.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Focus(), v.input.Init())
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AskCompleted:
		v.handleAskCompleted(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.pending {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(key, v.keymap.Clear):
		v.entries = nil
		v.statusbar.Clear()
		v.statusbar.SetMessage("Transcript cleared")
		v.refresh()
		return v, nil

	case keymap.Matches(key, v.keymap.ScrollUp), keymap.Matches(key, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case keymap.Matches(key, v.keymap.Previous):
		v.input.Previous()
		return v, nil

	case key == "down":
		v.input.Next()
		return v, nil

	case keymap.Matches(key, v.keymap.Submit):
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.pending {
			return v, nil
		}
		v.input.Submit(question)
		v.pending = true
		v.entries = append(v.entries, entry{question: question})
		v.statusbar.SetState(status.StateThinking)
		v.refresh()
		return v, tea.Batch(v.spinner.Tick, v.ask(question))
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask runs the question in a command so the UI stays responsive.
func (v *View) ask(question string) tea.Cmd {
	query := v.query
	ctx := v.ctx
	return func() tea.Msg {
		if query == nil {
			return messages.AskCompleted{Question: question, Err: ErrNoQueryService}
		}
		start := time.Now()
		answer, err := query.Ask(ctx, domain.QueryRequest{Question: question})
		return messages.AskCompleted{
			Question: question,
			Answer:   answer,
			Err:      err,
			Elapsed:  time.Since(start),
		}
	}
}

func (v *View) handleAskCompleted(msg messages.AskCompleted) {
	v.pending = false

	// The pending entry is always the last one unless the transcript was cleared.
	if n := len(v.entries); n > 0 && v.entries[n-1].question == msg.Question && v.entries[n-1].answer == nil && v.entries[n-1].err == nil {
		v.entries[n-1].answer = msg.Answer
		v.entries[n-1].err = msg.Err
	} else {
		v.entries = append(v.entries, entry{question: msg.Question, answer: msg.Answer, err: msg.Err})
	}

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else if msg.Answer != nil {
		v.statusbar.SetAnswered(string(msg.Answer.Intent), msg.Elapsed)
	}
	v.refresh()
}

// refresh re-renders the transcript and keeps the newest entry visible.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render(
			"Counting questions (how many, total, average, top) run as SQL.\n" +
				"Anything else is answered from monthly sales summaries.")
	}

	wrap := v.styles.Answer.Width(max(v.width-4, 20))
	blocks := make([]string, 0, len(v.entries))
	for i := range v.entries {
		e := &v.entries[i]
		lines := []string{v.styles.Question.Render("> " + e.question)}

		switch {
		case e.err != nil:
			lines = append(lines, v.styles.Error.Width(max(v.width-4, 20)).PaddingLeft(2).Render(e.err.Error()))
			var qerr *domain.QueryExecutionError
			if errors.As(e.err, &qerr) && qerr.Query != "" {
				lines = append(lines, v.styles.Query.Render(qerr.Query))
			}
		case e.answer != nil:
			lines = append(lines, wrap.Render(e.answer.Response))
			if e.answer.Query != "" {
				lines = append(lines, v.styles.Query.Render(e.answer.Query))
			}
			lines = append(lines, v.styles.Muted.PaddingLeft(2).Render(describe(e.answer)))
		default:
			lines = append(lines, "  "+v.spinner.View()+v.styles.Muted.Render(" thinking"))
		}

		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// describe summarises how an answer was produced.
func describe(a *domain.Answer) string {
	var s string
	switch a.Intent {
	case domain.IntentStructured:
		s = fmt.Sprintf("structured · %d rows", a.Rows)
	case domain.IntentSemantic:
		if a.Strategy == domain.StrategyNone {
			s = "semantic · no matching documents"
		} else {
			s = fmt.Sprintf("semantic · %s over %d documents", a.Strategy, a.Documents)
		}
	default:
		s = string(a.Intent)
	}
	if a.FellBack {
		s += " · fell back from structured"
	}
	return s
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("justask") + v.styles.Muted.Render("  Iowa liquor sales")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.transcript.Width = width
	v.transcript.Height = max(height-chromeHeight, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Pending reports whether a question is in flight.
func (v *View) Pending() bool {
	return v.pending
}

// Entries returns the number of questions in the transcript.
func (v *View) Entries() int {
	return len(v.entries)
}

// Transcript returns the rendered transcript.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Input returns the question input.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
