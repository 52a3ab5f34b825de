// Package status provides the index status view for the TUI.
package status

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	bar "github.com/just-ask-ai/justask/internal/adapters/driving/tui/components/status"
	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/keymap"
	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/messages"
	"github.com/just-ask-ai/justask/internal/adapters/driving/tui/styles"
	"github.com/just-ask-ai/justask/internal/core/domain"
	"github.com/just-ask-ai/justask/internal/core/ports/driving"
)

// View shows the last synchronisation report and store counts.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *bar.Bar

	index driving.IndexService
	stats driving.StatsService
	ctx   context.Context

	sync    domain.SyncStatus
	counts  *domain.IndexStats
	err     error
	loading bool

	width  int
	height int
	ready  bool
}

// NewView creates a status view. Either service may be nil.
func NewView(s *styles.Styles, km *keymap.KeyMap, index driving.IndexService, stats driving.StatsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: bar.NewBar(s, km.StatusHelp()),
		index:     index,
		stats:     stats,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the current status.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	index, stats, ctx := v.index, v.stats, v.ctx
	return func() tea.Msg {
		var msg messages.StatusLoaded
		if index != nil {
			msg.Sync = index.Status()
		}
		if stats != nil {
			msg.Stats, msg.Err = stats.Stats(ctx)
		}
		return msg
	}
}

// Update handles messages for the status view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.StatusLoaded:
		v.loading = false
		v.sync = msg.Sync
		v.counts = msg.Stats
		v.err = msg.Err
		if msg.Err != nil {
			v.statusbar.SetState(bar.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
		} else {
			v.statusbar.Clear()
			v.statusbar.SetMessage("Updated " + time.Now().Format("15:04:05"))
		}

	case tea.KeyMsg:
		key := msg.String()
		switch {
		case keymap.Matches(key, v.keymap.Back), key == "q":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case keymap.Matches(key, v.keymap.Refresh):
			return v, v.Init()
		}
	}

	return v, nil
}

// View renders the status view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Index Status"))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n")
	} else {
		v.renderCounts(&b)
		b.WriteString("\n")
		v.renderSync(&b)
	}

	b.WriteString("\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderCounts(b *strings.Builder) {
	b.WriteString(v.styles.Subtitle.Render("Stores"))
	b.WriteString("\n")
	if v.counts == nil {
		b.WriteString(v.styles.Muted.Render("  not available"))
		b.WriteString("\n")
		return
	}
	field(b, v.styles, "Table", v.counts.Table)
	field(b, v.styles, "Transactions", humanize.Comma(int64(v.counts.Transactions)))
	field(b, v.styles, "Documents", humanize.Comma(int64(v.counts.Documents)))
}

func (v *View) renderSync(b *strings.Builder) {
	b.WriteString(v.styles.Subtitle.Render("Last sync"))
	b.WriteString("\n")

	if v.sync.Running {
		b.WriteString(v.styles.Warning.Render("  running"))
		b.WriteString("\n")
	}

	r := v.sync.LastReport
	if r == nil {
		b.WriteString(v.styles.Muted.Render("  never run"))
		b.WriteString("\n")
		return
	}

	field(b, v.styles, "Run", r.RunID)
	field(b, v.styles, "Finished", humanize.Time(r.FinishedAt))
	field(b, v.styles, "Duration", r.Duration().Round(time.Second).String())
	field(b, v.styles, "Pages", humanize.Comma(int64(r.PagesFetched)))
	field(b, v.styles, "Submitted", humanize.Comma(int64(r.DocumentsSubmitted)))
	field(b, v.styles, "Skipped", humanize.Comma(int64(r.DocumentsSkipped)))
	field(b, v.styles, "Final offset", humanize.Comma(int64(r.FinalOffset)))
	if r.BatchesFailed > 0 {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("  %d of %d batches failed", r.BatchesFailed, r.BatchesSubmitted)))
		b.WriteString("\n")
	}
	if v.sync.LastError != "" {
		b.WriteString(v.styles.Error.Render("  " + v.sync.LastError))
		b.WriteString("\n")
	}
}

func field(b *strings.Builder, s *styles.Styles, label, value string) {
	b.WriteString(s.Muted.Render(fmt.Sprintf("  %-14s", label)))
	b.WriteString(s.Normal.Render(value))
	b.WriteString("\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
