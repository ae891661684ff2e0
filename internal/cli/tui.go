package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/repoharvest/repoharvest/pkg/crawl"
)

// crawlDoneMsg signals that the crawler closed its event channel.
type crawlDoneMsg struct{}

// crawlModel renders live crawl progress from the crawler's event stream.
type crawlModel struct {
	events <-chan crawl.Event
	cancel func()

	total    int
	finished int
	skipped  int
	failed   int
	current  string
	limited  string

	frame int
	done  bool
}

// runCrawlTUI shows live progress until the crawler closes the event
// channel or the user quits. Quitting cancels the crawl; the checkpoint
// keeps every row finished so far.
func runCrawlTUI(total int, events <-chan crawl.Event, cancel func()) error {
	m := crawlModel{events: events, cancel: cancel, total: total}
	_, err := tea.NewProgram(m).Run()
	return err
}

func (m crawlModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m crawlModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return crawlDoneMsg{}
		}
		return ev
	}
}

func (m crawlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}

	case crawl.Event:
		m.frame++
		switch msg.Kind {
		case crawl.EventRowStarted:
			m.current = msg.RepoURL
			m.limited = ""
		case crawl.EventRowFinished:
			m.finished++
			m.current = ""
			if msg.Err != nil {
				m.failed++
			}
		case crawl.EventRowSkipped:
			m.skipped++
		case crawl.EventRateLimited:
			m.limited = msg.Message
		}
		return m, m.waitForEvent()

	case crawlDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

var tuiFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m crawlModel) View() string {
	if m.done {
		return ""
	}

	var sb strings.Builder
	processed := m.finished + m.skipped

	sb.WriteString(StyleTitle.Render("Crawling repositories"))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "  %s %s\n",
		styleIconSpinner.Render(tuiFrames[m.frame%len(tuiFrames)]),
		StyleValue.Render(progressBar(processed, m.total)))
	fmt.Fprintf(&sb, "  %s\n",
		StyleDim.Render(fmt.Sprintf("%d/%d rows · %d skipped · %d failed", processed, m.total, m.skipped, m.failed)))

	if m.current != "" {
		fmt.Fprintf(&sb, "  %s %s\n", StyleDim.Render(iconArrow), m.current)
	}
	if m.limited != "" {
		fmt.Fprintf(&sb, "  %s\n", StyleWarning.Render(m.limited))
	}

	sb.WriteString("\n")
	sb.WriteString(StyleDim.Render("  press q to stop (progress is checkpointed)"))
	sb.WriteString("\n")
	return sb.String()
}

// progressBar renders a fixed-width text progress bar.
func progressBar(done, total int) string {
	const width = 30
	if total <= 0 {
		total = 1
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
