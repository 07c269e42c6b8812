package commands

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-dialogue/core/events"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const consoleWidth = 80

type consoleStyles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Dim       lipgloss.Style
	Error     lipgloss.Style
}

func newConsoleStyles(r *lipgloss.Renderer) consoleStyles {
	return consoleStyles{
		Banner:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		User:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff")),
		Assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		Dim:       r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("#ff5f5f")),
	}
}

// console prints the conversation as it happens. Diagnostics go to slog, the
// transcript goes to out.
type console struct {
	out    io.Writer
	width  int
	styles consoleStyles

	// next describes what the upcoming AssistantSpeechStarted is.
	next spokenKind
}

type spokenKind int

const (
	spokenReply spokenKind = iota
	spokenFallback
	spokenFarewell
)

func newConsole(out io.Writer) *console {
	return &console{
		out:    out,
		width:  consoleWidth,
		styles: newConsoleStyles(lipgloss.NewRenderer(out)),
	}
}

// Banner introduces the session. The first turn starts listening without a
// state change, so the listening prompt is printed here too.
func (c *console) Banner(exitPhrase string) {
	c.println(c.styles.Banner.Render(fmt.Sprintf("You may start speaking. Say '%s' to quit.", exitPhrase)))
	c.listening()
}

func (c *console) Handle(event events.Event) {
	switch e := event.(type) {
	case events.UserTranscriptFinal:
		c.line(c.styles.User, "You said: ", e.Transcript)
	case events.UserExitRequested:
		c.next = spokenFarewell
	case events.AssistantResponseFailed:
		slog.Warn("reply failed, speaking fallback", "error", e.Err)
		c.next = spokenFallback
	case events.AssistantSpeechStarted:
		switch c.next {
		case spokenFarewell:
		case spokenFallback:
			c.line(c.styles.Dim, "Assistant: ", e.Text)
		default:
			c.line(c.styles.Assistant, "Assistant: ", e.Text)
		}
		c.next = spokenReply
	case events.AssistantSpeechFailed:
		slog.Warn("speech output failed", "error", e.Err)
		c.println(c.styles.Dim.Render("(could not speak the reply)"))
	case events.SessionStateChanged:
		slog.Debug("session state changed", "from", e.From, "to", e.To)
		if e.To == "listening" {
			c.listening()
		}
	case events.SessionTerminated:
		switch e.Reason {
		case events.TerminationInterrupt:
			c.println(c.styles.Dim.Render("Session terminated."))
		case events.TerminationFailure:
			c.println(c.styles.Error.Render(fmt.Sprintf("Session failed: %v", e.Err)))
		}
	default:
		slog.Debug("session event", "kind", event.Kind())
	}
}

// line prints label followed by text wrapped to the console width, with
// continuation lines aligned under the first word.
func (c *console) line(style lipgloss.Style, label, text string) {
	labelWidth := lipgloss.Width(label)
	wrapped := wordwrap.String(text, max(c.width-labelWidth, 20))

	first, rest, _ := strings.Cut(wrapped, "\n")
	out := style.Render(label) + first
	if rest != "" {
		out += "\n" + indent.String(rest, uint(labelWidth))
	}
	c.println(out)
}

func (c *console) listening() {
	c.println(c.styles.Dim.Render("Listening…"))
}

func (c *console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}
