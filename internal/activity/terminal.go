package activity

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	messageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))

	levelStyles = map[Level]lipgloss.Style{
		LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB74D")),
		LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5252")),
		LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#66BB6A")),
	}
)

// Terminal renders entries as "[timestamp] [LEVEL] message" lines.
type Terminal struct {
	w io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Write(entry Entry) {
	_, _ = fmt.Fprintln(t.w, Format(entry))
}

func Format(entry Entry) string {
	level := entry.Level.String()
	if style, ok := levelStyles[entry.Level]; ok {
		level = style.Render("[" + level + "]")
	} else {
		level = "[" + level + "]"
	}

	return fmt.Sprintf("%s %s %s",
		timestampStyle.Render("["+entry.Time.Format(TimestampLayout)+"]"),
		level,
		messageStyle.Render(entry.Message),
	)
}
