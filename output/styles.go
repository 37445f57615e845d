package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#A40000")
	mutedColor   = lipgloss.Color("#888888")
	okColor      = lipgloss.Color("#00AA00")
	warnColor    = lipgloss.Color("#FFA500")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	StaticStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	CleanStyle = lipgloss.NewStyle().
			Foreground(okColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)
)

var titleCaser = cases.Title(language.English)

// label turns a snake_case key into a column heading
func label(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}
