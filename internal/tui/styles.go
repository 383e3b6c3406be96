// Package tui implements the storefront terminal UI using Bubble Tea.
package tui

import "github.com/charmbracelet/lipgloss"

// Warm coffee palette.
var (
	colorCream     = lipgloss.Color("#FFF8E7")
	colorCaramel   = lipgloss.Color("#D4A574")
	colorMocha     = lipgloss.Color("#8B7355")
	colorRoast     = lipgloss.Color("#5D4037")
	colorHighlight = lipgloss.Color("#FF9800")
	colorSuccess   = lipgloss.Color("#4CAF50")
	colorWarning   = lipgloss.Color("#FFC107")
	colorError     = lipgloss.Color("#F44336")
	colorMuted     = lipgloss.Color("#9E9E9E")
)

// Styles holds all the lipgloss styles for the TUI.
type Styles struct {
	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	ListTitle   lipgloss.Style

	// Product details
	ProductName        lipgloss.Style
	ProductPrice       lipgloss.Style
	OriginalPrice      lipgloss.Style
	ProductDescription lipgloss.Style
	InStock            lipgloss.Style
	OutOfStock         lipgloss.Style

	// Cart drawer
	Drawer       lipgloss.Style
	DrawerTitle  lipgloss.Style
	LineSelected lipgloss.Style
	Total        lipgloss.Style
	Savings      lipgloss.Style
	Gift         lipgloss.Style
	Region       lipgloss.Style

	// General
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Box       lipgloss.Style
	HelpBar   lipgloss.Style
}

// DefaultStyles returns the default TUI styles.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().Padding(1, 2),

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMocha).
			MarginBottom(1).
			Padding(0, 1),

		HeaderTitle: lipgloss.NewStyle().
			Foreground(colorCaramel).
			Bold(true),

		ListTitle: lipgloss.NewStyle().
			Foreground(colorCaramel).
			Bold(true).
			MarginBottom(1),

		ProductName: lipgloss.NewStyle().
			Foreground(colorCaramel).
			Bold(true).
			MarginBottom(1),

		ProductPrice: lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true),

		OriginalPrice: lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true),

		ProductDescription: lipgloss.NewStyle().
			Foreground(colorCream).
			MarginTop(1).
			MarginBottom(1),

		InStock:    lipgloss.NewStyle().Foreground(colorSuccess),
		OutOfStock: lipgloss.NewStyle().Foreground(colorError),

		Drawer: lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(colorCaramel).
			Padding(1, 2),

		DrawerTitle: lipgloss.NewStyle().
			Foreground(colorCaramel).
			Bold(true).
			MarginBottom(1),

		LineSelected: lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true),

		Total: lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true),

		Savings: lipgloss.NewStyle().Foreground(colorWarning),

		Gift: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorRoast).
			Padding(0, 1).
			MarginTop(1),

		Region: lipgloss.NewStyle().
			Foreground(colorMocha).
			Italic(true),

		Subtle:    lipgloss.NewStyle().Foreground(colorMuted),
		Highlight: lipgloss.NewStyle().Foreground(colorHighlight).Bold(true),
		Warning:   lipgloss.NewStyle().Foreground(colorWarning),
		Error:     lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Success:   lipgloss.NewStyle().Foreground(colorSuccess),

		Box: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorMocha).
			Padding(1, 2),

		HelpBar: lipgloss.NewStyle().
			Foreground(colorMuted).
			MarginTop(1),
	}
}
