// Package theme centralizes the terminal styles used by the CLI output.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/repowatch/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
)

// HeaderStyle is used for top-level section headers such as the repository
// banner and the delivery totals line.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// LaneStyle renders a lane that has an established watermark.
var LaneStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// PendingStyle marks a lane that has not bootstrapped yet.
var PendingStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// ErrorStyle is used for failure lines in command output.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// DimStyle is used for secondary detail such as file paths and timestamps.
var DimStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// KindLabelStyle returns a color-coded style for an item kind label.
func KindLabelStyle(kind model.ItemKind) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch kind {
	case model.KindPullRequest:
		return base.Foreground(ColorBlue)
	case model.KindRelease:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// KindLabel returns the short human label for an item kind.
func KindLabel(kind model.ItemKind) string {
	switch kind {
	case model.KindPullRequest:
		return "PR"
	case model.KindRelease:
		return "release"
	default:
		return string(kind)
	}
}
