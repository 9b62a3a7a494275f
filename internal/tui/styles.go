package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/payline/pkg/domain"
)

// Shimmer animation for the PAYLINE logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// logoDeep and logoBright bound the gold gradient of the wordmark.
var (
	logoDeep   = [3]float64{58, 42, 16}   // #3a2a10
	logoBright = [3]float64{245, 197, 66} // #f5c542
)

// logoBrightness is the wave intensity of letter i of n at frame, in [0.05, 1].
func logoBrightness(frame, i, n int) float64 {
	t := float64(frame)
	x := float64(i) / float64(n-1)
	phase := t*0.1 - x*3.0 + math.Sin(t*0.023)*2.0
	b := math.Pow(math.Sin(phase)*0.5+0.5, 1.3)
	b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
	return math.Max(0.05, math.Min(1, b))
}

// renderShimmerLogo renders "P A Y L I N E" with a gold wave moving across it.
func renderShimmerLogo(frame int) string {
	const text = "PAYLINE"
	var sb strings.Builder
	for i := range len(text) {
		b := logoBrightness(frame, i, len(text))
		var rgb [3]int
		for c := range rgb {
			rgb[c] = clampByte(logoDeep[c] + b*(logoBright[c]-logoDeep[c]))
		}
		color := fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2])
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color)).Render(text[i : i+1]))
	}
	return sb.String()
}

func clampByte(v float64) int {
	return int(math.Max(0, math.Min(255, v)))
}

var (
	// Base styles
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f5c542"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	flashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#86efac"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#111118")).
			Background(lipgloss.Color("#f5c542")).
			Bold(true).
			Padding(0, 1)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#606878"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f5c542")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	// Notification type colors
	notificationColors = map[domain.NotificationType]lipgloss.Color{
		domain.NotificationSuccess: lipgloss.Color("#4ade80"),
		domain.NotificationWarning: lipgloss.Color("#f59e0b"),
		domain.NotificationError:   lipgloss.Color("#e06060"),
		domain.NotificationInfo:    lipgloss.Color("#60a0e0"),
	}
)

// NotificationStyle returns the style for a notification type marker.
func NotificationStyle(t domain.NotificationType) lipgloss.Style {
	if c, ok := notificationColors[t]; ok {
		return lipgloss.NewStyle().Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0"))
}

// RoleStyle returns a bold style colored for the given role ID.
func RoleStyle(roleID string) lipgloss.Style {
	if r, ok := domain.Roles[roleID]; ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(r.HexColor)).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Bold(true)
}

// RoleBadge returns a short colored badge string for a role, e.g. "[Admin]".
func RoleBadge(roleID string) string {
	r, ok := domain.Roles[roleID]
	if !ok {
		return ""
	}
	return RoleStyle(roleID).Render("[" + r.Name + "]")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}
