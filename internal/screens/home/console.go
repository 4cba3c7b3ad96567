package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/medsim/internal/progress"
	"github.com/abhisek/medsim/internal/ui/theme"
)

const titleFull = ` ███╗   ███╗███████╗██████╗ ███████╗██╗███╗   ███╗
 ████╗ ████║██╔════╝██╔══██╗██╔════╝██║████╗ ████║
 ██╔████╔██║█████╗  ██║  ██║███████╗██║██╔████╔██║
 ██║╚██╔╝██║██╔══╝  ██║  ██║╚════██║██║██║╚██╔╝██║
 ██║ ╚═╝ ██║███████╗██████╔╝███████║██║██║ ╚═╝ ██║
 ╚═╝     ╚═╝╚══════╝╚═════╝ ╚══════╝╚═╝╚═╝     ╚═╝`

const titleCompact = "M · E · D · S · I · M"

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	return max(20, min(60, frameWidth-6))
}

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	art := titleFull
	if compact {
		art = titleCompact
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(style.Render(art))
}

// renderStatsBar shows stars, rank and cases played in a double-bordered box.
func renderStatsBar(st progress.Standing, played, total, cw int, compact bool) string {
	stars := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	rank := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	cases := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)

	var stats string
	if compact {
		stats = fmt.Sprintf("%s %s %s",
			stars.Render(fmt.Sprintf("★%d", st.Total)),
			rank.Render(st.Rank.DisplayName()),
			cases.Render(fmt.Sprintf("%d/%d", played, total)))
	} else {
		stats = fmt.Sprintf("%s  %s  %s",
			stars.Render(fmt.Sprintf("★ %d STARS", st.Total)),
			rank.Render(strings.ToUpper(st.Rank.DisplayName())),
			cases.Render(fmt.Sprintf("%d/%d LEVELS CLEARED", played, total)))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(cw-2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(stats)
}

const buttonWidth = 24

// renderMenu renders each menu item as a fixed-width button.
func renderMenu(labels []string, selected int, disabled map[int]bool, cw int, compact bool) string {
	if compact {
		return renderMenuCompact(labels, selected, disabled, cw)
	}
	base := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	selectedBtn := base.Bold(true).Foreground(theme.BgDark).Background(theme.Primary).BorderForeground(theme.Primary)
	normalBtn := base.Foreground(theme.Text).BorderForeground(theme.Border)
	disabledBtn := base.Foreground(theme.TextDim).BorderForeground(theme.Border)

	buttons := make([]string, 0, len(labels))
	for i, label := range labels {
		switch {
		case disabled[i]:
			buttons = append(buttons, disabledBtn.Render(label))
		case i == selected:
			buttons = append(buttons, selectedBtn.Render("▸ "+label))
		default:
			buttons = append(buttons, normalBtn.Render(label))
		}
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(buttons, "\n"))
}

// renderMenuCompact renders menu items as plain lines for small terminals.
func renderMenuCompact(labels []string, selected int, disabled map[int]bool, cw int) string {
	lines := make([]string, 0, len(labels))
	for i, label := range labels {
		switch {
		case disabled[i]:
			lines = append(lines, theme.Classified.Render("   "+label))
		case i == selected:
			lines = append(lines, lipgloss.NewStyle().
				Foreground(theme.BgDark).
				Background(theme.Primary).
				Bold(true).
				Render(" ▸ "+label+" "))
		default:
			lines = append(lines, theme.Unselected.Render("   "+label))
		}
	}
	return lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(strings.Join(lines, "\n"))
}

// renderOfflineBanner warns that patient replies are canned.
func renderOfflineBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ Offline: patient replies are scripted (set an LLM API key, see medsim --help)")
}

// renderCabinetFrame wraps content in a double-border frame centered in the
// given dimensions.
func renderCabinetFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Border).
		Width(width-2).
		Height(height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
