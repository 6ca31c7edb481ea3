package cmd

import "github.com/charmbracelet/lipgloss"

var (
	styleName     = lipgloss.NewStyle().Bold(true)
	styleCategory = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Width(8)
	styleDim      = lipgloss.NewStyle().Faint(true)
	styleOK       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFail     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func statusMark(ok bool) string {
	if ok {
		return styleOK.Render("ok")
	}
	return styleFail.Render("down")
}
