package components

import (
	"fmt"
	"strings"

	"github.com/Rorical/clanker/ui/styles"
)

// BannerInfo is what the session banner shows.
type BannerInfo struct {
	Profile     string
	Model       string
	Workspace   string
	SessionID   string
	Ready       bool
	QuitKeyword string
}

// RenderBanner renders the session welcome box.
func RenderBanner(info BannerInfo, width int) string {
	programStyle := styles.ProgramStyle()
	systemStyle := styles.SystemStyle()

	var lines []string
	lines = append(lines, programStyle.Render("-- CLANKER --"))
	if info.Ready {
		lines = append(lines, systemStyle.Render(fmt.Sprintf("Active Profile: %s [OK]", info.Profile)))
	} else {
		lines = append(lines, styles.WarningStyle().Render(fmt.Sprintf("Active Profile: %s [NOT CONFIGURED]", info.Profile)))
	}
	lines = append(lines,
		systemStyle.Render("Model: "+info.Model),
		systemStyle.Render("Workspace: "+info.Workspace),
		systemStyle.Render("Session: "+info.SessionID),
	)
	if !info.Ready {
		lines = append(lines,
			systemStyle.Render("Configure your profile to start chatting:"),
			systemStyle.Render("• Run: clanker profile add <name>"),
			systemStyle.Render("• Or set CLANKER_API_KEY"),
		)
	}
	lines = append(lines, systemStyle.Render(fmt.Sprintf("Controls: Ctrl+C or '%s' to exit", info.QuitKeyword)))

	return styles.BannerStyle(width).Render(strings.Join(lines, "\n"))
}
