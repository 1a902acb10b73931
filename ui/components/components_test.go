package components

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderErrorIsOneLine(t *testing.T) {
	out := RenderError(errors.New("stream failed\nwith details\non more lines"))

	assert.Equal(t, "❌ stream failed", out)
	assert.Equal(t, "❌ unknown error", RenderError(nil))
}

func TestRenderPromptAndFarewell(t *testing.T) {
	assert.Equal(t, PromptText, RenderPrompt())
	assert.Equal(t, FarewellText, RenderFarewell())
}

func TestRenderBanner(t *testing.T) {
	ready := RenderBanner(BannerInfo{
		Profile:     "work",
		Model:       "gpt-4o-mini",
		Workspace:   "/tmp/ws",
		SessionID:   "abc",
		Ready:       true,
		QuitKeyword: "quit",
	}, 80)
	assert.Contains(t, ready, "-- CLANKER --")
	assert.Contains(t, ready, "Active Profile: work [OK]")
	assert.Contains(t, ready, "Workspace: /tmp/ws")
	assert.Contains(t, ready, "'quit' to exit")
	assert.NotContains(t, ready, "Configure your profile")
	for _, line := range strings.Split(ready, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), 80)
	}

	unconfigured := RenderBanner(BannerInfo{Profile: "default", QuitKeyword: "quit"}, 80)
	assert.Contains(t, unconfigured, "[NOT CONFIGURED]")
	assert.Contains(t, unconfigured, "clanker profile add <name>")
}
