package components

import (
	"strings"

	"github.com/Rorical/clanker/ui/styles"
)

const (
	PromptText   = "🗑️ AGENT> "
	FarewellText = "👋 Goodbye!"
)

// RenderPrompt renders the input prompt.
func RenderPrompt() string {
	return styles.PromptStyle().Render(PromptText)
}

// RenderFarewell renders the exit message.
func RenderFarewell() string {
	return styles.ProgramStyle().Render(FarewellText)
}

// RenderError renders err as a single diagnostic line.
func RenderError(err error) string {
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}
	message, _, _ = strings.Cut(strings.TrimSpace(message), "\n")
	return styles.ErrorStyle().Render("❌ " + message)
}
