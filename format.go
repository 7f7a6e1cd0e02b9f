package clicktest

import (
	"fmt"

	"github.com/oomph-ac/clicktest/analysis"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// Format renders the summary of a click test of the subject with the name passed as a coloured, two-line
// Minecraft message. Use text.ANSI to print it to a terminal.
func Format(name string, sum analysis.Summary) string {
	var status string
	switch sum.Verdict {
	case analysis.Suspicious:
		status = text.Colourf("<red>Highly suspicious</red>")
	case analysis.Borderline:
		status = text.Colourf("<gold>Borderline</gold>")
	default:
		status = text.Colourf("<green>No strong evidence</green>")
	}

	ping := "unknown"
	if sum.ReferenceLatency >= 0 {
		ping = fmt.Sprintf("%d ms", sum.ReferenceLatency.Milliseconds())
	}

	return text.Colourf("<aqua>[ClickTest]</aqua> <white>%s</white> - ", name) + status + "\n" + text.Colourf(
		"<grey>Events: %d | CPS: %.2f | CV: %.3f | Duplicate-interval ratio: %.2f | Avg ping: %s</grey>",
		sum.Events, sum.CPS, sum.CV, sum.DuplicateRatio, ping,
	)
}
