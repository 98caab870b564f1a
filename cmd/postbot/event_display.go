package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/steveyegge/postbot/internal/events"
)

// displayEvent prints one history event in a two-line format
func displayEvent(event *events.Event) {
	timestamp := event.Timestamp.Local().Format("15:04:05")
	eventType := color.New(color.FgMagenta).Sprint(event.Type)

	fmt.Printf("%s [%s] %s: %s\n",
		eventIcon(event),
		timestamp,
		eventType,
		severityColor(event.Severity).Sprint(truncateString(event.Message, 70)),
	)

	if metadata := eventMetadata(event); metadata != "" {
		fmt.Printf("  %s\n", color.New(color.FgHiBlack).Sprint(metadata))
	}
}

func eventIcon(event *events.Event) string {
	switch event.Type {
	case events.EventTypeGitOperation:
		return "🔀"
	case events.EventTypeDuplicateCheck:
		return "🔍"
	case events.EventTypeStateTransition:
		if event.Severity == events.SeverityError {
			return "❌"
		}
		return "➡️"
	}
	switch event.Severity {
	case events.SeverityError:
		return "❌"
	case events.SeverityWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

func severityColor(severity events.EventSeverity) *color.Color {
	switch severity {
	case events.SeverityError:
		return color.New(color.FgRed)
	case events.SeverityWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.Reset)
	}
}

// eventMetadata picks the few data fields worth a second line, pipe-separated
func eventMetadata(event *events.Event) string {
	var parts []string
	switch event.Type {
	case events.EventTypeGitOperation:
		if data, err := event.GetGitOperationData(); err == nil {
			parts = append(parts, "git "+strings.Join(append([]string{data.Command}, data.Args...), " "))
			if data.CommitHash != "" {
				parts = append(parts, "commit="+shortHash(data.CommitHash))
			}
			if data.Error != "" {
				parts = append(parts, "error="+truncateString(data.Error, 60))
			}
		}
	case events.EventTypeStateTransition:
		if data, err := event.GetStateTransitionData(); err == nil {
			if data.Step != "" {
				parts = append(parts, "step="+data.Step)
			}
			if data.Error != "" {
				parts = append(parts, "error="+truncateString(data.Error, 60))
			}
		}
	case events.EventTypeDuplicateCheck:
		if data, err := event.GetDuplicateCheckData(); err == nil {
			parts = append(parts,
				fmt.Sprintf("score=%.3f", data.Score),
				fmt.Sprintf("compared=%d", data.ComparedCount))
			if data.MatchedPath != "" {
				parts = append(parts, "match="+data.MatchedPath)
			}
		}
	}
	return strings.Join(parts, " | ")
}

// truncateString shortens s to at most maxLen runes, ending in "..."
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
