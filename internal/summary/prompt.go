package summary

import (
	"fmt"
	"strings"

	"github.com/ibeckermayer/xreader/internal/types"
)

// BuildPrompt constructs the LLM prompt for summarizing posts
func BuildPrompt(prefs types.Preferences, posts []PayloadPost) string {
	var sb strings.Builder

	sb.WriteString("You are writing a short digest of a user's social media timeline.\n\n")

	sb.WriteString("## User Preferences\n")
	if prefs.Interests == "" && prefs.NotInterests == "" {
		sb.WriteString("No preferences configured. Favor informative, newsworthy posts.\n")
	} else {
		if prefs.Interests != "" {
			sb.WriteString(fmt.Sprintf("Interested in: %s\n", prefs.Interests))
		}
		if prefs.NotInterests != "" {
			sb.WriteString(fmt.Sprintf("Not interested in (leave out): %s\n", prefs.NotInterests))
		}
	}

	sb.WriteString("\n## Posts\n\n")
	for i, p := range posts {
		sb.WriteString(fmt.Sprintf("### Post %d (ID: %s)\n", i+1, p.PostID))
		sb.WriteString(fmt.Sprintf("Author: %s\n", p.PostAuthor))
		sb.WriteString(fmt.Sprintf("Content: %s\n\n", p.PostText))
	}

	sb.WriteString("## Task\n\n")
	sb.WriteString("Group the posts the user would care about into a few topics.\n")
	sb.WriteString("For each topic write one or two sentences and list the IDs of the posts it is based on.\n")
	sb.WriteString("Only use IDs that appear above.\n\n")

	sb.WriteString("Respond with a JSON object in this exact format:\n")
	sb.WriteString("```json\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"items\": [\n")
	sb.WriteString("    {\n")
	sb.WriteString("      \"description\": \"Several people discussed...\",\n")
	sb.WriteString("      \"relatedPostsIds\": [\"abc123\", \"def456\"]\n")
	sb.WriteString("    }\n")
	sb.WriteString("  ]\n")
	sb.WriteString("}\n")
	sb.WriteString("```\n")

	return sb.String()
}
