package chat

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// GenerateToolID builds the deterministic key for one tracked tool
// execution: agent name and tool name joined with a dash, whitespace runs
// collapsed to dashes, lower-cased. Empty names fall back to "Agent" and
// "Tool".
func GenerateToolID(agentName, toolName string) string {
	if agentName == "" {
		agentName = "Agent"
	}
	if toolName == "" {
		toolName = "Tool"
	}
	return strings.ToLower(whitespaceRun.ReplaceAllString(agentName+"-"+toolName, "-"))
}
