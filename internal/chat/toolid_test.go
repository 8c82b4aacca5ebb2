package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateToolID(t *testing.T) {
	assert.Equal(t, "report-agent-web-search", GenerateToolID("Report Agent", "Web Search"))
	assert.Equal(t, "agent-tool", GenerateToolID("", ""))
	assert.Equal(t, "a-b", GenerateToolID("A", "B"))
}

func TestGenerateToolID_CollapsesWhitespaceRuns(t *testing.T) {
	assert.Equal(t, "deep-research-agent-tool", GenerateToolID("Deep \t Research Agent", ""))
	assert.Equal(t, "agent-multi-word-tool", GenerateToolID("", "Multi  Word\nTool"))
}

func TestGenerateToolID_SameInputsSameID(t *testing.T) {
	a := GenerateToolID("Worker", "Fetch")
	b := GenerateToolID("Worker", "Fetch")
	assert.Equal(t, a, b)
}
