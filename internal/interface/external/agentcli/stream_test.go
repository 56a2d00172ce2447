package agentcli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectorPlainText(t *testing.T) {
	c := newStreamCollector("DEVELOPER", nil)

	update := c.consume("Implementing the parser")
	assert.Equal(t, "Implementing the parser", update)

	c.consume("DEV_STATUS: DONE")
	assert.Contains(t, c.text(), "Implementing the parser")
	assert.Contains(t, c.text(), "DEV_STATUS: DONE")
}

func TestCollectorDeduplicatesUpdates(t *testing.T) {
	c := newStreamCollector("DEVELOPER", nil)

	assert.Equal(t, "same line", c.consume("same line"))
	assert.Empty(t, c.consume("same line"))
}

func TestCollectorAssistantEvent(t *testing.T) {
	c := newStreamCollector("TESTER", nil)

	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"Running the suite now"}]}}`
	update := c.consume(line)
	assert.Equal(t, "Running the suite now", update)
	assert.Contains(t, c.text(), "Running the suite now")
}

func TestCollectorResultEvent(t *testing.T) {
	c := newStreamCollector("TESTER", nil)

	c.consume(`{"type":"assistant","message":{"content":[{"type":"text","text":"checking"}]}}`)
	c.consume(`{"type":"result","result":"All checks passed\nTEST_STATUS: PASS"}`)

	assert.Contains(t, c.text(), "TEST_STATUS: PASS")
}

func TestCollectorToolUseEvent(t *testing.T) {
	c := newStreamCollector("DEVELOPER", nil)

	line := `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"bash","input":{"command":"go test ./..."}}]}}`
	update := c.consume(line)
	assert.Equal(t, "bash: go test ./...", update)
	// Tool chatter never lands in the captured text
	assert.Empty(t, c.text())
}

func TestCollectorIgnoresUnknownEvents(t *testing.T) {
	c := newStreamCollector("DEVELOPER", nil)
	assert.Empty(t, c.consume(`{"type":"system","subtype":"init"}`))
	assert.Empty(t, c.text())
}

func TestCollectorMalformedJSONFallsBackToPlain(t *testing.T) {
	c := newStreamCollector("DEVELOPER", nil)
	c.consume(`{"type": broken`)
	assert.Contains(t, c.text(), `{"type": broken`)
}

func TestDescribeTool(t *testing.T) {
	tests := []struct {
		name  string
		tool  string
		input map[string]interface{}
		want  string
	}{
		{"bash", "bash", map[string]interface{}{"command": "ls"}, "bash: ls"},
		{"read", "Read", map[string]interface{}{"file_path": "/a/b/c/main.go"}, "reading: c/main.go"},
		{"write", "write", map[string]interface{}{"file_path": "pkg/x.go"}, "writing: pkg/x.go"},
		{"grep", "grep", map[string]interface{}{"pattern": "func main"}, "code search: func main"},
		{"unknown", "mystery", nil, "mystery tool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeTool(tt.tool, tt.input))
		})
	}
}
