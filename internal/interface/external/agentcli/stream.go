package agentcli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// streamEvent is the subset of the agent's stream-json events the runner
// cares about. Anything else is ignored.
type streamEvent struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	Message struct {
		Content []contentBlock `json:"content"`
	} `json:"message"`
}

type contentBlock struct {
	Type  string                 `json:"type"`
	Text  string                 `json:"text"`
	Name  string                 `json:"name"`
	Input map[string]interface{} `json:"input"`
}

// streamCollector accumulates the text a role actually produced while
// turning the raw stream into short progress updates. Marker parsing later
// runs on the accumulated text, never on the filtered view.
type streamCollector struct {
	role string
	logf func(format string, args ...interface{})
	out  strings.Builder
	last string
}

func newStreamCollector(role string, logf func(string, ...interface{})) *streamCollector {
	return &streamCollector{role: role, logf: logf}
}

func (c *streamCollector) text() string {
	return strings.TrimSpace(c.out.String())
}

// consume processes one output line and returns a progress update worth
// reporting, or "".
func (c *streamCollector) consume(line string) string {
	clean := stripANSI(line)
	stripped := strings.TrimSpace(clean)

	// stream-json mode: structured events carry the agent's text
	if strings.HasPrefix(stripped, "{") {
		var event streamEvent
		if err := json.Unmarshal([]byte(stripped), &event); err == nil && event.Type != "" {
			return c.consumeEvent(event)
		}
	}

	// Plain-text mode: capture everything, report selectively
	c.out.WriteString(clean)
	c.out.WriteString("\n")
	return c.dedupe(extractProgress(stripped))
}

func (c *streamCollector) consumeEvent(event streamEvent) string {
	switch event.Type {
	case "result":
		if event.Result != "" {
			c.out.WriteString(event.Result)
			c.out.WriteString("\n")
		}
	case "assistant":
		for _, block := range event.Message.Content {
			switch block.Type {
			case "text":
				if block.Text == "" {
					continue
				}
				c.out.WriteString(block.Text)
				c.out.WriteString("\n")
				for _, textLine := range strings.Split(block.Text, "\n") {
					if update := c.dedupe(extractProgress(strings.TrimSpace(textLine))); update != "" {
						return update
					}
				}
			case "tool_use":
				return describeTool(block.Name, block.Input)
			}
		}
	}
	return ""
}

func (c *streamCollector) dedupe(update string) string {
	if update == "" || update == c.last {
		return ""
	}
	c.last = update
	return update
}

// describeTool maps a tool_use block to a short human-readable hint
func describeTool(name string, input map[string]interface{}) string {
	arg := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := input[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}
	shorten := func(s string, n int) string {
		s = strings.TrimSpace(s)
		if len(s) > n {
			return s[:n]
		}
		return s
	}

	switch strings.ToLower(name) {
	case "bash":
		if cmd := arg("command"); cmd != "" {
			return "bash: " + shorten(cmd, 80)
		}
		return "bash"
	case "read":
		return "reading: " + shortPath(arg("file_path", "path"))
	case "write":
		return "writing: " + shortPath(arg("file_path", "path"))
	case "edit":
		return "editing: " + shortPath(arg("file_path", "path"))
	case "glob":
		return "file search: " + shorten(arg("pattern", "path"), 60)
	case "grep":
		return "code search: " + shorten(arg("pattern"), 50)
	case "task":
		return "subtask: " + shorten(arg("description"), 60)
	case "webfetch":
		return "fetching: " + shorten(arg("url"), 60)
	case "websearch":
		return "web search: " + shorten(arg("query"), 60)
	default:
		return fmt.Sprintf("%s tool", name)
	}
}

func shortPath(p string) string {
	parts := strings.Split(strings.ReplaceAll(p, "\\", "/"), "/")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], "/")
	}
	return p
}
