package session

import (
	"fmt"
	"strings"
)

// Output is the accumulating session artifact: named content fields plus
// quality/progress metrics. The session is complete when every required
// field is non-empty.
type Output struct {
	Fields   map[string]string `json:"fields,omitempty"`
	Required []string          `json:"required"`
	Quality  int               `json:"quality"`
	Progress int               `json:"progress"`
}

// NewOutput creates an empty output with the given required field names.
func NewOutput(required []string) Output {
	return Output{
		Fields:   make(map[string]string),
		Required: required,
	}
}

// Set stores content for a field.
func (o *Output) Set(field, content string) {
	if o.Fields == nil {
		o.Fields = make(map[string]string)
	}
	o.Fields[field] = content
}

// Get returns the content of a field.
func (o Output) Get(field string) string {
	return o.Fields[field]
}

// Complete reports whether every required field is non-empty. Pure function
// of the output state; calling it twice without mutation gives the same
// answer.
func (o Output) Complete() bool {
	for _, field := range o.Required {
		if strings.TrimSpace(o.Fields[field]) == "" {
			return false
		}
	}
	return true
}

// MissingFields returns the required fields that are still empty, in
// declaration order.
func (o Output) MissingFields() []string {
	var missing []string
	for _, field := range o.Required {
		if strings.TrimSpace(o.Fields[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Render produces the markdown artifact written next to the session record.
func (o Output) Render() string {
	var sb strings.Builder
	for _, field := range o.Required {
		content := o.Fields[field]
		if strings.TrimSpace(content) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s\n\n%s\n\n", field, content))
	}
	return sb.String()
}
