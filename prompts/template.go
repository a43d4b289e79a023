package prompts

import (
	"regexp"
	"strings"
)

// PromptTemplate represents a string template that can be formatted.
// Variables are in the format `{{.variable_name}}`.
type PromptTemplate struct {
	Template string
}

// NewPromptTemplate creates a new prompt template.
func NewPromptTemplate(template string) PromptTemplate {
	return PromptTemplate{Template: template}
}

// Format substitutes variables in the template string. Variables without a
// value in vars are left untouched.
func (p PromptTemplate) Format(vars map[string]string) string {
	prompt := p.Template
	for key, value := range vars {
		placeholder := "{{." + key + "}}"
		prompt = strings.ReplaceAll(prompt, placeholder, value)
	}
	return prompt
}

var variablePattern = regexp.MustCompile(`\{\{\.([a-zA-Z_][a-zA-Z0-9_]*)\}\}`)

// Variables returns the names of all placeholders in the template, in order
// of first appearance.
func (p PromptTemplate) Variables() []string {
	matches := variablePattern.FindAllStringSubmatch(p.Template, -1)
	seen := make(map[string]bool, len(matches))
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
