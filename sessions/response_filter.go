package sessions

import (
	"regexp"
	"strings"
)

// ResponseFilter strips fragments of internal instructions that occasionally
// leak into model output, such as the model echoing its own system prompt
// back at the user.
type ResponseFilter struct {
	patterns []*regexp.Regexp
}

// NewResponseFilter compiles the given patterns. Invalid patterns are
// silently skipped rather than failing the whole filter.
func NewResponseFilter(patterns []string) *ResponseFilter {
	f := &ResponseFilter{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		f.patterns = append(f.patterns, re)
	}
	return f
}

// DefaultResponseFilter covers the leak shapes seen in practice: the model
// restating that it is an assistant with specific instructions.
func DefaultResponseFilter() *ResponseFilter {
	return NewResponseFilter([]string{
		`(?i)^as an ai (crypto |market )?assistant,?\s*`,
		`(?i)\(per my instructions[^)]*\)`,
		`(?i)my system prompt (says|tells me)[^.]*\.\s*`,
	})
}

// Apply removes all matched fragments and trims the result. A nil filter
// passes text through unchanged.
func (f *ResponseFilter) Apply(text string) string {
	if f == nil {
		return text
	}
	for _, re := range f.patterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
