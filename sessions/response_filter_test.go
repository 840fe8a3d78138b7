package sessions

import (
	"testing"
)

func TestResponseFilter_NilPassesThrough(t *testing.T) {
	var f *ResponseFilter
	if got := f.Apply("unchanged"); got != "unchanged" {
		t.Errorf("Expected nil filter to pass text through, got %q", got)
	}
}

func TestResponseFilter_StripsLeakedPreamble(t *testing.T) {
	f := DefaultResponseFilter()
	got := f.Apply("As an AI crypto assistant, Bitcoin is trading at $50,000.")
	if got != "Bitcoin is trading at $50,000." {
		t.Errorf("Expected leaked preamble stripped, got %q", got)
	}
}

func TestResponseFilter_LeavesCleanTextAlone(t *testing.T) {
	f := DefaultResponseFilter()
	clean := "Bitcoin is trading at $50,000 with strong momentum."
	if got := f.Apply(clean); got != clean {
		t.Errorf("Expected clean text unchanged, got %q", got)
	}
}

func TestResponseFilter_SkipsInvalidPatterns(t *testing.T) {
	f := NewResponseFilter([]string{`(unclosed`, `valid`})
	if got := f.Apply("a valid b"); got != "a  b" {
		t.Errorf("Expected valid pattern applied despite invalid one, got %q", got)
	}
}
