package main

import (
	"strings"
	"testing"
)

func TestSummarizeCmdNoProvider(t *testing.T) {
	a := newTestApp(t)

	_, err := run(t, a, "summarize")
	if err == nil || !strings.Contains(err.Error(), "no provider configured") {
		t.Errorf("expected missing-provider error, got %v", err)
	}
}

func TestSummarizeCmdUnknownProvider(t *testing.T) {
	a := newTestApp(t)

	_, err := run(t, a, "summarize", "--provider", "nope")
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Errorf("expected unknown-provider error, got %v", err)
	}
}
