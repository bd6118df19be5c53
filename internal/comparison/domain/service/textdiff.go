package service

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const textDiffContext = 2

// TextDetail renders a unified diff of two multi-line values. Single-line or
// equal values yield an empty string.
func TextDetail(a, b string) string {
	if a == b || (!strings.Contains(a, "\n") && !strings.Contains(b, "\n")) {
		return ""
	}
	u := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "portal_a",
		ToFile:   "portal_b",
		Context:  textDiffContext,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return ""
	}
	return s
}
