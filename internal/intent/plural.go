package intent

import (
	"fmt"
	"strings"
)

// Pluralize appends "s" unless the name already ends in one.
//
// This is a naming heuristic, not English: irregular plurals ("person",
// "child") and words ending in "s" ("status") are left as they are.
func Pluralize(name string) string {
	if name == "" || strings.HasSuffix(name, "s") {
		return name
	}
	return name + "s"
}

// InferTable derives a table name from a method name when the convention
// does not spell the table out. For "_by_" names the operation token and the
// "_by_..." tail are dropped, a "_status" suffix is stripped and the first
// "_and_" segment is pluralized. Otherwise the remainder after the operation
// token is the table.
//
//	get_image_by_user_id        -> images
//	set_image_status_by_user_id -> images
//	get_widgets                 -> widgets
//
// A remainder starting with a connective ("by", "with", "and") is rejected.
func InferTable(name string) (string, error) {
	_, rest, found := strings.Cut(name, "_")
	if !found || rest == "" {
		return "", &ParseError{Name: name, Reason: "cannot infer table"}
	}
	if head, _, by := strings.Cut(rest, sepBy); by {
		rest, _, _ = strings.Cut(head, sepAnd)
		if prefix, ok := strings.CutSuffix(rest, suffixSts); ok && prefix != "" {
			rest = prefix
		}
	}
	if !identRe.MatchString(rest) {
		return "", &ParseError{Name: name, Reason: "cannot infer table"}
	}
	switch first, _, _ := strings.Cut(rest, "_"); first {
	case "by", "with", "and":
		return "", &ParseError{Name: name, Reason: fmt.Sprintf("table %q starts with the reserved word %q", rest, first)}
	}
	if reserved[rest] {
		return "", &ParseError{Name: name, Reason: fmt.Sprintf("table %q is a reserved word", rest)}
	}
	return Pluralize(rest), nil
}
