// Package sqlscan extracts table and column references from raw SQL text.
//
// It is a structural scanner, not a parser. Constructs it does not recognise
// (sub-selects, computed expressions, schema-qualified names) are skipped
// rather than reported, so callers can always proceed with execution.
package sqlscan

import (
	"regexp"
	"slices"
	"sort"
	"strings"
)

const ident = `[a-z_][a-z0-9_]*`

// q wraps an identifier pattern with optional quoting.
const q = "[\"`]?"

var (
	tableRes = []*regexp.Regexp{
		regexp.MustCompile(`\bfrom\s+` + q + `(` + ident + `)` + q + `(\.)?`),
		regexp.MustCompile(`\bjoin\s+` + q + `(` + ident + `)` + q + `(\.)?`),
		regexp.MustCompile(`\binsert\s+into\s+` + q + `(` + ident + `)` + q + `(\.)?`),
		regexp.MustCompile(`\bupdate\s+` + q + `(` + ident + `)` + q + `(\.|\s*=)?`),
		regexp.MustCompile(`\bdelete\s+from\s+` + q + `(` + ident + `)` + q + `(\.)?`),
	}

	selectRe = regexp.MustCompile(`(?s)\bselect\s+(.*?)\s+from\s+` + q + `(` + ident + `)`)
	insertRe = regexp.MustCompile(`\binsert\s+into\s+` + q + `(` + ident + `)` + q + `\s*\(([^)]*)\)`)
	updateRe = regexp.MustCompile(`(?s)\bupdate\s+` + q + `(` + ident + `)` + q + `\s+set\s+(.*?)(?:\bwhere\b|\breturning\b|$)`)
	whereRe  = regexp.MustCompile(`\b(?:where|and|or)\s+(?:` + q + `(` + ident + `)` + q + `\.)?` + q + `(` + ident + `)` + q + `\s*=`)
	assignRe = regexp.MustCompile(`^\s*(?:` + q + `(` + ident + `)` + q + `\.)?` + q + `(` + ident + `)` + q + `\s*=`)
	columnRe = regexp.MustCompile(`^(?:` + q + `(` + ident + `)` + q + `\.)?` + q + `(` + ident + `)` + q + `$`)
	aliasRe  = regexp.MustCompile(`(?s)^(.*?)(?:\s+as)?\s+` + ident + `$`)

	keywords = map[string]bool{
		"select": true, "from": true, "where": true, "set": true, "and": true, "or": true,
		"not": true, "null": true, "true": true, "false": true, "exists": true, "join": true,
		"on": true, "as": true, "in": true, "values": true, "into": true, "lateral": true,
		"only": true, "distinct": true, "case": true, "when": true, "then": true, "else": true,
		"end": true, "is": true, "like": true, "limit": true, "order": true, "group": true,
	}
)

// References lists what a statement touches. Tables are in first-seen order;
// Columns maps a table to its referenced columns in first-seen order.
type References struct {
	Tables  []string
	Columns map[string][]string
}

// Extract scans sql case-insensitively for table and column references.
// String literals and comments are ignored. Unqualified filter columns belong
// to the table of the statement (or sub-select) they appear in.
func Extract(sql string) References {
	text := blank(strings.ToLower(sql))
	refs := References{Columns: map[string][]string{}}

	enclosing := enclosingParens(text)
	hits := scanTables(text, enclosing)
	if len(hits) == 0 {
		return refs
	}
	for _, h := range hits {
		if !slices.Contains(refs.Tables, h.name) {
			refs.Tables = append(refs.Tables, h.name)
		}
	}

	// SELECT <cols> FROM t
	if m := selectRe.FindStringSubmatch(text); m != nil {
		list := strings.TrimSpace(m[1])
		if list != "*" && !strings.Contains(list, "(") {
			list = strings.TrimPrefix(list, "distinct ")
			for _, item := range strings.Split(list, ",") {
				refs.addColumn(m[2], selectItem(item))
			}
		}
	}

	// INSERT INTO t (cols)
	if m := insertRe.FindStringSubmatch(text); m != nil {
		for _, item := range strings.Split(m[2], ",") {
			if c := columnRe.FindStringSubmatch(strings.TrimSpace(item)); c != nil {
				refs.addColumn(m[1], c[2])
			}
		}
	}

	// UPDATE t SET a = ..., b = ...
	if m := updateRe.FindStringSubmatch(text); m != nil {
		for _, item := range strings.Split(m[2], ",") {
			if c := assignRe.FindStringSubmatch(item); c != nil {
				refs.addQualified(c[1], c[2], m[1])
			}
		}
	}

	// WHERE|AND|OR col =
	for _, loc := range whereRe.FindAllStringSubmatchIndex(text, -1) {
		owner := ownerOf(hits, enclosing, loc[0])
		if owner == "" {
			continue
		}
		refs.addQualified(group(text, loc, 1), group(text, loc, 2), owner)
	}

	return refs
}

func group(text string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

// ownerOf returns the first table of the statement level containing pos, or
// "" when pos sits in a parenthesised expression that is not a sub-select.
func ownerOf(hits []hit, enclosing []int, pos int) string {
	scope := enclosing[pos]
	for _, h := range hits {
		if h.scope == scope {
			return h.name
		}
	}
	return ""
}

type hit struct {
	pos   int
	scope int
	name  string
}

// scanTables finds table references in position order. Names inside
// parentheses count only when the parentheses hold a sub-select, so
// EXTRACT(year FROM col) is not a table.
func scanTables(text string, enclosing []int) []hit {
	var hits []hit
	for _, re := range tableRes {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			// a trailing "." (schema-qualified) or "=" (ON DUPLICATE KEY UPDATE col =)
			// means the token is not a table we can provision
			if loc[4] >= 0 {
				continue
			}
			name := text[loc[2]:loc[3]]
			if keywords[name] {
				continue
			}
			scope := enclosing[loc[0]]
			if scope >= 0 && !subSelect(text, scope) {
				continue
			}
			hits = append(hits, hit{pos: loc[2], scope: scope, name: name})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	return hits
}

func subSelect(text string, open int) bool {
	inner := strings.TrimLeft(text[open+1:], " \t\r\n")
	return strings.HasPrefix(inner, "select") || strings.HasPrefix(inner, "with")
}

// enclosingParens maps every byte to the offset of the innermost open
// parenthesis around it, -1 at the top level.
func enclosingParens(text string) []int {
	out := make([]int, len(text))
	var stack []int
	for i := 0; i < len(text); i++ {
		if text[i] == ')' && len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			out[i] = -1
		} else {
			out[i] = stack[len(stack)-1]
		}
		if text[i] == '(' {
			stack = append(stack, i)
		}
	}
	return out
}

// blank replaces string literals and comments with spaces, keeping offsets.
func blank(text string) string {
	b := []byte(text)
	fill := func(from, to int) {
		for k := from; k < to && k < len(b); k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}
	for i := 0; i < len(b); i++ {
		switch {
		case b[i] == '\'':
			j := i + 1
			for j < len(b) {
				if b[j] == '\'' {
					if j+1 < len(b) && b[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			fill(i, j+1)
			i = j
		case b[i] == '-' && i+1 < len(b) && b[i+1] == '-':
			j := i
			for j < len(b) && b[j] != '\n' {
				j++
			}
			fill(i, j)
			i = j
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '*':
			j := len(b)
			if end := strings.Index(string(b[i+2:]), "*/"); end >= 0 {
				j = i + 2 + end + 2
			}
			fill(i, j)
			i = j - 1
		}
	}
	return string(b)
}

// selectItem reduces one select-list entry to a column reference, or "" when
// the entry is not a plain (optionally qualified or aliased) column.
func selectItem(item string) string {
	item = strings.TrimSpace(item)
	if c := columnRe.FindStringSubmatch(item); c != nil {
		return item
	}
	if m := aliasRe.FindStringSubmatch(item); m != nil {
		if c := columnRe.FindStringSubmatch(strings.TrimSpace(m[1])); c != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func (r *References) addColumn(table, item string) {
	if item == "" {
		return
	}
	c := columnRe.FindStringSubmatch(item)
	if c == nil {
		return
	}
	r.addQualified(c[1], c[2], table)
}

// addQualified records col for its qualifier when that is a known table, and
// for fallback when unqualified. Unknown qualifiers (aliases) are skipped.
func (r *References) addQualified(qualifier, col, fallback string) {
	if keywords[col] {
		return
	}
	table := fallback
	if qualifier != "" {
		if !slices.Contains(r.Tables, qualifier) {
			return
		}
		table = qualifier
	}
	if !slices.Contains(r.Tables, table) {
		return
	}
	if !slices.Contains(r.Columns[table], col) {
		r.Columns[table] = append(r.Columns[table], col)
	}
}
