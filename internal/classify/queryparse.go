package classify

import (
	"regexp"
	"strings"
)

// queryMethodPrefix matches Spring-Data-style derived query method names:
// findByEmail, deleteAllByStatus, findTop10ByAmountGreaterThan, ...
var queryMethodPrefix = regexp.MustCompile(`^(find|read|get|query|search|stream|count|exists|delete|remove|update)(First\d*|Top\d*|All|Distinct)*By`)

// comparison suffixes stripped from each derived-query field segment, longest
// first so e.g. GreaterThanEqual wins over GreaterThan.
var comparisonSuffixes = []string{
	"GreaterThanEqual",
	"LessThanEqual",
	"GreaterThan",
	"LessThan",
	"IsNotNull",
	"IsNull",
	"NotNull",
	"NotLike",
	"NotIn",
	"Containing",
	"Contains",
	"StartingWith",
	"EndingWith",
	"IgnoreCase",
	"Between",
	"Before",
	"After",
	"Like",
	"Null",
	"True",
	"False",
	"Equals",
	"Not",
	"In",
	"Is",
}

// IsDerivedQueryName reports whether the method name follows the derived
// query naming convention.
func IsDerivedQueryName(name string) bool {
	return queryMethodPrefix.MatchString(name)
}

// IsWriteQueryName reports whether a derived query name is a write operation
// (delete/remove/update). Severity differentiation happens in scoring; the
// classifier flags reads and writes identically.
func IsWriteQueryName(name string) bool {
	return strings.HasPrefix(name, "delete") ||
		strings.HasPrefix(name, "remove") ||
		strings.HasPrefix(name, "update")
}

// ParseDerivedQueryFields extracts the filter field names from a derived
// query method name: the prefix and an OrderBy tail are stripped, the rest is
// split on And/Or, and comparison suffixes are removed from each segment.
// Returns nil when the name is not a derived query.
func ParseDerivedQueryFields(name string) []string {
	loc := queryMethodPrefix.FindStringIndex(name)
	if loc == nil {
		return nil
	}

	rest := name[loc[1]:]
	if rest == "" {
		return nil
	}

	// The OrderBy tail sorts, it does not filter.
	if i := strings.Index(rest, "OrderBy"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return nil
	}

	var fields []string
	for _, segment := range splitOnConnectors(rest) {
		segment = stripComparisonSuffix(segment)
		if segment == "" {
			continue
		}
		fields = append(fields, lowerFirst(segment))
	}
	return fields
}

// splitOnConnectors splits a derived-query tail on the And/Or connectors,
// honoring the uppercase boundary so field names containing "and" survive.
func splitOnConnectors(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if isConnectorAt(s, i, "And") || isConnectorAt(s, i, "Or") {
			n := 3
			if isConnectorAt(s, i, "Or") && !isConnectorAt(s, i, "And") {
				n = 2
			}
			if i > start {
				parts = append(parts, s[start:i])
			}
			i += n - 1
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// isConnectorAt reports whether the connector word starts at i and is
// followed by an uppercase letter (the start of the next field segment).
func isConnectorAt(s string, i int, word string) bool {
	if !strings.HasPrefix(s[i:], word) {
		return false
	}
	next := i + len(word)
	if next >= len(s) {
		return false
	}
	c := s[next]
	return c >= 'A' && c <= 'Z'
}

func stripComparisonSuffix(segment string) string {
	for _, suffix := range comparisonSuffixes {
		if strings.HasSuffix(segment, suffix) && len(segment) > len(suffix) {
			return segment[:len(segment)-len(suffix)]
		}
	}
	return segment
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	c := s[0]
	if c >= 'A' && c <= 'Z' {
		return string(c+'a'-'A') + s[1:]
	}
	return s
}

// whereClause finds the WHERE clause of an explicit query string.
var whereClause = regexp.MustCompile(`(?is)\bwhere\b(.*)$`)

// whereField matches `alias.field <op>` or `field <op>` references inside a
// WHERE clause.
var whereField = regexp.MustCompile(`(?i)(?:\b(\w+)\.)?(\w+)\s*(?:=|<>|!=|<=|>=|<|>|\blike\b|\bin\b|\bbetween\b|\bis\b)`)

// ParseQueryWhereFields extracts filter field names from an explicit query
// string's WHERE clause. Alias prefixes are dropped; parameter markers and
// SQL keywords are skipped. Best-effort: an unparseable query yields nil.
func ParseQueryWhereFields(query string) []string {
	m := whereClause.FindStringSubmatch(query)
	if m == nil {
		return nil
	}

	var fields []string
	seen := make(map[string]bool)
	for _, match := range whereField.FindAllStringSubmatch(m[1], -1) {
		field := match[2]
		lower := strings.ToLower(field)
		if sqlKeywords[lower] || strings.HasPrefix(field, ":") {
			continue
		}
		if !seen[lower] {
			seen[lower] = true
			fields = append(fields, field)
		}
	}
	return fields
}

var sqlKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "null": true, "true": true,
	"false": true, "select": true, "from": true, "where": true,
	"order": true, "by": true, "group": true, "having": true,
}
