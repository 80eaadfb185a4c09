package search

import "strings"

// normalizeQuery trims the query and collapses internal runs of whitespace to
// one space. It decides whether a query is blank; the query itself is passed
// on unchanged.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
