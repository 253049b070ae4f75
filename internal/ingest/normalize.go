package ingest

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizeKey lowercases a natural-key component after cleaning it, so
// "Jane  Doe " and "jane doe" dedupe to the same contact.
func NormalizeKey(s string) string {
	return strings.ToLower(CleanText(s))
}
