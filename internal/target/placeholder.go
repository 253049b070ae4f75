package target

import (
	"regexp"
	"strings"
)

// DefaultPlaceholderPattern recognizes the synthetic addresses the analytics
// import seeded: unknown@/noemail@ markers and the dummy domains.
const DefaultPlaceholderPattern = `(?i)^(unknown@|noemail@|placeholder)|@dummy\.local$|@example\.(com|org)$`

// CompilePlaceholderPattern builds the placeholder matcher. Empty input
// falls back to the default pattern.
func CompilePlaceholderPattern(pattern string) (func(string) bool, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPlaceholderPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return func(email string) bool {
		email = strings.TrimSpace(email)
		if email == "" {
			return true
		}
		return re.MatchString(email)
	}, nil
}
