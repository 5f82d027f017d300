package artwork

import (
	"strings"
	"unicode"
)

// CleanName folds an artist or album name onto the cache key form: lower
// case with everything except letters and digits removed. "The Wall" and
// "the wall" collide on purpose.
func CleanName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
