package library

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortLast is the initial assigned to names that do not start with a Latin
// letter. It sorts after every letter and is rendered as the '0' header.
const SortLast = "ZZZ"

var articlePrefixes = []string{"THE ", "AN ", "A "}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Initial returns the letter a name is grouped under in indexed listings.
// Leading articles and punctuation are ignored; names starting with a digit
// or any non-Latin character group under SortLast.
func Initial(name string) string {
	name = strings.ToUpper(name)
	for _, p := range articlePrefixes {
		if strings.HasPrefix(name, p) {
			name = name[len(p):]
			break
		}
	}
	name = strings.Trim(name, punctuation)
	if len(name) == 0 {
		return SortLast
	}
	if c := name[0]; c >= 'A' && c <= 'Z' {
		return string(c)
	}
	return SortLast
}

// SortByInitial sorts names by their grouping initial, then alphabetically
// under a case insensitive collation
func SortByInitial(names []string) []string {
	// collators are not safe for concurrent use, so each sort gets its own
	c := collate.New(language.Und, collate.IgnoreCase)
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.CompareString(Initial(sorted[i])+" "+sorted[i], Initial(sorted[j])+" "+sorted[j]) < 0
	})
	return sorted
}

// SortHeader describes one group of an indexed listing: the header
// character, the position of its first name and the number of names.
type SortHeader struct {
	Char  rune
	Index int
	Count int
}

// BuildSortHeaders sorts the names and returns the header groups in header
// order, with the SortLast group rendered as '0' at the end
func BuildSortHeaders(names []string) []SortHeader {
	sorted := SortByInitial(names)

	groups := make(map[string]*SortHeader)
	var order []string
	for idx, name := range sorted {
		initial := Initial(name)
		if h, ok := groups[initial]; ok {
			h.Count++
			continue
		}
		ch := rune(initial[0])
		if initial == SortLast {
			ch = '0'
		}
		groups[initial] = &SortHeader{Char: ch, Index: idx, Count: 1}
		order = append(order, initial)
	}
	sort.Strings(order)

	headers := make([]SortHeader, len(order))
	for i, initial := range order {
		headers[i] = *groups[initial]
	}
	return headers
}
