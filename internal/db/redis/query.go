package redis

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kailas-cloud/qdex/internal/domain/search/filter"
)

// Characters with query syntax meaning inside TAG values and free text terms.
const (
	tagSpecials  = `\,.<>{}"':;!?@#$%^&*()-+=~|/[] `
	termSpecials = `\'"@{}()|-~*[]!%^$<>=;+`
)

var (
	tagEscaper  = escaper(tagSpecials)
	termEscaper = escaper(termSpecials)
)

func escaper(specials string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(specials))
	for _, r := range specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

func escapeQuery(s string) string { return termEscaper.Replace(s) }

// buildFilter renders expr as an FT.SEARCH query: must terms are ANDed,
// should terms form one OR group and must_not terms are negated.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(expr.Must())+len(expr.MustNot())+1)
	for _, c := range expr.Must() {
		parts = append(parts, buildCondition(c))
	}
	if should := expr.Should(); len(should) > 0 {
		alts := make([]string, len(should))
		for i, c := range should {
			alts[i] = buildCondition(c)
		}
		parts = append(parts, "("+strings.Join(alts, " | ")+")")
	}
	for _, c := range expr.MustNot() {
		parts = append(parts, "-"+buildCondition(c))
	}
	return strings.Join(parts, " ")
}

// queryOrAll returns the filter query, or "*" to match every document.
func queryOrAll(expr filter.Expression) string {
	if q := buildFilter(expr); q != "" {
		return q
	}
	return "*"
}

func buildCondition(c filter.Condition) string {
	switch c.Kind() {
	case filter.KindMatch:
		return buildTagFilter(c.Key(), c.Match())
	case filter.KindRange:
		return buildNumericFilter(c.Key(), *c.Range())
	case filter.KindMissing:
		return "ismissing(@" + c.Key() + ")"
	case filter.KindPrefix:
		return buildPrefixFilter(c.Key(), c.Prefix())
	}
	return ""
}

func buildTagFilter(key, value string) string {
	return "@" + key + ":{" + tagEscaper.Replace(value) + "}"
}

// buildPrefixFilter matches every word of prefix, the last one as a term prefix.
// Prefix expansion needs at least two characters, shorter tails match exactly.
func buildPrefixFilter(key, prefix string) string {
	words := strings.FieldsFunc(prefix, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
	if len(words) == 0 {
		return fmt.Sprintf("@%s:(%s)", key, escapeQuery(prefix))
	}
	for i, w := range words {
		words[i] = escapeQuery(strings.ToLower(w))
	}
	if last := words[len(words)-1]; len([]rune(last)) >= 2 {
		words[len(words)-1] = last + "*"
	}
	return fmt.Sprintf("@%s:(%s)", key, strings.Join(words, " "))
}

// buildNumericFilter renders "@key:[lo hi]" with "(" marking exclusive bounds.
func buildNumericFilter(key string, r filter.Range) string {
	return fmt.Sprintf("@%s:[%s %s]", key, bound(r.GT(), r.GTE(), "-inf"), bound(r.LT(), r.LTE(), "+inf"))
}

func bound(exclusive, inclusive *float64, open string) string {
	switch {
	case exclusive != nil:
		return "(" + strconv.FormatFloat(*exclusive, 'g', -1, 64)
	case inclusive != nil:
		return strconv.FormatFloat(*inclusive, 'g', -1, 64)
	}
	return open
}
