package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/classima/searchd/internal/db"
	"github.com/classima/searchd/internal/domain/search/filter"
	"github.com/classima/searchd/internal/domain/search/query"
)

// fuzzyMinLen is the shortest token that gets fuzzy matching; shorter
// tokens match exactly to keep noise down.
const fuzzyMinLen = 4

// Search performs a paginated full-text search via FT.SEARCH.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative")
	}

	queryStr := BuildQueryString(q.Query)

	args := []string{q.Index, queryStr, "WITHSCORES"}

	if len(q.HighlightFields) > 0 {
		args = append(args, "HIGHLIGHT", "FIELDS", strconv.Itoa(len(q.HighlightFields)))
		args = append(args, q.HighlightFields...)
		args = append(args, "TAGS", q.HighlightOpen, q.HighlightClose)
	}

	if len(q.Sort) > 0 {
		dir := "ASC"
		if q.Sort[0].Desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.Sort[0].Field, dir)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	result, err := parseSearchResult(raw)
	if err != nil {
		return nil, err
	}

	// The index orders by the first sort level only; further levels break
	// ties within the returned page.
	if len(q.Sort) > 1 {
		sortHits(result.Hits, q.Sort)
	}

	return result, nil
}

// Count returns the number of documents matching a query via FT.SEARCH
// with LIMIT 0 0.
func (s *Store) Count(ctx context.Context, index string, q query.Query) (int, error) {
	if index == "" {
		return 0, fmt.Errorf("index name is required")
	}

	queryStr := BuildQueryString(q)

	cmd := s.b().Arbitrary("FT.SEARCH").
		Args(index, queryStr, "LIMIT", "0", "0", "DIALECT", "2").
		Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{Total: 0}, nil
	}

	hits := make([]db.SearchHit, 0, (len(raw)-1)/3)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		hits = append(hits, db.SearchHit{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Hits: hits}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// sortHits re-orders hits by the full multi-level comparator. Field values
// compare numerically when both parse as numbers, lexically otherwise.
func sortHits(hits []db.SearchHit, levels []db.SortField) {
	sort.SliceStable(hits, func(i, j int) bool {
		for _, lvl := range levels {
			a, b := hits[i].Fields[lvl.Field], hits[j].Fields[lvl.Field]
			cmp := compareFieldValues(a, b)
			if cmp == 0 {
				continue
			}
			if lvl.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareFieldValues(a, b string) int {
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// --- Query string building ---

// BuildQueryString translates a structured query into FT.SEARCH dialect 2
// syntax. Clause order: text relevance group, optional phrase booster,
// similarity term set, filters, negated excludes. An empty query matches
// everything ("*").
func BuildQueryString(q query.Query) string {
	var parts []string

	if q.Text != "" {
		if text := buildTextClause(q.Text); text != "" {
			parts = append(parts, text)
		}
		if q.Phrase {
			if phrase := buildPhraseClause(q.Text); phrase != "" {
				parts = append(parts, phrase)
			}
		}
	}

	if len(q.Terms) > 0 {
		if terms := buildTermSet(q.Terms); terms != "" {
			parts = append(parts, terms)
		}
	}

	for _, c := range q.Filters {
		if clause := buildClauseString(c); clause != "" {
			parts = append(parts, clause)
		}
	}

	for _, c := range q.Exclude {
		if clause := buildClauseString(c); clause != "" {
			parts = append(parts, "-"+clause)
		}
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// buildTextClause expands free text into a weighted per-field disjunction.
// Each token matches fuzzily when long enough to tolerate a typo.
func buildTextClause(text string) string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ""
	}

	matched := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		escaped := escapeQuery(tok)
		if len([]rune(tok)) >= fuzzyMinLen {
			matched = append(matched, "%"+escaped+"%")
		} else {
			matched = append(matched, escaped)
		}
	}
	tokenGroup := strings.Join(matched, " ")

	groups := make([]string, 0, len(query.TextFields))
	for _, fb := range query.TextFields {
		groups = append(groups, fmt.Sprintf(
			"(@%s:(%s) => { $weight: %g })", fb.Field, tokenGroup, fb.Boost,
		))
	}
	return "(" + strings.Join(groups, " | ") + ")"
}

// buildPhraseClause adds an optional exact-phrase booster. The leading ~
// makes it a ranking signal rather than a match requirement.
func buildPhraseClause(text string) string {
	tokens := tokenize(text)
	if len(tokens) < 2 {
		return ""
	}
	escaped := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		escaped = append(escaped, escapeQuery(tok))
	}
	return fmt.Sprintf(
		"~(@%s:\"%s\" => { $weight: %g })",
		query.PhraseField, strings.Join(escaped, " "), query.PhraseBoost,
	)
}

func buildTermSet(terms []string) string {
	escaped := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		escaped = append(escaped, escapeQuery(t))
	}
	if len(escaped) == 0 {
		return ""
	}
	return "(" + strings.Join(escaped, "|") + ")"
}

func buildClauseString(c filter.Clause) string {
	switch {
	case c.IsTerm():
		return buildTagClause(c.Field(), c.Term())
	case c.IsTerms():
		escaped := make([]string, 0, len(c.Terms()))
		for _, v := range c.Terms() {
			escaped = append(escaped, tagEscaper.Replace(v))
		}
		return fmt.Sprintf("@%s:{%s}", c.Field(), strings.Join(escaped, "|"))
	case c.IsRange():
		return buildNumericClause(c.Field(), c.GTE(), c.LTE())
	case c.IsGeo():
		g := c.Geo()
		return fmt.Sprintf("@%s:[%g %g %g km]", c.Field(), g.Lon, g.Lat, g.RadiusKm)
	default:
		return ""
	}
}

func buildTagClause(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

func buildNumericClause(key string, gte, lte *float64) string {
	minBound := "-inf"
	maxBound := "+inf"
	if gte != nil {
		minBound = fmt.Sprintf("%g", *gte)
	}
	if lte != nil {
		maxBound = fmt.Sprintf("%g", *lte)
	}
	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

func tokenize(text string) []string {
	return strings.Fields(strings.TrimSpace(text))
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
