package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/chartbeat-labs/capitolwords/internal/db"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
)

// Search runs a composed boolean query via FT.SEARCH.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	if req.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if req.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	args := buildSearchArgs(req)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseSearchResult(raw)
}

// buildSearchArgs assembles the full FT.SEARCH argument list.
func buildSearchArgs(req *db.SearchRequest) []string {
	args := []string{req.IndexName, renderQuery(req.Query)}

	if hl := req.Query.Highlight(); hl != nil {
		args = append(args,
			"SUMMARIZE", "FIELDS", "1", hl.Field,
			"FRAGS", "1", "LEN", strconv.Itoa(hl.FragmentSize),
			"HIGHLIGHT", "FIELDS", "1", hl.Field,
		)
	}

	if req.SortBy != "" {
		dir := "ASC"
		if req.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", req.SortBy, dir)
	}

	if len(req.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(req.ReturnFields)))
		args = append(args, req.ReturnFields...)
	}

	args = append(args,
		"WITHSCORES",
		"LIMIT", strconv.Itoa(req.Offset), strconv.Itoa(req.Limit),
		"DIALECT", "2",
	)

	return args
}

// renderQuery translates a composed query into FT.SEARCH query syntax.
// Adjacent terms are ANDed; the should group "(a | b)" requires at least one
// of its members, which is the only minimum-match count the monitor uses.
func renderQuery(q query.Query) string {
	var parts []string

	for _, c := range q.Must() {
		parts = append(parts, renderClause(c))
	}

	if should := q.Should(); len(should) > 0 {
		group := make([]string, 0, len(should))
		for _, c := range should {
			group = append(group, renderClause(c))
		}
		parts = append(parts, "("+strings.Join(group, " | ")+")")
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func renderClause(c query.Clause) string {
	switch c.Kind() {
	case query.KindPhrase:
		return fmt.Sprintf("@%s:\"%s\"", c.Field(), phraseEscaper.Replace(c.Text()))
	case query.KindRange:
		// until is exclusive, hence the open paren on the upper bound.
		return fmt.Sprintf("@%s:[%d (%d]", c.Field(), c.From().Unix(), c.Until().Unix())
	default:
		return fmt.Sprintf("@%s:(%s)", c.Field(), escapeQuery(c.Text()))
	}
}

// parseSearchResult parses a WITHSCORES reply.
// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
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

	entries := make([]db.SearchEntry, 0, (len(raw)-1)/3)
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

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
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

// --- Query escaping ---

// Raw filter values are taken verbatim from the request; escaping special
// query syntax here is what keeps them from being interpreted as operators.
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

var phraseEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
)
