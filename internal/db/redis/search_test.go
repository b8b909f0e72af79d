package redis

import (
	"strings"
	"testing"
	"time"

	"github.com/chartbeat-labs/capitolwords/internal/db"
	"github.com/chartbeat-labs/capitolwords/internal/domain/query"
)

func TestRenderQuery_MatchAll(t *testing.T) {
	q := query.Conjunctive(nil, nil, nil)
	if got := renderQuery(q); got != "*" {
		t.Errorf("empty query should render as *, got %q", got)
	}
}

func TestRenderQuery_Conjunctive(t *testing.T) {
	q := query.Conjunctive([]query.Filter{
		query.Title("Budget Act"),
		query.Speaker("sanders"),
		query.Content("social security"),
	}, nil, nil)

	got := renderQuery(q)
	want := `@title:"Budget Act" @speakers:(sanders) @content:(social security)`
	if got != want {
		t.Errorf("renderQuery = %q, want %q", got, want)
	}
}

func TestRenderQuery_DateRangeBounds(t *testing.T) {
	start := time.Date(2017, 1, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2017, 1, 11, 0, 0, 0, 0, time.UTC)
	q := query.Conjunctive(nil, &query.DateRange{Start: start, End: end}, nil)

	got := renderQuery(q)
	// Inclusive end day: upper bound is next midnight, exclusive.
	want := "@date_issued:[1484092800 (1484179200]"
	if got != want {
		t.Errorf("renderQuery = %q, want %q", got, want)
	}
}

func TestRenderQuery_DisjunctiveEntities(t *testing.T) {
	start := time.Date(2017, 1, 11, 0, 0, 0, 0, time.UTC)
	q := query.DisjunctiveEntities([]string{"social security", "medicare"}, start, 1, nil)

	got := renderQuery(q)
	want := "@date_issued:[1484092800 (1484179200] (@content:(social security) | @content:(medicare))"
	if got != want {
		t.Errorf("renderQuery = %q, want %q", got, want)
	}
}

func TestRenderQuery_EscapesSpecialCharacters(t *testing.T) {
	q := query.Conjunctive([]query.Filter{query.Content("trump-care (2017)")}, nil, nil)
	got := renderQuery(q)
	for _, needle := range []string{`\-`, `\(`, `\)`} {
		if !strings.Contains(got, needle) {
			t.Errorf("rendered query %q should contain escaped %q", got, needle)
		}
	}
}

func TestBuildSearchArgs_HighlightAndSort(t *testing.T) {
	q := query.Conjunctive(
		[]query.Filter{query.Content("medicare")},
		nil,
		&query.Highlight{Field: query.FieldNameContent, FragmentSize: 500},
	)
	req := &db.SearchRequest{
		IndexName: "cw:crec:idx",
		Query:     q,
		SortBy:    query.FieldNameDateIssued,
		SortDesc:  true,
		Limit:     20,
	}

	args := buildSearchArgs(req)
	joined := strings.Join(args, " ")

	if args[0] != "cw:crec:idx" {
		t.Errorf("first arg should be the index name, got %q", args[0])
	}
	for _, fragment := range []string{
		"SUMMARIZE FIELDS 1 content FRAGS 1 LEN 500",
		"HIGHLIGHT FIELDS 1 content",
		"SORTBY date_issued DESC",
		"WITHSCORES",
		"LIMIT 0 20",
		"DIALECT 2",
	} {
		if !strings.Contains(joined, fragment) {
			t.Errorf("args %q should contain %q", joined, fragment)
		}
	}
}

func TestBuildSearchArgs_NoHighlight(t *testing.T) {
	req := &db.SearchRequest{
		IndexName: "cw:crec:idx",
		Query:     query.Conjunctive([]query.Filter{query.Content("medicare")}, nil, nil),
		Offset:    40,
		Limit:     20,
	}

	joined := strings.Join(buildSearchArgs(req), " ")
	if strings.Contains(joined, "SUMMARIZE") || strings.Contains(joined, "HIGHLIGHT") {
		t.Errorf("args %q should not request highlighting", joined)
	}
	if !strings.Contains(joined, "LIMIT 40 20") {
		t.Errorf("args %q should page from the requested offset", joined)
	}
}

func TestBuildCreateArgs_Schema(t *testing.T) {
	def := db.NewIndex("cw:crec:idx").
		Prefix("cw:crec:").
		Text("title").
		Text("content").
		Text("speakers").
		Text("named_entities").
		NumericSortable("date_issued").
		MustBuild()

	args, err := buildCreateArgs(def)
	if err != nil {
		t.Fatalf("buildCreateArgs: %v", err)
	}

	joined := strings.Join(args, " ")
	want := "cw:crec:idx ON HASH PREFIX 1 cw:crec: SCHEMA " +
		"title TEXT content TEXT speakers TEXT named_entities TEXT date_issued NUMERIC SORTABLE"
	if joined != want {
		t.Errorf("create args = %q, want %q", joined, want)
	}
}
