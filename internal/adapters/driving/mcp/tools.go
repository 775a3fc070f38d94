package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/litsearch/internal/core/domain"
	"github.com/custodia-labs/litsearch/internal/core/services"
)

// defaultLimit caps query_articles results when the caller gives no limit.
const defaultLimit = 10

// QueryInput is the input schema for the query_articles tool.
type QueryInput struct {
	Query      string `json:"query" jsonschema:"free-text description of the articles to find"`
	DateFrom   string `json:"date_from,omitempty" jsonschema:"inclusive lower bound on publication date (YYYY-MM-DD)"`
	DateTo     string `json:"date_to,omitempty" jsonschema:"inclusive upper bound on publication date (YYYY-MM-DD)"`
	Display    string `json:"display,omitempty" jsonschema:"projection: all, titles or keywords (default all)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	ParseDates bool   `json:"parse_dates,omitempty" jsonschema:"derive a date range from phrases like 'last month' in the query"`
}

// QueryOutput is the output schema for the query_articles tool.
type QueryOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// ResultOutput is one ranked article. Fields outside the display projection are omitted.
type ResultOutput struct {
	Key           string   `json:"key"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Date          string   `json:"date,omitempty"`
	Abstract      string   `json:"abstract,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	URL           string   `json:"url,omitempty"`
	Score         float64  `json:"score"`
	MatchedFields []string `json:"matched_fields,omitempty"`
}

// GetArticleInput is the input schema for the get_article tool.
type GetArticleInput struct {
	Key string `json:"key" jsonschema:"article key as returned by query_articles"`
}

// ArticleOutput is a stored article.
type ArticleOutput struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Source   string   `json:"source"`
	URL      string   `json:"url,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Date     string   `json:"date,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_articles",
		Description: "Find articles semantically similar to a free-text query, optionally restricted to a publication date range",
	}, s.handleQuery)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_article",
			Description: "Fetch a stored article by key",
		}, s.handleGetArticle)
	}
}

func (s *Server) handleQuery(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	filters, err := buildFilters(input, time.Now())
	if err != nil {
		return nil, QueryOutput{}, err
	}

	results, err := s.ports.Query.Query(ctx, input.Query, filters)
	if err != nil {
		return nil, QueryOutput{}, err
	}

	output := QueryOutput{
		Results: make([]ResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = toResultOutput(results[i], filters.Display)
	}
	return nil, output, nil
}

func buildFilters(input QueryInput, now time.Time) (domain.QueryFilters, error) {
	display, err := domain.ParseDisplayMode(input.Display)
	if err != nil {
		return domain.QueryFilters{}, err
	}
	filters := domain.QueryFilters{Display: display, Limit: input.Limit}
	if filters.Limit <= 0 {
		filters.Limit = defaultLimit
	}
	if input.DateFrom != "" {
		from, err := domain.ParseDate(input.DateFrom)
		if err != nil {
			return domain.QueryFilters{}, fmt.Errorf("date_from: %w", err)
		}
		filters.DateFrom = &from
	}
	if input.DateTo != "" {
		to, err := domain.ParseDate(input.DateTo)
		if err != nil {
			return domain.QueryFilters{}, fmt.Errorf("date_to: %w", err)
		}
		filters.DateTo = &to
	}
	if input.ParseDates {
		filters, _ = services.ApplyDateHint(input.Query, filters, now)
	}
	return filters, nil
}

func toResultOutput(r domain.QueryResult, mode domain.DisplayMode) ResultOutput {
	a := r.Article
	out := ResultOutput{Key: a.Key, Title: a.Title, Score: r.Score}
	switch mode {
	case domain.DisplayTitles:
	case domain.DisplayKeywords:
		out.Keywords = a.Keywords
	default:
		out.Authors = a.Authors
		out.Date = a.DateString()
		out.Abstract = a.Abstract
		out.Keywords = a.Keywords
		out.URL = a.URL
		for _, f := range r.MatchedFields {
			out.MatchedFields = append(out.MatchedFields, f.String())
		}
	}
	return out
}

func (s *Server) handleGetArticle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetArticleInput,
) (*mcp.CallToolResult, ArticleOutput, error) {
	if input.Key == "" {
		return nil, ArticleOutput{}, fmt.Errorf("%w: key is required", domain.ErrInvalidInput)
	}
	article, err := s.ports.Ingest.Get(ctx, input.Key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ArticleOutput{}, fmt.Errorf("article %s not found", input.Key)
	}
	if err != nil {
		return nil, ArticleOutput{}, err
	}
	return nil, toArticleOutput(article), nil
}

func toArticleOutput(a *domain.Article) ArticleOutput {
	return ArticleOutput{
		Key:      a.Key,
		Title:    a.Title,
		Source:   a.Source,
		URL:      a.URL,
		Authors:  a.Authors,
		Date:     a.DateString(),
		Abstract: a.Abstract,
		Summary:  a.Summary,
		Keywords: a.Keywords,
	}
}
