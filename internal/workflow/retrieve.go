package workflow

import (
	"context"
	"fmt"
	"strings"

	"agent-qa/backend/internal/search"
)

// FallbackContext replaces search results when the search service is
// unavailable.
const FallbackContext = "Web search was unavailable. The answer is based on existing knowledge only."

const untitled = "No Title"

// ContextRetriever augments the question with web search results. Search
// failures degrade to FallbackContext and never abort the run.
type ContextRetriever struct {
	searcher   search.Searcher
	maxResults int
	logger     Logger
	recorder   Recorder
}

// NewContextRetriever creates a ContextRetriever. A nil searcher means
// search is unconfigured.
func NewContextRetriever(searcher search.Searcher, maxResults int, logger Logger, recorder Recorder) *ContextRetriever {
	if maxResults <= 0 {
		maxResults = DefaultConfig().SearchResults
	}
	return &ContextRetriever{searcher: searcher, maxResults: maxResults, logger: orNop(logger), recorder: orNopRecorder(recorder)}
}

// Run sets Context from the search results for the question text.
func (r *ContextRetriever) Run(ctx context.Context, s State) (State, error) {
	if s.Question == "" {
		r.logger.Warn("question text missing, skipping context search", "question_id", s.QuestionID)
		return s, nil
	}

	next := s.clone()
	if r.searcher == nil {
		r.logger.Warn("web search is not configured, using fallback context", "question_id", s.QuestionID)
		r.recorder.SearchDegraded()
		next.Context = FallbackContext
		return next, nil
	}

	results, err := r.searcher.Search(ctx, s.Question, r.maxResults)
	if err != nil {
		r.logger.Warn("web search failed, using fallback context", "question_id", s.QuestionID, "error", err)
		r.recorder.SearchDegraded()
		next.Context = FallbackContext
		return next, nil
	}

	next.Context = FormatContext(results)
	r.logger.Debug("context retrieved", "question_id", s.QuestionID, "results", len(results))
	return next, nil
}

// FormatContext renders results as enumerated entries separated by blank lines.
func FormatContext(results []search.Result) string {
	entries := make([]string, 0, len(results))
	for i, res := range results {
		title := res.Title
		if strings.TrimSpace(title) == "" {
			title = untitled
		}
		entries = append(entries, fmt.Sprintf("[%d] %s\n%s\nSource: %s", i+1, title, res.Content, res.URL))
	}
	return strings.Join(entries, "\n\n")
}
