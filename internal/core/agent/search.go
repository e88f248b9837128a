package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/prompt"
)

// FocusedSearch looks for one missing item in the recorded facts first and
// in the corpus second.
func (a *Agents) FocusedSearch(ctx context.Context, missingInfo string, c *domain.Case) domain.FocusedSearchResult {
	var out domain.FocusedSearchResult
	if notice := a.decode(ctx, "focused_search", a.searchPrompt(missingInfo, c), &out); notice != "" {
		return domain.EmptyFocusedSearch(notice)
	}
	if out.Items == nil {
		out.Items = map[string]domain.FocusedItem{}
	}
	return out
}

func (a *Agents) searchPrompt(missingInfo string, c *domain.Case) string {
	var hints strings.Builder
	for _, h := range a.knowledge.SearchHints {
		fmt.Fprintf(&hints, "- %s\n", h)
	}
	return fmt.Sprintf(`You are a specialized legal document search agent. Your task is to find VERY SPECIFIC information.

MISSING INFORMATION TO FIND:
%[1]s

SEARCH IN TWO PLACES:
1. First check the NOTARIAL INFORMATION (already collected data)
2. Then check the SOURCE DOCUMENTS

--- NOTARIAL INFORMATION TO SEARCH ---
%[2]s

--- SOURCE DOCUMENTS TO SEARCH ---
%[3]s

CRITICAL CONTEXT FOR NOTARIAL TERMS:
%[4]s
INSTRUCTIONS:
1. FIRST check if this information already exists in the notarial information section
2. If not found there, search the source documents
3. Look for variations in spelling, formatting, and phrasing
4. Consider that the same information might be stored under different keys

Return JSON format:
{
    "search_performed": true,
    "found_in": "notarial_info/source_docs/not_found",
    "found_items": {
        %[5]q: {
            "found": true,
            "value": "exact value found or null",
            "location": "where it was found",
            "context": "surrounding text or field name where found",
            "confidence": "HIGH/MEDIUM/LOW"
        }
    },
    "search_notes": "explanation of search process"
}`,
		missingInfo,
		prompt.FactStoreText(c),
		prompt.Bound(c.Corpus, a.limits.Search),
		hints.String(),
		missingInfo,
	)
}
