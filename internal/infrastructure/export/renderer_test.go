package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

func exportCase() *domain.Case {
	return &domain.Case{
		ID:     "case-1",
		Notary: domain.NotaryOffice{Name: "Stephane Van Roosbroek", Location: "2530 Boechout", OfficeAddress: "Heuvelstraat 54"},
		Signing: domain.SigningMetadata{
			Date:            time.Date(2024, 10, 30, 0, 0, 0, 0, time.UTC),
			RepertoryNumber: "224455",
		},
		ProcessedClauses: []domain.ProcessedClause{
			{Ordinal: 1, Label: "AKTEDATUM EN NOTARIS", Text: "Het jaar 2024.\nVoor mij."},
			{Ordinal: 8, Label: "BEDING VAN AANWAS", Text: "Kopers <samen> & apart"},
		},
	}
}

func fixedRenderer() *Renderer {
	return &Renderer{now: func() time.Time { return time.Date(2024, 11, 2, 14, 5, 9, 0, time.UTC) }}
}

func TestRenderText(t *testing.T) {
	doc, err := fixedRenderer().Render(exportCase(), domain.ExportText)
	require.NoError(t, err)
	require.Equal(t, "notariele_akte_20241102_140509.txt", doc.Filename)
	require.True(t, strings.HasPrefix(doc.ContentType, "text/plain"))

	body := string(doc.Body)
	require.True(t, strings.HasPrefix(body, "NOTARIËLE AKTE\n"+strings.Repeat("=", 50)+"\n\nALGEMENE INFORMATIE\n"))
	require.Contains(t, body, "Datum: 30-10-2024\n")
	require.Contains(t, body, "Repertorium nummer: 224455\n")
	require.Contains(t, body, "Kantoor: Heuvelstraat 54, 2530 Boechout\n")
	require.Contains(t, body, "1. AKTEDATUM EN NOTARIS\n"+strings.Repeat("-", 30)+"\nHet jaar 2024.\nVoor mij.\n\n")
	require.Less(t, strings.Index(body, "1. AKTEDATUM"), strings.Index(body, "2. BEDING VAN AANWAS"))
}

func TestRenderTextWithoutMetadata(t *testing.T) {
	doc, err := fixedRenderer().Render(&domain.Case{ID: "x"}, domain.ExportText)
	require.NoError(t, err)
	require.Contains(t, string(doc.Body), "Datum: N/A\n")
	require.Contains(t, string(doc.Body), "Kantoor: N/A, N/A\n")
}

func TestRenderJSON(t *testing.T) {
	doc, err := fixedRenderer().Render(exportCase(), domain.ExportJSON)
	require.NoError(t, err)
	require.Equal(t, "application/json", doc.ContentType)

	var out struct {
		Metadata struct {
			CreatedAt   time.Time `json:"created_at"`
			ClauseCount int       `json:"clause_count"`
			Case        struct {
				ID string `json:"id"`
			} `json:"case"`
		} `json:"metadata"`
		Clauses []struct {
			Ordinal int    `json:"ordinal"`
			Label   string `json:"label"`
			Text    string `json:"text"`
		} `json:"clauses"`
	}
	require.NoError(t, json.Unmarshal(doc.Body, &out))
	require.Equal(t, 2, out.Metadata.ClauseCount)
	require.Equal(t, "case-1", out.Metadata.Case.ID)
	require.Len(t, out.Clauses, 2)
	require.Equal(t, 8, out.Clauses[1].Ordinal)
	require.Contains(t, string(doc.Body), "Kopers <samen> & apart")
}

func TestRenderHTMLEscapesClauseText(t *testing.T) {
	doc, err := fixedRenderer().Render(exportCase(), domain.ExportHTML)
	require.NoError(t, err)

	body := string(doc.Body)
	require.Contains(t, body, "<h1>NOTARIËLE AKTE</h1>")
	require.Contains(t, body, "<h3>1. AKTEDATUM EN NOTARIS</h3>")
	require.Contains(t, body, "Het jaar 2024.<br>Voor mij.")
	require.Contains(t, body, "Kopers &lt;samen&gt; &amp; apart")
	require.Equal(t, 2, strings.Count(body, `<div class="clause">`))
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := fixedRenderer().Render(exportCase(), domain.ExportFormat("docx"))
	require.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}
