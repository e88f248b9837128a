// Package export renders a case's accepted clauses into downloadable documents.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

const notAvailable = "N/A"

type Renderer struct {
	now func() time.Time
}

var _ ports.DocumentRenderer = (*Renderer)(nil)

func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

func (r *Renderer) Render(c *domain.Case, format domain.ExportFormat) (domain.ExportDocument, error) {
	if c == nil {
		return domain.ExportDocument{}, domain.WrapError(domain.ErrInvalidInput, "render export", fmt.Errorf("case is nil"))
	}
	now := r.now()
	var (
		body        []byte
		contentType string
		err         error
	)
	switch format {
	case domain.ExportText:
		body, contentType = renderText(c), "text/plain; charset=utf-8"
	case domain.ExportJSON:
		body, err = renderJSON(c, now)
		contentType = "application/json"
	case domain.ExportHTML:
		body, err = renderHTML(c)
		contentType = "text/html; charset=utf-8"
	default:
		return domain.ExportDocument{}, domain.WrapError(domain.ErrInvalidInput, "render export", fmt.Errorf("unsupported format %q", format))
	}
	if err != nil {
		return domain.ExportDocument{}, fmt.Errorf("render %s export: %w", format, err)
	}
	return domain.ExportDocument{
		Format:      format,
		ContentType: contentType,
		Filename:    fmt.Sprintf("notariele_akte_%s.%s", now.Format("20060102_150405"), format.Extension()),
		Body:        body,
	}, nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func renderText(c *domain.Case) []byte {
	var b strings.Builder
	b.WriteString("NOTARIËLE AKTE\n" + strings.Repeat("=", 50) + "\n\n")

	b.WriteString("ALGEMENE INFORMATIE\n" + strings.Repeat("-", 30) + "\n")
	fmt.Fprintf(&b, "Datum: %s\n", orNA(c.Signing.DisplayDate()))
	fmt.Fprintf(&b, "Repertorium nummer: %s\n", orNA(c.Signing.RepertoryNumber))
	fmt.Fprintf(&b, "Notaris: %s\n", orNA(c.Notary.Name))
	fmt.Fprintf(&b, "Kantoor: %s, %s\n\n", orNA(c.Notary.OfficeAddress), orNA(c.Notary.Location))

	b.WriteString("CLAUSULES\n" + strings.Repeat("=", 50) + "\n\n")
	for i, pc := range c.ProcessedClauses {
		fmt.Fprintf(&b, "%d. %s\n%s\n", i+1, pc.Label, strings.Repeat("-", 30))
		b.WriteString(pc.Text + "\n\n")
	}
	return []byte(b.String())
}

type jsonCase struct {
	ID          string                       `json:"id"`
	Notary      domain.NotaryOffice          `json:"notary"`
	Signing     domain.SigningMetadata       `json:"signing"`
	Parties     []domain.Party               `json:"parties"`
	Transaction domain.TransactionAttributes `json:"transaction"`
}

type jsonClause struct {
	Ordinal int    `json:"ordinal"`
	Label   string `json:"label"`
	Text    string `json:"text"`
}

type jsonExport struct {
	Metadata struct {
		CreatedAt   time.Time `json:"created_at"`
		Case        jsonCase  `json:"case"`
		ClauseCount int       `json:"clause_count"`
	} `json:"metadata"`
	Clauses []jsonClause `json:"clauses"`
}

func renderJSON(c *domain.Case, now time.Time) ([]byte, error) {
	var out jsonExport
	out.Metadata.CreatedAt = now
	out.Metadata.Case = jsonCase{
		ID:          c.ID,
		Notary:      c.Notary,
		Signing:     c.Signing,
		Parties:     c.Parties,
		Transaction: c.Transaction,
	}
	out.Metadata.ClauseCount = len(c.ProcessedClauses)
	out.Clauses = make([]jsonClause, 0, len(c.ProcessedClauses))
	for _, pc := range c.ProcessedClauses {
		out.Clauses = append(out.Clauses, jsonClause{Ordinal: pc.Ordinal, Label: pc.Label, Text: pc.Text})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var htmlTemplate = template.Must(template.New("akte").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"lines": func(s string) []string { return strings.Split(s, "\n") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Notariële Akte - {{.Date}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; line-height: 1.6; }
        h1 { color: #333; border-bottom: 2px solid #333; padding-bottom: 10px; }
        h2 { color: #666; margin-top: 30px; }
        .clause { margin-bottom: 30px; page-break-inside: avoid; }
        .metadata { background-color: #f5f5f5; padding: 15px; margin-bottom: 30px; }
    </style>
</head>
<body>
    <h1>NOTARIËLE AKTE</h1>

    <div class="metadata">
        <h2>Algemene Informatie</h2>
        <p><strong>Datum:</strong> {{.Date}}</p>
        <p><strong>Repertorium nummer:</strong> {{.Repertory}}</p>
        <p><strong>Notaris:</strong> {{.Notary}}</p>
        <p><strong>Kantoor:</strong> {{.Office}}, {{.Location}}</p>
    </div>

    <h2>Clausules</h2>
{{- range $i, $c := .Clauses}}
    <div class="clause">
        <h3>{{inc $i}}. {{$c.Label}}</h3>
        <p>{{range $j, $line := lines $c.Text}}{{if $j}}<br>{{end}}{{$line}}{{end}}</p>
    </div>
{{- end}}
</body>
</html>
`))

func renderHTML(c *domain.Case) ([]byte, error) {
	data := struct {
		Date, Repertory, Notary, Office, Location string
		Clauses                                   []domain.ProcessedClause
	}{
		Date:      orNA(c.Signing.DisplayDate()),
		Repertory: orNA(c.Signing.RepertoryNumber),
		Notary:    orNA(c.Notary.Name),
		Office:    orNA(c.Notary.OfficeAddress),
		Location:  orNA(c.Notary.Location),
		Clauses:   c.ProcessedClauses,
	}
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
