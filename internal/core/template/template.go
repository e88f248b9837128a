// Package template resolves placeholders and conditional blocks in clause
// instructions.
package template

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

var (
	blockPattern       = regexp.MustCompile(`(?s)\[BLOCK\s+([^\]]+?)\s*\](.*?)\[/BLOCK\]`)
	markerPattern      = regexp.MustCompile(`\[BLOCK\s+[^\]]*\]|\[/BLOCK\]`)
	placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)
	blankLines         = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*)*\n`)
)

// HasTemplateSyntax reports whether the instruction carries placeholders or blocks.
func HasTemplateSyntax(instruction string) bool {
	return placeholderPattern.MatchString(instruction) || markerPattern.MatchString(instruction)
}

// Processor renders instructions with a fixed pair of named blocks: the
// header block is always kept, the remote block only for remote signings.
// Other named blocks keep their content.
type Processor struct {
	headerBlock string
	remoteBlock string
}

func NewProcessor(blocks domain.BlockNames) *Processor {
	return &Processor{
		headerBlock: strings.ToUpper(strings.TrimSpace(blocks.Header)),
		remoteBlock: strings.ToUpper(strings.TrimSpace(blocks.Remote)),
	}
}

// Render substitutes values into instruction. Placeholders without a value
// stay verbatim. Block markers never survive.
func (p *Processor) Render(instruction string, values map[string]string, remote bool) string {
	out := blockPattern.ReplaceAllStringFunc(instruction, func(block string) string {
		m := blockPattern.FindStringSubmatch(block)
		name := strings.ToUpper(strings.TrimSpace(m[1]))
		if name == p.remoteBlock && p.remoteBlock != "" && !remote {
			return ""
		}
		return m[2]
	})
	out = markerPattern.ReplaceAllString(out, "")

	out = placeholderPattern.ReplaceAllStringFunc(out, func(ph string) string {
		name := placeholderPattern.FindStringSubmatch(ph)[1]
		if v, ok := values[name]; ok && strings.TrimSpace(v) != "" {
			return v
		}
		return ph
	})
	return Clean(out)
}

// Clean strips block markers and collapses runs of blank lines.
func Clean(text string) string {
	text = markerPattern.ReplaceAllString(text, "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Merge flattens value layers; later layers win, empty values never override.
func Merge(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			if strings.TrimSpace(v) == "" {
				continue
			}
			out[k] = v
		}
	}
	return out
}

// StandardValues derives the case-wide placeholder values.
func StandardValues(c *domain.Case) map[string]string {
	values := map[string]string{
		"notary_name":           c.Notary.Name,
		"notary_location":       c.Notary.Location,
		"notary_office_address": c.Notary.OfficeAddress,
		"repertorium_number":    c.Signing.RepertoryNumber,
		"repertorium_nummer":    c.Signing.RepertoryNumber,
		"seller_count":          strconv.Itoa(len(c.Sellers())),
		"buyer_count":           strconv.Itoa(len(c.Buyers())),
		"verkoper_type":         strings.ReplaceAll(string(c.Transaction.SellerComposition), "_", " "),
		"koper_type":            strings.ReplaceAll(string(c.Transaction.BuyerComposition), "_", " "),
	}
	if !c.Signing.Date.IsZero() {
		date := c.Signing.DisplayDate()
		day := strconv.Itoa(c.Signing.Day)
		year := strconv.Itoa(c.Signing.Year)
		values["signing_date"] = date
		values["signing_day"] = day
		values["signing_month"] = c.Signing.MonthName
		values["signing_year"] = year
		values["ondertekening_datum"] = date
		values["ondertekening_dag"] = day
		values["ondertekening_maand"] = c.Signing.MonthName
		values["ondertekening_jaar"] = year
		values["day_and_month"] = day + " " + c.Signing.MonthName
	}
	addParties(values, "verkoper", c.Sellers())
	addParties(values, "koper", c.Buyers())
	return values
}

func addParties(values map[string]string, prefix string, parties []domain.Party) {
	for _, p := range parties {
		key := prefix + "_" + strconv.Itoa(p.Index)
		values[key+"_naam"] = p.FullName()
		values[key+"_voornaam"] = p.FirstName
		values[key+"_achternaam"] = p.LastName
		values[key+"_rijksregisternummer"] = p.NationalID
		values[key+"_adres"] = p.Address
		values[key+"_burgerlijke_staat"] = p.MaritalStatus
	}
}

func ResearchValues(r domain.ResearchResult) map[string]string {
	out := make(map[string]string, len(r.FoundInformation))
	for k, f := range r.FoundInformation {
		if f.Value.Known() {
			out[k] = f.Value.String()
		}
	}
	return out
}

func CompiledValues(cf domain.CompiledFacts) map[string]string {
	out := make(map[string]string, len(cf.Facts))
	for k, f := range cf.Facts {
		if f.Value.Known() {
			out[k] = f.Value.String()
		}
	}
	return out
}
