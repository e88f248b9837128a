// Package prompt renders case state into instruction text for the model.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)

// Escape makes raw text safe to embed inside a quoted instruction field.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Bound returns at most limit characters of s without splitting a rune.
func Bound(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

var dutchMonths = [...]string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

func DutchMonth(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return dutchMonths[month-1]
}

// JSON renders v indented for inclusion in an instruction.
func JSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func yesNo(v bool) string {
	if v {
		return "ja"
	}
	return "nee"
}

func capitalYesNo(v bool) string {
	if v {
		return "Ja"
	}
	return "Nee"
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Onbekend"
	}
	return s
}

func humanize(tag string) string {
	return strings.ReplaceAll(tag, "_", " ")
}

// ClientInfo renders the party summary the applicability check reasons over.
func ClientInfo(c *domain.Case) string {
	var b strings.Builder
	sellers, buyers := c.Sellers(), c.Buyers()

	b.WriteString("\n[Klantinformatie]\n")
	fmt.Fprintf(&b, "Aantal verkopers: %d\n", len(sellers))
	fmt.Fprintf(&b, "Aantal kopers: %d\n", len(buyers))
	writeClientParties(&b, "verkoper", sellers)
	writeClientParties(&b, "koper", buyers)
	fmt.Fprintf(&b, "Verkoper type: %s\n", orUnknown(humanize(string(c.Transaction.SellerComposition))))
	fmt.Fprintf(&b, "Koper type: %s\n", orUnknown(humanize(string(c.Transaction.BuyerComposition))))
	if len(c.Transaction.AcquisitionModes) > 0 {
		fmt.Fprintf(&b, "Wijze van aankoop: %s\n", humanize(strings.Join(c.Transaction.AcquisitionModes, ", ")))
	}
	fmt.Fprintf(&b, "Videoconferentie: %s\n", yesNo(c.Signing.Remote))
	return b.String()
}

func writeClientParties(b *strings.Builder, noun string, parties []domain.Party) {
	for _, p := range parties {
		fmt.Fprintf(b, "Voornaam %s %d: %s\n", noun, p.Index, orUnknown(p.FirstName))
		fmt.Fprintf(b, "Achternaam %s %d: %s\n", noun, p.Index, orUnknown(p.LastName))
		fmt.Fprintf(b, "Burgerlijke staat %s %d: %s\n", noun, p.Index, orUnknown(p.MaritalStatus))
		fmt.Fprintf(b, "Is %s %d persoonlijk aanwezig? (ja/nee): %s\n", noun, p.Index, yesNo(p.Present))
	}
}

// CaseSummary renders the structured case as searchable corpus text.
func CaseSummary(c *domain.Case) string {
	var b strings.Builder
	b.WriteString("\n\n--- NOTARIËLE INFORMATIE ---\n\n")

	b.WriteString("ALGEMENE AKTE INFORMATIE:\n")
	if c.Notary.Name != "" {
		fmt.Fprintf(&b, "- Notaris: %s\n", c.Notary.Name)
		fmt.Fprintf(&b, "- Kantoor: %s, %s\n", c.Notary.OfficeAddress, c.Notary.Location)
	}
	if !c.Signing.Date.IsZero() {
		fmt.Fprintf(&b, "- Datum ondertekening: %s\n", c.Signing.DisplayDate())
		fmt.Fprintf(&b, "- Dag: %d\n", c.Signing.Day)
		fmt.Fprintf(&b, "- Maand: %s\n", c.Signing.MonthName)
		fmt.Fprintf(&b, "- Jaar: %d\n", c.Signing.Year)
	}
	if c.Signing.RepertoryNumber != "" {
		fmt.Fprintf(&b, "- Repertorium nummer: %s\n", c.Signing.RepertoryNumber)
	}
	fmt.Fprintf(&b, "- Videoconferentie: %s\n", capitalYesNo(c.Signing.Remote))

	t := c.Transaction
	if t.SellerComposition != "" {
		fmt.Fprintf(&b, "\n- Verkoper type: %s\n", humanize(string(t.SellerComposition)))
	}
	if t.BuyerComposition != "" {
		fmt.Fprintf(&b, "- Koper type: %s\n", humanize(string(t.BuyerComposition)))
	}
	if len(t.AcquisitionModes) > 0 {
		fmt.Fprintf(&b, "- Wijze van aankoop: %s\n", humanize(strings.Join(t.AcquisitionModes, ", ")))
	}
	if len(t.SaleObject) > 0 {
		fmt.Fprintf(&b, "- Verkoop object: %s\n", humanize(strings.Join(t.SaleObject, ", ")))
	}
	if t.History != "" {
		fmt.Fprintf(&b, "- Historiek: %s\n", humanize(t.History))
	}

	writeSummaryParties(&b, "VERKOPERS", "Verkoper", c.Sellers())
	writeSummaryParties(&b, "KOPERS", "Koper", c.Buyers())
	return b.String()
}

func writeSummaryParties(b *strings.Builder, heading, noun string, parties []domain.Party) {
	if len(parties) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (aantal: %d):\n", heading, len(parties))
	for _, p := range parties {
		fmt.Fprintf(b, "\n%s %d:\n", noun, p.Index)
		fmt.Fprintf(b, "- Naam: %s\n", p.FullName())
		if p.NationalID != "" {
			fmt.Fprintf(b, "- Rijksregisternummer: %s\n", p.NationalID)
		}
		if p.Address != "" {
			fmt.Fprintf(b, "- Adres: %s\n", p.Address)
		}
		if p.MaritalStatus != "" {
			fmt.Fprintf(b, "- Burgerlijke staat: %s\n", p.MaritalStatus)
		}
		if p.PartnerName != "" {
			fmt.Fprintf(b, "- Partner: %s\n", p.PartnerName)
		}
		fmt.Fprintf(b, "- Persoonlijk aanwezig: %s\n", capitalYesNo(p.Present))
	}
}

// FactStoreText renders the case fields and every recorded fact as
// key/value lines for the focused search.
func FactStoreText(c *domain.Case) string {
	var b strings.Builder
	b.WriteString("\n\n--- NOTARIËLE INFORMATIE ---\n")
	if !c.Signing.Date.IsZero() {
		fmt.Fprintf(&b, "ondertekening_datum: %s\n", c.Signing.DisplayDate())
		fmt.Fprintf(&b, "ondertekening_dag: %d\n", c.Signing.Day)
		fmt.Fprintf(&b, "ondertekening_maand_nl: %s\n", c.Signing.MonthName)
		fmt.Fprintf(&b, "ondertekening_jaar: %d\n", c.Signing.Year)
	}
	fmt.Fprintf(&b, "repertorium_nummer: %s\n", c.Signing.RepertoryNumber)
	fmt.Fprintf(&b, "videoconferentie: %t\n", c.Signing.Remote)
	fmt.Fprintf(&b, "notary_name: %s\n", c.Notary.Name)
	fmt.Fprintf(&b, "notary_location: %s\n", c.Notary.Location)
	fmt.Fprintf(&b, "notary_office_address: %s\n", c.Notary.OfficeAddress)
	fmt.Fprintf(&b, "verkoper_type: %s\n", c.Transaction.SellerComposition)
	fmt.Fprintf(&b, "koper_type: %s\n", c.Transaction.BuyerComposition)

	writeFactParties(&b, "VERKOPERS", "verkoper", c.Sellers())
	writeFactParties(&b, "KOPERS", "koper", c.Buyers())

	entries := c.Facts.Entries()
	if len(entries) > 0 {
		b.WriteString("\nEERDER BEANTWOORDE VRAGEN:\n")
		for _, e := range entries {
			fmt.Fprintf(&b, "  %s / %s: %s (bron: %s)\n", e.Key.Clause, e.Key.Name, e.Fact.Value, e.Fact.Provenance)
		}
	}
	return b.String()
}

func writeFactParties(b *strings.Builder, heading, prefix string, parties []domain.Party) {
	if len(parties) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", heading)
	for _, p := range parties {
		key := fmt.Sprintf("%s_%d", prefix, p.Index)
		fmt.Fprintf(b, "  %s_voornaam: %s\n", key, p.FirstName)
		fmt.Fprintf(b, "  %s_achternaam: %s\n", key, p.LastName)
		fmt.Fprintf(b, "  %s_rijksregisternummer: %s\n", key, p.NationalID)
		fmt.Fprintf(b, "  %s_adres: %s\n", key, p.Address)
		fmt.Fprintf(b, "  %s_burgerlijke_staat: %s\n", key, p.MaritalStatus)
		if p.PartnerName != "" {
			fmt.Fprintf(b, "  %s_partner_naam: %s\n", key, p.PartnerName)
		}
		fmt.Fprintf(b, "  %s_aanwezig: %t\n", key, p.Present)
	}
}
