package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// Composition classifies who sits on one side of the transaction.
type Composition string

const (
	CompositionSingle           Composition = "alleenstaande"
	CompositionMarriedCouple    Composition = "gehuwd_koppel"
	CompositionLegalCohabitants Composition = "wettelijk_samenwonend"
	CompositionDeFactoCouple    Composition = "feitelijk_samenwonend"
	CompositionCompany          Composition = "vennootschap"
)

// Acquisition mode tags.
const (
	AcquisitionFullOwnership    = "volle_eigendom"
	AcquisitionSplit            = "gesplitste_aankoop"
	AcquisitionCommonProperty   = "gemeenschappelijk_vermogen"
	AcquisitionOwnUndividedHalf = "eigen_onverdeelde_helft"
	AcquisitionWithAccrual      = "met_aanwas"
	AcquisitionWithoutAccrual   = "zonder_aanwas"
)

type Party struct {
	Role          Role   `json:"role" yaml:"role" validate:"oneof=seller buyer"`
	Index         int    `json:"index" yaml:"index" validate:"gte=1"`
	FirstName     string `json:"first_name" yaml:"first_name"`
	LastName      string `json:"last_name" yaml:"last_name"`
	NationalID    string `json:"national_id,omitempty" yaml:"national_id"`
	Address       string `json:"address,omitempty" yaml:"address"`
	MaritalStatus string `json:"marital_status,omitempty" yaml:"marital_status"`
	PartnerName   string `json:"partner_name,omitempty" yaml:"partner_name"`
	Present       bool   `json:"present" yaml:"present"`
}

func (p Party) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type TransactionAttributes struct {
	SellerComposition Composition `json:"seller_composition" yaml:"seller_composition" validate:"omitempty,oneof=alleenstaande gehuwd_koppel wettelijk_samenwonend feitelijk_samenwonend vennootschap"`
	BuyerComposition  Composition `json:"buyer_composition" yaml:"buyer_composition" validate:"omitempty,oneof=alleenstaande gehuwd_koppel wettelijk_samenwonend feitelijk_samenwonend vennootschap"`
	AcquisitionModes  []string    `json:"acquisition_modes,omitempty" yaml:"acquisition_modes"`
	SaleObject        []string    `json:"sale_object,omitempty" yaml:"sale_object"`
	History           string      `json:"history,omitempty" yaml:"history" validate:"omitempty,oneof=zelf_gekocht via_schenking ouders_aan_kind"`
}

func (t TransactionAttributes) HasAcquisitionMode(mode string) bool {
	for _, m := range t.AcquisitionModes {
		if m == mode {
			return true
		}
	}
	return false
}

type SigningMetadata struct {
	Date            time.Time `json:"date"`
	Day             int       `json:"day"`
	Month           int       `json:"month"`
	MonthName       string    `json:"month_name"`
	Year            int       `json:"year"`
	RepertoryNumber string    `json:"repertory_number,omitempty"`
	Remote          bool      `json:"remote"`
}

// DisplayDate renders the signing date as DD-MM-YYYY.
func (m SigningMetadata) DisplayDate() string {
	if m.Date.IsZero() {
		return ""
	}
	return m.Date.Format("02-01-2006")
}

// NotaryOffice identifies the instrumenting notary.
type NotaryOffice struct {
	Name          string `json:"name" yaml:"name"`
	Location      string `json:"location" yaml:"location"`
	OfficeAddress string `json:"office_address" yaml:"office_address"`
}

// Intake is the structured record the operator supplies once per transaction.
type Intake struct {
	Notary          NotaryOffice          `json:"notary" yaml:"notary"`
	SigningDate     string                `json:"signing_date" yaml:"signing_date" validate:"required,datetime=2006-01-02"`
	RepertoryNumber string                `json:"repertory_number" yaml:"repertory_number"`
	RemoteSigning   bool                  `json:"remote_signing" yaml:"remote_signing"`
	Transaction     TransactionAttributes `json:"transaction" yaml:"transaction"`
	Parties         []Party               `json:"parties" yaml:"parties" validate:"required,min=1,dive"`
}

type SourceDocument struct {
	Filename string `json:"filename"`
	Chars    int    `json:"chars"`
	Error    string `json:"error,omitempty"`
}

type ProcessedClause struct {
	Ordinal int       `json:"ordinal"`
	Label   string    `json:"label"`
	Text    string    `json:"text"`
	AddedAt time.Time `json:"added_at"`
}

// Case is the accumulating state of one notarial transaction.
type Case struct {
	ID               string                `json:"id"`
	Notary           NotaryOffice          `json:"notary"`
	Parties          []Party               `json:"parties"`
	Transaction      TransactionAttributes `json:"transaction"`
	Signing          SigningMetadata       `json:"signing"`
	Facts            FactStore             `json:"facts"`
	SourceText       string                `json:"source_text,omitempty"`
	Corpus           string                `json:"corpus,omitempty"`
	Sources          []SourceDocument      `json:"sources,omitempty"`
	ProcessedClauses []ProcessedClause     `json:"processed_clauses"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// PartiesByRole returns the parties of one role ordered by sequence index.
func (c *Case) PartiesByRole(role Role) []Party {
	out := make([]Party, 0, len(c.Parties))
	for _, p := range c.Parties {
		if p.Role == role {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func (c *Case) Sellers() []Party { return c.PartiesByRole(RoleSeller) }

func (c *Case) Buyers() []Party { return c.PartiesByRole(RoleBuyer) }

// Validate checks the structural invariants of the case.
func (c *Case) Validate() error {
	seen := make(map[Role]map[int]struct{}, 2)
	for _, p := range c.Parties {
		if p.Role != RoleSeller && p.Role != RoleBuyer {
			return WrapError(ErrInvalidInput, "validate case", fmt.Errorf("unknown party role %q", p.Role))
		}
		if p.Index < 1 {
			return WrapError(ErrInvalidInput, "validate case", fmt.Errorf("%s index must be >= 1, got %d", p.Role, p.Index))
		}
		if seen[p.Role] == nil {
			seen[p.Role] = make(map[int]struct{})
		}
		if _, dup := seen[p.Role][p.Index]; dup {
			return WrapError(ErrInvalidInput, "validate case", fmt.Errorf("duplicate %s index %d", p.Role, p.Index))
		}
		seen[p.Role][p.Index] = struct{}{}
	}
	return nil
}

// RecordClause stores the final text of a clause, replacing an earlier
// rendering with the same label.
func (c *Case) RecordClause(ordinal int, label, text string, at time.Time) {
	for i := range c.ProcessedClauses {
		if c.ProcessedClauses[i].Label == label {
			c.ProcessedClauses[i].Ordinal = ordinal
			c.ProcessedClauses[i].Text = text
			c.ProcessedClauses[i].AddedAt = at
			return
		}
	}
	c.ProcessedClauses = append(c.ProcessedClauses, ProcessedClause{
		Ordinal: ordinal,
		Label:   label,
		Text:    text,
		AddedAt: at,
	})
}

func (c *Case) ClauseText(label string) (string, bool) {
	for _, pc := range c.ProcessedClauses {
		if pc.Label == label {
			return pc.Text, true
		}
	}
	return "", false
}
