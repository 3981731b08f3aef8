// Package seatmap models the static seat-map geometry of a venue and the
// merge of that geometry with per-event category pricing.  Everything in
// this package is pure data and lookup: no storage, no mutable state, safe
// for concurrent use.
package seatmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/entradalibre/ticketing/internal/model"
)

// ErrInvalidLabelFormat is returned when a seat label does not parse as
// "<rowCode>-<number>".  Handlers should translate this into a 400.
var ErrInvalidLabelFormat = errors.New("invalid seat label format")

// ErrUnknownRow is returned when a label parses but its row code matches
// no sector row of the template.
var ErrUnknownRow = errors.New("unknown row for template")

// ErrUnknownTemplate is returned when an event references a template
// name that is not registered.
var ErrUnknownTemplate = errors.New("unknown seat template")

// Sector is a named seating zone containing one or more rows.  The ID is
// the single-letter row prefix used in seat labels; the Name is matched
// against ticket category titles to establish pricing.
type Sector struct {
	ID   string   // row prefix, e.g. "A"
	Name string   // display name, e.g. "Platea A"
	Rows []string // row digits within the sector, e.g. ["1", "2"]
}

// Template is an immutable seat-map: an ordered list of sectors plus the
// number of seats in every row.  One template may be shared by many
// events, bound by name.
type Template struct {
	Name        string
	SeatsPerRow int
	Sectors     []Sector
}

// ResolvedSeat is the result of translating a seat label against a
// template.  Label is the canonical spelling of the seat: uppercase
// sector letter, no leading zeros.  All storage and comparison must use
// it, never the buyer's raw input, so "a1-1" and "A1-01" identify the
// same physical seat everywhere.
type ResolvedSeat struct {
	SectorID   string // "A"
	SectorName string // "Platea A"
	Row        string // "A1"
	Number     int    // 1-based seat number
	Label      string // canonical "A1-1"
}

// ParseLabel splits a label of the form "A1-7" into its row code and
// seat number.  The row code must be one letter followed by digits and
// the number must be a positive integer.
func ParseLabel(label string) (row string, number int, err error) {
	parts := strings.Split(label, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidLabelFormat, label)
	}
	row = parts[0]
	if len(row) < 2 || !isLetter(row[0]) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidLabelFormat, label)
	}
	for i := 1; i < len(row); i++ {
		if row[i] < '0' || row[i] > '9' {
			return "", 0, fmt.Errorf("%w: %q", ErrInvalidLabelFormat, label)
		}
	}
	number, convErr := strconv.Atoi(parts[1])
	if convErr != nil || number < 1 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidLabelFormat, label)
	}
	return row, number, nil
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// Resolve translates a seat label into its sector, row and number within
// this template.  It fails with ErrInvalidLabelFormat when the label does
// not parse and with ErrUnknownRow when the row belongs to no sector.
func (t *Template) Resolve(label string) (ResolvedSeat, error) {
	row, number, err := ParseLabel(label)
	if err != nil {
		return ResolvedSeat{}, err
	}
	sectorID := strings.ToUpper(row[:1])
	rowDigit := row[1:]
	for _, s := range t.Sectors {
		if s.ID != sectorID {
			continue
		}
		for _, r := range s.Rows {
			if r == rowDigit {
				canonicalRow := sectorID + rowDigit
				return ResolvedSeat{
					SectorID:   s.ID,
					SectorName: s.Name,
					Row:        canonicalRow,
					Number:     number,
					Label:      fmt.Sprintf("%s-%d", canonicalRow, number),
				}, nil
			}
		}
	}
	return ResolvedSeat{}, fmt.Errorf("%w: %q", ErrUnknownRow, row)
}

// Binding is the price assignment of one row, established by matching a
// ticket category title to a sector name.
type Binding struct {
	TicketCategoryID uint64
	PriceCents       uint32
}

// PricedMap maps every row of a template to its category binding.  Rows
// whose sector matched no category carry a zero binding; a price of zero
// means "not for sale", never "free".
type PricedMap struct {
	template *Template
	byRow    map[string]Binding
}

// Merge assigns a category binding to every row of the template.  The
// category whose title equals the sector name (case-insensitive) prices
// all rows of that sector.  Sectors with no matching category get the
// zero binding.
func Merge(t *Template, categories []model.TicketCategory) PricedMap {
	byRow := make(map[string]Binding)
	for _, s := range t.Sectors {
		var b Binding
		for _, c := range categories {
			if strings.EqualFold(c.Title, s.Name) {
				b = Binding{TicketCategoryID: c.ID, PriceCents: c.PriceCents}
				break
			}
		}
		for _, r := range s.Rows {
			byRow[s.ID+r] = b
		}
	}
	return PricedMap{template: t, byRow: byRow}
}

// Binding returns the category binding for a row.  The second return is
// false when the row does not exist in the template.
func (p PricedMap) Binding(row string) (Binding, bool) {
	b, ok := p.byRow[row]
	return b, ok
}

// Price returns the price in cents for a row, or zero when the row is
// unknown or its sector is unpriced.
func (p PricedMap) Price(row string) uint32 {
	return p.byRow[row].PriceCents
}

// Labels enumerates every valid seat label of the underlying template in
// sector and row order.
func (p PricedMap) Labels() []string {
	labels := make([]string, 0, len(p.byRow)*p.template.SeatsPerRow)
	for _, s := range p.template.Sectors {
		for _, r := range s.Rows {
			for n := 1; n <= p.template.SeatsPerRow; n++ {
				labels = append(labels, fmt.Sprintf("%s%s-%d", s.ID, r, n))
			}
		}
	}
	return labels
}
