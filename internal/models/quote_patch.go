package models

import "time"

// QuotePatch lists the fields a user may change on an existing quote. Nil
// fields are left untouched. Owner, number, status, timestamps and totals
// are not patchable.
type QuotePatch struct {
	ClientID        *uint
	Title           *string
	Notes           *string
	Conditions      *string
	Currency        *string
	IssueDate       *time.Time
	ValidUntil      *time.Time
	ClearValidUntil bool
	Items           *[]LineItemInput
}

// ApplyPatch returns a recalculated and validated copy of q with p applied.
// q itself is never modified; on error the zero Quote is returned.
func ApplyPatch(q Quote, p QuotePatch) (Quote, error) {
	out := q.Clone()
	if p.ClientID != nil {
		out.ClientID = *p.ClientID
	}
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Notes != nil {
		out.Notes = *p.Notes
	}
	if p.Conditions != nil {
		out.Conditions = *p.Conditions
	}
	if p.Currency != nil {
		out.Currency = *p.Currency
	}
	if p.IssueDate != nil {
		out.IssueDate = *p.IssueDate
	}
	switch {
	case p.ClearValidUntil:
		out.ValidUntil = nil
	case p.ValidUntil != nil:
		out.ValidUntil = cloneTime(p.ValidUntil)
	}
	if p.Items != nil {
		items := make([]LineItem, len(*p.Items))
		for i, in := range *p.Items {
			items[i] = in.LineItem()
		}
		out.Items = items
	}
	out.Recalculate()
	if err := out.Validate(); err != nil {
		return Quote{}, err
	}
	return out, nil
}
