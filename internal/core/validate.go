package core

import "strings"

// Candidate field names, in the order they are checked.
const (
	FieldType        = "type"
	FieldExpenseName = "expenseName"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
)

// Candidate is an entry as typed by the user, before validation.
type Candidate struct {
	Type        string
	ExpenseName string
	Amount      string
	Category    string
	Date        Date
}

// IsIncome reports whether the candidate declares the income type.
func (c Candidate) IsIncome() bool {
	return EntryType(strings.TrimSpace(c.Type)).IsIncome()
}

// Validator checks candidates against a reference catalog.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	catalog Catalog
}

func NewValidator(catalog Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate turns a candidate into an Entry ready for the state core.
// The returned entry has no ID; ids are assigned when the entry is added.
func (v *Validator) Validate(c Candidate, isIncome bool) (Entry, error) {
	if field := firstMissing(c, isIncome); field != "" {
		return Entry{}, &MissingFieldError{Field: field}
	}

	typ := EntryType(strings.TrimSpace(c.Type))
	if _, ok := v.catalog.Type(typ); !ok || typ.IsIncome() != isIncome {
		return Entry{}, &UnknownReferenceError{Field: FieldType, Value: string(typ)}
	}

	cents, err := ParseDecimalToCents(c.Amount)
	if err != nil {
		return Entry{}, &InvalidAmountError{Value: c.Amount}
	}

	if err := c.Date.Validate(); err != nil {
		return Entry{}, &MissingFieldError{Field: FieldDate}
	}

	e := Entry{
		Type:        typ,
		ExpenseName: strings.TrimSpace(c.ExpenseName),
		Amount:      Money{Cents: cents},
		Date:        DateOf(c.Date.Time),
	}

	if isIncome {
		e.Icon = IncomeIcon
		return e, nil
	}

	id := CategoryID(strings.TrimSpace(c.Category))
	cat, ok := v.catalog.Category(id)
	if !ok {
		return Entry{}, &UnknownReferenceError{Field: FieldCategory, Value: string(id)}
	}
	e.Category = cat.ID
	e.Icon = cat.Icon
	return e, nil
}

// ValidateCandidate validates c using the type it declares.
func (v *Validator) ValidateCandidate(c Candidate) (Entry, error) {
	return v.Validate(c, c.IsIncome())
}

func firstMissing(c Candidate, isIncome bool) string {
	switch {
	case strings.TrimSpace(c.Type) == "":
		return FieldType
	case strings.TrimSpace(c.ExpenseName) == "":
		return FieldExpenseName
	case strings.TrimSpace(c.Amount) == "":
		return FieldAmount
	case !isIncome && strings.TrimSpace(c.Category) == "":
		return FieldCategory
	case c.Date.IsZero():
		return FieldDate
	}
	return ""
}

// ParseBudget parses a user supplied budget amount.
func ParseBudget(raw string) (Money, error) {
	cents, err := ParseDecimalToCents(raw)
	if err != nil {
		return Money{}, &InvalidAmountError{Value: raw}
	}
	return Money{Cents: cents}, nil
}
