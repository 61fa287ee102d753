package core

import (
	"errors"
	"time"
)

const (
	TypeExpense EntryType = "1"
	TypeIncome  EntryType = "2"

	// IncomeIcon is stored on every income entry in place of a category icon.
	IncomeIcon = "ingreso"
)

type (
	EntryType  string
	CategoryID string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Entry struct {
		ID          string
		Type        EntryType
		ExpenseName string
		Amount      Money
		Category    CategoryID // empty for incomes
		Date        Date
		Icon        string
	}
)

var (
	ErrInvalidDay   = errors.New("invalid day")
	ErrInvalidMonth = errors.New("invalid month")
	ErrZeroDate     = errors.New("date cannot be zero")
)

// IsIncome reports whether entries of this type increase the available balance.
func (t EntryType) IsIncome() bool {
	return t == TypeIncome
}

func (e Entry) IsIncome() bool {
	return e.Type.IsIncome()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Valid reports whether m is a usable entry amount.
func (m Money) Valid() bool {
	return m.Cents > 0
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}
