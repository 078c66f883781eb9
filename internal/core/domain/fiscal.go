package domain

import (
	"fmt"
	"time"
)

// Module is one of the four ledger modules a fiscal period gates independently.
type Module string

const (
	ModuleGeneralLedger Module = "GL"
	ModuleBank          Module = "BNK"
	ModuleReceivables   Module = "RM"
	ModulePayables      Module = "PM"
)

// Modules returns all gateable modules in a stable order.
func Modules() []Module {
	return []Module{ModuleGeneralLedger, ModuleBank, ModuleReceivables, ModulePayables}
}

// FiscalPeriod is a one-month accounting window within a fiscal year, with an
// independent open/closed gate per module.
type FiscalPeriod struct {
	FiscalPeriodID   string
	TenantID         string
	FiscalYear       int
	PeriodNumber     int // 1..12, 1 begins on the fiscal start date
	StartDate        time.Time
	EndDate          time.Time // inclusive, last day of the month
	OpenGL           bool
	OpenBank         bool
	OpenReceivables  bool
	OpenPayables     bool
	AuditFields
}

// IsOpen reports whether the period is open for the given module.
func (p FiscalPeriod) IsOpen(m Module) bool {
	switch m {
	case ModuleGeneralLedger:
		return p.OpenGL
	case ModuleBank:
		return p.OpenBank
	case ModuleReceivables:
		return p.OpenReceivables
	case ModulePayables:
		return p.OpenPayables
	}
	return false
}

// SetOpen flips the gate for the given module.
func (p *FiscalPeriod) SetOpen(m Module, open bool) error {
	switch m {
	case ModuleGeneralLedger:
		p.OpenGL = open
	case ModuleBank:
		p.OpenBank = open
	case ModuleReceivables:
		p.OpenReceivables = open
	case ModulePayables:
		p.OpenPayables = open
	default:
		return fmt.Errorf("unknown module %q", m)
	}
	return nil
}

// Covers reports whether the date falls inside the period (dates compared by day).
func (p FiscalPeriod) Covers(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
