package models

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks caller errors: malformed cycles, zero-participant
// splits and the like. Callers should test with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// CycleUnit is the calendar unit of a recurring cycle.
type CycleUnit string

const (
	UnitDay   CycleUnit = "DAY"
	UnitWeek  CycleUnit = "WEEK"
	UnitMonth CycleUnit = "MONTH"
	UnitYear  CycleUnit = "YEAR"
)

// Cycle describes a recurring interval: "every Value Units",
// e.g. {MONTH, 3} bills every quarter.
type Cycle struct {
	Unit  CycleUnit
	Value int
}

// Validate checks the cycle definition.
func (c Cycle) Validate() error {
	switch c.Unit {
	case UnitDay, UnitWeek, UnitMonth, UnitYear:
	default:
		return fmt.Errorf("%w: unknown cycle unit %q", ErrInvalidArgument, c.Unit)
	}
	if c.Value < 1 {
		return fmt.Errorf("%w: cycle value must be >= 1, got %d", ErrInvalidArgument, c.Value)
	}
	return nil
}

func (c Cycle) String() string {
	return fmt.Sprintf("every %d %s", c.Value, c.Unit)
}

// ReminderLead is how far before a renewal a reminder should fire.
type ReminderLead string

const (
	LeadNone        ReminderLead = "0D"
	LeadOneDay      ReminderLead = "1D"
	LeadTwoDays     ReminderLead = "2D"
	LeadThreeDays   ReminderLead = "3D"
	LeadOneWeek     ReminderLead = "1W"
	LeadTwoWeeks    ReminderLead = "2W"
	LeadOneMonth    ReminderLead = "1M"
	LeadThreeMonths ReminderLead = "3M"
	LeadSixMonths   ReminderLead = "6M"
)
