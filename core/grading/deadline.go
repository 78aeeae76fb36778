package grading

import (
	"regexp"
	"time"

	"github.com/pkg/errors"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

// State is the visibility outcome for a viewer against a block's deadlines.
type State string

const (
	StateFullAccess State = "full_access"
	StateDuePassed  State = "due_passed"
	StateLatePassed State = "late_passed"
)

const (
	// DateLayout is the month/day/year format authors submit dates in.
	DateLayout = "1/2/2006"
	// TimeLayout is the 24h clock time format authors submit times of day in.
	TimeLayout = "15:04"

	invalidTimeText = "Invalid time format. The valid format is HH:MM."
	invalidDateText = "Invalid date format. The valid format is MM/DD/YYYY."
	duePairText     = "The due date must be before the late due date."
)

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Classify resolves the visibility state of a block for a single viewer.
// Comparisons are strict on purpose: now == due yields StateFullAccess and the
// late deadline only locks the block out once now is strictly past it.
// The late check runs first and ignores the acceptance flag; once the late due
// date has passed no override is possible.
// A malformed config with due > lateDue is not repaired here: the middle
// condition can then never hold and only the remaining states are reachable.
func Classify(now, due, lateDue time.Time, accepted bool) State {
	if now.After(lateDue) {
		return StateLatePassed
	}
	if due.Before(now) && now.Before(lateDue) && !accepted {
		return StateDuePassed
	}
	return StateFullAccess
}

// ValidateTimeFormat checks `s` against the strict HH:MM (24-hour) pattern.
func ValidateTimeFormat(s string) error {
	if !timeRegex.MatchString(s) {
		return core.NewValidationError(errors.New(invalidTimeText))
	}
	return nil
}

// ParseDate parses a month/day/year date with slash separators.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, core.CleanString(s))
	if err != nil {
		return time.Time{}, core.NewValidationError(errors.New(invalidDateText))
	}
	return d, nil
}

// Assemble combines a calendar date with an HH:MM time of day into a single
// UTC instant at second precision.
func Assemble(date time.Time, hhmm string) (time.Time, error) {
	if err := ValidateTimeFormat(hhmm); err != nil {
		return time.Time{}, err
	}
	tod, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, core.NewValidationError(errors.New(invalidTimeText))
	}
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), 0, 0,
		time.UTC,
	), nil
}

// AssembleStrings parses a month/day/year date string and combines it with an
// HH:MM time of day.
func AssembleStrings(date, hhmm string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return Assemble(d, hhmm)
}

// ValidatePair enforces due <= lateDue on the edit path.
func ValidatePair(dueDate, dueTime, lateDueDate, lateDueTime string) error {
	due, err := AssembleStrings(dueDate, dueTime)
	if err != nil {
		return err
	}
	lateDue, err := AssembleStrings(lateDueDate, lateDueTime)
	if err != nil {
		return err
	}
	if due.After(lateDue) {
		return core.NewValidationError(errors.New(duePairText))
	}
	return nil
}
