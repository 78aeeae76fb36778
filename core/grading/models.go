package grading

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

// Category scopes export artifacts produced for this block type.
const Category = "extemporaneous_grading"

// Field defaults applied on creation and used as ultimate fallbacks on the
// edit path.
const (
	DefaultDisplayName = "Extemporaneous Grading"
	DefaultDueTime     = "23:59"
	DefaultLateDueTime = "23:59"

	DefaultDuePassedText = "The due date for this assignment has passed. " +
		"You can still submit it as a late submission."
	DefaultLatePassedText = "The late submission date has passed. " +
		"You can no longer submit this assignment."
)

type (
	// Block is a content item gated on a due and a late due deadline.
	// Dates are stored the way authors submit them (month/day/year with slash
	// separators) and only assembled into instants when classifying.
	Block struct {
		ID             string    `json:"id" db:"id"`
		DisplayName    string    `json:"display_name" db:"display_name"`
		DueDate        string    `json:"due_date" db:"due_date"`
		DueTime        string    `json:"due_time" db:"due_time"`
		LateDueDate    string    `json:"late_due_date" db:"late_due_date"`
		LateDueTime    string    `json:"late_due_time" db:"late_due_time"`
		DuePassedText  string    `json:"due_passed_text" db:"due_passed_text"`
		LatePassedText string    `json:"late_passed_text" db:"late_passed_text"`
		Children       []Child   `json:"children"`
		CreatedAt      time.Time `json:"created_at" db:"created_at"` // UTC
		UpdatedAt      time.Time `json:"updated_at" db:"updated_at"` // UTC
	}

	// Child is a nested content item rendered only when the viewer has full
	// access. Its source is opaque to the gating logic.
	Child struct {
		ID      string `json:"id" db:"id"`
		Content string `json:"content" db:"content"`
	}

	// Fragment is a rendered piece of child content.
	Fragment struct {
		Content string `json:"content"`
	}

	// Student is the viewer identity handed over by the host platform.
	Student struct {
		ID       string   `json:"anonymous_user_id"`
		Username string   `json:"username"`
		Email    string   `json:"email"` // may be empty
		IsStaff  bool     `json:"is_staff"`
		Roles    []string `json:"roles"`
	}

	// LateSubmission is one append-only ledger entry: a viewer accepted the
	// late window for a block at a given instant. Entries are never mutated
	// or deleted.
	LateSubmission struct {
		ID         string    `json:"id" db:"id"`
		BlockID    string    `json:"block_id" db:"block_id"`
		UserID     string    `json:"anonymous_user_id" db:"user_id"`
		Username   string    `json:"username" db:"username"`
		Email      string    `json:"email" db:"email"`
		AcceptedAt time.Time `json:"datetime" db:"accepted_at"` // UTC
	}
)

// Deadlines assembles the block's stored settings into the two absolute
// deadline instants.
func (b *Block) Deadlines() (due, lateDue time.Time, err error) {
	if due, err = AssembleStrings(b.DueDate, b.DueTime); err != nil {
		return
	}
	lateDue, err = AssembleStrings(b.LateDueDate, b.LateDueTime)
	return
}

// NewBlock contains information needed to create a new Block.
type NewBlock struct {
	DisplayName    string  `json:"display_name"`
	DueDate        string  `json:"due_date" validate:"required,dateslash"`
	DueTime        string  `json:"due_time" validate:"omitempty,timehm"`
	LateDueDate    string  `json:"late_due_date" validate:"required,dateslash"`
	LateDueTime    string  `json:"late_due_time" validate:"omitempty,timehm"`
	DuePassedText  string  `json:"due_passed_text"`
	LatePassedText string  `json:"late_passed_text"`
	Children       []Child `json:"children"`
}

func (nb *NewBlock) Validate(validate *validator.Validate) error {
	nb.DisplayName = core.CleanString(nb.DisplayName)
	nb.DueDate = core.CleanString(nb.DueDate)
	nb.DueTime = core.CleanString(nb.DueTime)
	nb.LateDueDate = core.CleanString(nb.LateDueDate)
	nb.LateDueTime = core.CleanString(nb.LateDueTime)

	if nb.DisplayName == "" {
		nb.DisplayName = DefaultDisplayName
	}
	if nb.DueTime == "" {
		nb.DueTime = DefaultDueTime
	}
	if nb.LateDueTime == "" {
		nb.LateDueTime = DefaultLateDueTime
	}
	if nb.DuePassedText == "" {
		nb.DuePassedText = DefaultDuePassedText
	}
	if nb.LatePassedText == "" {
		nb.LatePassedText = DefaultLatePassedText
	}

	if err := validate.Struct(nb); err != nil {
		return err
	}
	return ValidatePair(nb.DueDate, nb.DueTime, nb.LateDueDate, nb.LateDueTime)
}

// EditBlock is the edit-time payload: submitted field values plus the
// per-field defaults the editor was rendered with. Fields absent from Values
// keep their stored value; validation falls back to the stored value first
// and the provided default last.
type EditBlock struct {
	Values   map[string]string `json:"values"`
	Defaults map[string]string `json:"defaults"`
}

// StudentView is one of the three render branches for a viewer at an instant.
type StudentView struct {
	BlockID       string     `json:"block_id"`
	DisplayName   string     `json:"display_name"`
	State         State      `json:"state"`
	Due           time.Time  `json:"due_date"`
	LateDue       time.Time  `json:"late_due_date"`
	Message       string     `json:"message,omitempty"`
	CanAcceptLate bool       `json:"can_accept_late"`
	Children      []Fragment `json:"children,omitempty"`
}
