package grading

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

func newTestValidator(t *testing.T) *validator.Validate {
	t.Helper()
	validate, translator := core.NewValidator()
	RegisterValidators(validate, translator)
	return validate
}

func newTestBlock() Block {
	return Block{
		ID:             "blk1",
		DisplayName:    "Homework 1",
		DueDate:        "6/1/2024",
		DueTime:        "12:00",
		LateDueDate:    "6/8/2024",
		LateDueTime:    "12:00",
		DuePassedText:  DefaultDuePassedText,
		LatePassedText: DefaultLatePassedText,
	}
}

func TestEditBlockApply(t *testing.T) {
	t.Run("commits submitted values", func(t *testing.T) {
		blk := newTestBlock()
		edit := EditBlock{Values: map[string]string{
			"display_name": "  Homework 2 ",
			"due_date":     "7/1/2024",
			"due_time":     "09:30",
		}}

		err := edit.Apply(&blk)

		assert.NoError(t, err)
		assert.Equal(t, "Homework 2", blk.DisplayName)
		assert.Equal(t, "7/1/2024", blk.DueDate)
		assert.Equal(t, "09:30", blk.DueTime)
		assert.Equal(t, "6/8/2024", blk.LateDueDate) // untouched
	})

	t.Run("absent fields keep stored values", func(t *testing.T) {
		blk := newTestBlock()
		edit := EditBlock{Values: map[string]string{"late_passed_text": "Closed."}}

		err := edit.Apply(&blk)

		assert.NoError(t, err)
		assert.Equal(t, "Closed.", blk.LatePassedText)
		assert.Equal(t, "Homework 1", blk.DisplayName)
		assert.Equal(t, "6/1/2024", blk.DueDate)
	})

	t.Run("invalid time rejected with exact message", func(t *testing.T) {
		blk := newTestBlock()
		edit := EditBlock{Values: map[string]string{
			"display_name": "Homework 2",
			"due_time":     "24:00",
		}}

		err := edit.Apply(&blk)

		assert.EqualError(t, err, "Invalid time format. The valid format is HH:MM.")
		assert.Equal(t, newTestBlock(), blk) // no partial write
	})

	t.Run("invalid date rejected", func(t *testing.T) {
		blk := newTestBlock()
		edit := EditBlock{Values: map[string]string{"due_date": "2024-06-01"}}

		err := edit.Apply(&blk)

		assert.Error(t, err)
		assert.Equal(t, newTestBlock(), blk)
	})

	t.Run("pair checked against resolved values", func(t *testing.T) {
		// only the due date moves; the stored late due date makes the pair
		// inverted, so the edit fails without any mutation.
		blk := newTestBlock()
		edit := EditBlock{Values: map[string]string{"due_date": "6/9/2024"}}

		err := edit.Apply(&blk)

		assert.EqualError(t, err, "The due date must be before the late due date.")
		assert.Equal(t, newTestBlock(), blk)
	})

	t.Run("equal deadlines allowed", func(t *testing.T) {
		blk := newTestBlock()
		edit := EditBlock{Values: map[string]string{"due_date": "6/8/2024"}}

		assert.NoError(t, edit.Apply(&blk))
		assert.Equal(t, "6/8/2024", blk.DueDate)
	})

	t.Run("editor defaults fill empty stored fields", func(t *testing.T) {
		blk := newTestBlock()
		blk.LateDueTime = ""
		edit := EditBlock{
			Values:   map[string]string{"due_time": "10:00"},
			Defaults: map[string]string{"late_due_time": "18:00"},
		}

		// resolved late due is 6/8/2024 18:00, still after due; the edit
		// passes but the empty stored field itself is not written.
		assert.NoError(t, edit.Apply(&blk))
		assert.Equal(t, "10:00", blk.DueTime)
		assert.Equal(t, "", blk.LateDueTime)
	})

	t.Run("fallbacks used when no default provided", func(t *testing.T) {
		blk := newTestBlock()
		blk.DueTime = ""
		blk.LateDueTime = ""
		edit := EditBlock{Values: map[string]string{"display_name": "X"}}

		// both times resolve to the 23:59 fallback
		assert.NoError(t, edit.Apply(&blk))
	})

	t.Run("unknown fields ignored", func(t *testing.T) {
		blk := newTestBlock()
		edit := EditBlock{Values: map[string]string{"weight": "10"}}

		assert.NoError(t, edit.Apply(&blk))
		assert.Equal(t, newTestBlock(), blk)
	})
}

func TestNewBlockValidate(t *testing.T) {
	validate := newTestValidator(t)

	t.Run("defaults applied", func(t *testing.T) {
		nb := NewBlock{DueDate: "6/1/2024", LateDueDate: "6/8/2024"}

		assert.NoError(t, nb.Validate(validate))
		assert.Equal(t, DefaultDisplayName, nb.DisplayName)
		assert.Equal(t, DefaultDueTime, nb.DueTime)
		assert.Equal(t, DefaultLateDueTime, nb.LateDueTime)
		assert.Equal(t, DefaultDuePassedText, nb.DuePassedText)
		assert.Equal(t, DefaultLatePassedText, nb.LatePassedText)
	})

	t.Run("missing dates rejected", func(t *testing.T) {
		nb := NewBlock{}
		assert.Error(t, nb.Validate(validate))
	})

	t.Run("bad time rejected", func(t *testing.T) {
		nb := NewBlock{DueDate: "6/1/2024", DueTime: "25:00", LateDueDate: "6/8/2024"}
		assert.Error(t, nb.Validate(validate))
	})

	t.Run("inverted pair rejected", func(t *testing.T) {
		nb := NewBlock{DueDate: "6/8/2024", LateDueDate: "6/1/2024"}
		assert.EqualError(t, nb.Validate(validate), "The due date must be before the late due date.")
	})
}
