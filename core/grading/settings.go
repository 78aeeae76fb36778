package grading

import (
	"github.com/pkg/errors"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

// fieldSpec describes one editable block setting: how to read it, how to
// write it back and how to check a submitted value. The editable surface is
// this static list; no runtime field introspection.
type fieldSpec struct {
	name     string
	validate func(string) error // nil for free-form text
	get      func(*Block) string
	assign   func(*Block, string)
	fallback string
}

var editableFields = []fieldSpec{
	{
		name:     "display_name",
		get:      func(b *Block) string { return b.DisplayName },
		assign:   func(b *Block, v string) { b.DisplayName = v },
		fallback: DefaultDisplayName,
	},
	{
		name:     "due_date",
		validate: func(v string) error { _, err := ParseDate(v); return err },
		get:      func(b *Block) string { return b.DueDate },
		assign:   func(b *Block, v string) { b.DueDate = v },
	},
	{
		name:     "due_time",
		validate: ValidateTimeFormat,
		get:      func(b *Block) string { return b.DueTime },
		assign:   func(b *Block, v string) { b.DueTime = v },
		fallback: DefaultDueTime,
	},
	{
		name:     "late_due_date",
		validate: func(v string) error { _, err := ParseDate(v); return err },
		get:      func(b *Block) string { return b.LateDueDate },
		assign:   func(b *Block, v string) { b.LateDueDate = v },
	},
	{
		name:     "late_due_time",
		validate: ValidateTimeFormat,
		get:      func(b *Block) string { return b.LateDueTime },
		assign:   func(b *Block, v string) { b.LateDueTime = v },
		fallback: DefaultLateDueTime,
	},
	{
		name:     "due_passed_text",
		get:      func(b *Block) string { return b.DuePassedText },
		assign:   func(b *Block, v string) { b.DuePassedText = v },
		fallback: DefaultDuePassedText,
	},
	{
		name:     "late_passed_text",
		get:      func(b *Block) string { return b.LatePassedText },
		assign:   func(b *Block, v string) { b.LatePassedText = v },
		fallback: DefaultLatePassedText,
	},
}

// resolve picks the value a field would have after this edit: the submitted
// value when present, else the stored one, else the editor-provided default,
// else the built-in fallback.
func (e EditBlock) resolve(spec fieldSpec, blk *Block) string {
	if v, ok := e.Values[spec.name]; ok {
		return core.CleanString(v)
	}
	if cur := spec.get(blk); cur != "" {
		return cur
	}
	if d, ok := e.Defaults[spec.name]; ok && d != "" {
		return d
	}
	return spec.fallback
}

// Apply validates the submitted values and commits them onto the block.
// Validation runs fully before any field is mutated; a failed edit leaves the
// block untouched.
func (e EditBlock) Apply(blk *Block) error {
	for _, spec := range editableFields {
		v, ok := e.Values[spec.name]
		if !ok {
			continue
		}
		if spec.validate != nil {
			if err := spec.validate(core.CleanString(v)); err != nil {
				return err
			}
		}
	}

	var resolved [4]string
	for i, name := range [...]string{"due_date", "due_time", "late_due_date", "late_due_time"} {
		spec, ok := lookupField(name)
		if !ok {
			return errors.Errorf("unknown editable field %q", name)
		}
		resolved[i] = e.resolve(spec, blk)
	}
	if err := ValidatePair(resolved[0], resolved[1], resolved[2], resolved[3]); err != nil {
		return err
	}

	for _, spec := range editableFields {
		if v, ok := e.Values[spec.name]; ok {
			spec.assign(blk, core.CleanString(v))
		}
	}
	return nil
}

func lookupField(name string) (fieldSpec, bool) {
	for _, spec := range editableFields {
		if spec.name == name {
			return spec, true
		}
	}
	return fieldSpec{}, false
}
