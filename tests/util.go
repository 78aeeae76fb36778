package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/eduNEXT/extemporaneous-grading/core"
	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

// NewConfig returns a minimal test configuration.
func NewConfig(t *testing.T) *core.Config {
	t.Helper()
	return &core.Config{
		TestMode:  true,
		AppName:   "Extemporaneous Grading",
		SecretKey: "secret",
		ExportDir: t.TempDir(),
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
		},
		DisableReqLogs: true,
	}
}

// CreateBlock persists a block with the given deadline settings.
func CreateBlock(
	t *testing.T,
	repo grading.Repository,
	id, name, dueDate, dueTime, lateDueDate, lateDueTime string,
	children ...grading.Child,
) grading.Block {
	t.Helper()
	tstamp := time.Now().UTC()
	blk := grading.Block{
		ID:             id,
		DisplayName:    name,
		DueDate:        dueDate,
		DueTime:        dueTime,
		LateDueDate:    lateDueDate,
		LateDueTime:    lateDueTime,
		DuePassedText:  grading.DefaultDuePassedText,
		LatePassedText: grading.DefaultLatePassedText,
		Children:       children,
		CreatedAt:      tstamp,
		UpdatedAt:      tstamp,
	}
	blk, err := repo.CreateBlock(context.Background(), blk)
	if err != nil {
		t.Fatalf("CreateBlock() failed: %v", err)
	}
	return blk
}

// Date formats a time as the month/day/year string authors submit.
func Date(t time.Time) string {
	return t.UTC().Format(grading.DateLayout)
}

// Clock formats a time as the HH:MM string authors submit.
func Clock(t time.Time) string {
	return t.UTC().Format(grading.TimeLayout)
}
