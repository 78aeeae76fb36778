package grading_test

import (
	"context"
	"encoding/csv"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduNEXT/extemporaneous-grading/core/grading"
	emailsvc "github.com/eduNEXT/extemporaneous-grading/services/email"
	rendersvc "github.com/eduNEXT/extemporaneous-grading/services/render"
	inmemdb "github.com/eduNEXT/extemporaneous-grading/storage/database/inmem"
	"github.com/eduNEXT/extemporaneous-grading/tests"
)

var (
	ctx = context.Background()

	student = grading.Student{ID: "anon-1", Username: "awa", Email: "awa@test.cm"}

	due     = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lateDue = time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)
)

func newTestService(t *testing.T) (*grading.Service, grading.Repository) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewBlockRepository(db)
	conf := testutil.NewConfig(t)
	svc := grading.NewService(repo, rendersvc.NewMarkdownRenderer(), emailsvc.NewDummyService(conf), conf)
	return svc, repo
}

func createDeadlineBlock(t *testing.T, repo grading.Repository, children ...grading.Child) grading.Block {
	t.Helper()
	return testutil.CreateBlock(
		t, repo, "blk1", "Homework 1",
		testutil.Date(due), testutil.Clock(due),
		testutil.Date(lateDue), testutil.Clock(lateDue),
		children...,
	)
}

func TestServiceCreate(t *testing.T) {
	svc, repo := newTestService(t)

	blk, err := svc.Create(ctx, grading.NewBlock{
		DisplayName:    "Homework 1",
		DueDate:        "6/1/2024",
		DueTime:        "12:00",
		LateDueDate:    "6/8/2024",
		LateDueTime:    "12:00",
		DuePassedText:  grading.DefaultDuePassedText,
		LatePassedText: grading.DefaultLatePassedText,
		Children:       []grading.Child{{Content: "# Part 1"}, {Content: "# Part 2"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, blk.ID)
	require.Len(t, blk.Children, 2)
	assert.NotEmpty(t, blk.Children[0].ID)
	assert.NotEqual(t, blk.Children[0].ID, blk.Children[1].ID)
	assert.False(t, blk.CreatedAt.IsZero())

	stored, err := repo.GetBlockByID(ctx, blk.ID)
	require.NoError(t, err)
	assert.Equal(t, blk.DisplayName, stored.DisplayName)
}

func TestServiceStudentView(t *testing.T) {
	t.Run("full access before due renders children", func(t *testing.T) {
		svc, repo := newTestService(t)
		createDeadlineBlock(t, repo,
			grading.Child{ID: "c1", Content: "# Part 1"},
			grading.Child{ID: "c2", Content: "plain text"},
		)

		view, err := svc.StudentView(ctx, "blk1", student, due.Add(-time.Hour))
		require.NoError(t, err)

		assert.Equal(t, grading.StateFullAccess, view.State)
		assert.Equal(t, due, view.Due)
		assert.Equal(t, lateDue, view.LateDue)
		assert.Empty(t, view.Message)
		assert.False(t, view.CanAcceptLate)
		require.Len(t, view.Children, 2)
		assert.Contains(t, view.Children[0].Content, "<h1>Part 1</h1>")
		assert.Contains(t, view.Children[1].Content, "plain text")
	})

	t.Run("due passed renders message, offers acceptance", func(t *testing.T) {
		svc, repo := newTestService(t)
		createDeadlineBlock(t, repo, grading.Child{ID: "c1", Content: "# Part 1"})

		view, err := svc.StudentView(ctx, "blk1", student, due.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, grading.StateDuePassed, view.State)
		assert.Contains(t, view.Message, "You can still submit it as a late submission.")
		assert.True(t, view.CanAcceptLate)
		assert.Empty(t, view.Children)
	})

	t.Run("late passed renders message, no acceptance", func(t *testing.T) {
		svc, repo := newTestService(t)
		createDeadlineBlock(t, repo, grading.Child{ID: "c1", Content: "# Part 1"})

		view, err := svc.StudentView(ctx, "blk1", student, lateDue.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, grading.StateLatePassed, view.State)
		assert.Contains(t, view.Message, "You can no longer submit this assignment.")
		assert.False(t, view.CanAcceptLate)
		assert.Empty(t, view.Children)
	})

	t.Run("acceptance restores access in the late window only", func(t *testing.T) {
		svc, repo := newTestService(t)
		createDeadlineBlock(t, repo, grading.Child{ID: "c1", Content: "# Part 1"})
		inWindow := due.Add(time.Hour)

		_, err := svc.AcceptLate(ctx, "blk1", student, inWindow)
		require.NoError(t, err)

		view, err := svc.StudentView(ctx, "blk1", student, inWindow)
		require.NoError(t, err)
		assert.Equal(t, grading.StateFullAccess, view.State)
		assert.Len(t, view.Children, 1)

		// acceptance does not survive the late deadline
		view, err = svc.StudentView(ctx, "blk1", student, lateDue.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, grading.StateLatePassed, view.State)

		// and is scoped to the accepting viewer
		view, err = svc.StudentView(ctx, "blk1", grading.Student{ID: "anon-2", Username: "jam"}, inWindow)
		require.NoError(t, err)
		assert.Equal(t, grading.StateDuePassed, view.State)
	})

	t.Run("messages are rendered from markdown", func(t *testing.T) {
		svc, repo := newTestService(t)
		blk := createDeadlineBlock(t, repo)
		blk.DuePassedText = "**Too late**, see [help](https://help.test)"
		_, err := repo.UpdateBlock(ctx, blk)
		require.NoError(t, err)

		view, err := svc.StudentView(ctx, "blk1", student, due.Add(time.Hour))
		require.NoError(t, err)
		assert.Contains(t, view.Message, "<strong>Too late</strong>")
		assert.Contains(t, view.Message, "<a href=\"https://help.test\">help</a>")
	})

	t.Run("unknown block", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.StudentView(ctx, "nope", student, due)
		assert.ErrorIs(t, err, grading.ErrNotFound)
	})
}

// deadlines moving around a viewer's recorded acceptance: the acceptance keeps
// granting access inside whatever the current late window is, and stops
// mattering once the late deadline lands in the past.
func TestServiceStudentView_movingDeadlines(t *testing.T) {
	svc, repo := newTestService(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	blk := testutil.CreateBlock(
		t, repo, "blk1", "Homework 1",
		testutil.Date(now.AddDate(0, 0, 1)), testutil.Clock(now),
		testutil.Date(now.AddDate(0, 0, 2)), testutil.Clock(now),
	)

	view, err := svc.StudentView(ctx, blk.ID, student, now)
	require.NoError(t, err)
	assert.Equal(t, grading.StateFullAccess, view.State)

	_, err = svc.AcceptLate(ctx, blk.ID, student, now)
	require.NoError(t, err)

	// due moves into the past; acceptance keeps the viewer in
	_, err = svc.UpdateSettings(ctx, blk.ID, grading.EditBlock{Values: map[string]string{
		"due_date": testutil.Date(now.AddDate(0, 0, -2)),
	}})
	require.NoError(t, err)
	view, err = svc.StudentView(ctx, blk.ID, student, now)
	require.NoError(t, err)
	assert.Equal(t, grading.StateFullAccess, view.State)

	// late due moves into the past too; acceptance no longer helps
	_, err = svc.UpdateSettings(ctx, blk.ID, grading.EditBlock{Values: map[string]string{
		"late_due_date": testutil.Date(now.AddDate(0, 0, -1)),
	}})
	require.NoError(t, err)
	view, err = svc.StudentView(ctx, blk.ID, student, now)
	require.NoError(t, err)
	assert.Equal(t, grading.StateLatePassed, view.State)
}

func TestServiceUpdateSettings(t *testing.T) {
	svc, repo := newTestService(t)
	createDeadlineBlock(t, repo)

	blk, err := svc.UpdateSettings(ctx, "blk1", grading.EditBlock{Values: map[string]string{
		"display_name": "Homework 1b",
		"due_time":     "10:00",
	}})
	require.NoError(t, err)
	assert.Equal(t, "Homework 1b", blk.DisplayName)
	assert.Equal(t, "10:00", blk.DueTime)

	// a rejected edit leaves stored settings untouched
	_, err = svc.UpdateSettings(ctx, "blk1", grading.EditBlock{Values: map[string]string{
		"display_name": "Homework 1c",
		"due_time":     "99:00",
	}})
	require.Error(t, err)
	stored, err := repo.GetBlockByID(ctx, "blk1")
	require.NoError(t, err)
	assert.Equal(t, "Homework 1b", stored.DisplayName)
	assert.Equal(t, "10:00", stored.DueTime)
}

func TestServiceAcceptLate(t *testing.T) {
	t.Run("appends one entry per call, no dedupe", func(t *testing.T) {
		svc, repo := newTestService(t)
		createDeadlineBlock(t, repo)
		first := due.Add(time.Hour)
		second := due.Add(2 * time.Hour)

		sub, err := svc.AcceptLate(ctx, "blk1", student, first)
		require.NoError(t, err)
		assert.NotEmpty(t, sub.ID)
		assert.Equal(t, "blk1", sub.BlockID)
		assert.Equal(t, student.ID, sub.UserID)
		assert.Equal(t, first, sub.AcceptedAt)

		_, err = svc.AcceptLate(ctx, "blk1", student, second)
		require.NoError(t, err)

		subs, err := svc.QueryLedger(ctx, "blk1")
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, first, subs[0].AcceptedAt)
		assert.Equal(t, second, subs[1].AcceptedAt)

		accepted, err := svc.HasAccepted(ctx, "blk1", student.ID)
		require.NoError(t, err)
		assert.True(t, accepted)
	})

	t.Run("unknown block", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.AcceptLate(ctx, "nope", student, due)
		assert.ErrorIs(t, err, grading.ErrNotFound)
	})
}

func TestServiceExportLedger(t *testing.T) {
	svc, repo := newTestService(t)
	createDeadlineBlock(t, repo)

	other := grading.Student{ID: "anon-2", Username: "jam", Email: ""}
	_, err := svc.AcceptLate(ctx, "blk1", student, due.Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.AcceptLate(ctx, "blk1", other, due.Add(2*time.Hour))
	require.NoError(t, err)

	path, err := svc.ExportLedger(ctx, "blk1")
	require.NoError(t, err)
	assert.Contains(t, path, "extemporaneous_grading")
	assert.Contains(t, path, "late_submissions_blk1.csv")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"anonymous_user_id", "username", "email", "datetime"}, rows[0])
	assert.Equal(t, []string{"anon-1", "awa", "awa@test.cm", "2024-06-01 13:00:00"}, rows[1])
	assert.Equal(t, []string{"anon-2", "jam", "", "2024-06-01 14:00:00"}, rows[2])
}

func TestServiceExportLedger_emptyLedger(t *testing.T) {
	svc, repo := newTestService(t)
	createDeadlineBlock(t, repo)

	path, err := svc.ExportLedger(ctx, "blk1")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	// header only
	require.Len(t, rows, 1)
}

func TestServiceEmailLedger(t *testing.T) {
	svc, repo := newTestService(t)
	createDeadlineBlock(t, repo)
	_, err := svc.AcceptLate(ctx, "blk1", student, due.Add(time.Hour))
	require.NoError(t, err)

	sentBefore := len(emailsvc.SentMessages)
	err = svc.EmailLedger(ctx, "blk1", mail.Address{Name: "Staff", Address: "staff@test.cm"})
	require.NoError(t, err)

	require.Len(t, emailsvc.SentMessages, sentBefore+1)
	msg := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	assert.Equal(t, "Late submissions report: Homework 1", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "late_submissions_blk1.csv", msg.Attachments[0].Filename)
	assert.Contains(t, msg.Attachments[0].Content.String(), "anon-1,awa,awa@test.cm")
}
