package grading

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

var (
	// errors
	ErrNotFound = errors.New("block not found")
)

type (
	Repository interface {
		CreateBlock(ctx context.Context, blk Block) (Block, error)
		QueryAllBlocks(ctx context.Context) ([]Block, error)
		GetBlockByID(ctx context.Context, id string) (Block, error)
		UpdateBlock(ctx context.Context, blk Block) (Block, error)
		DeleteBlocksByID(ctx context.Context, ids ...string) error

		// AppendLateSubmission appends one ledger entry and flips the
		// viewer's acceptance flag for the block. Entries are append-only.
		AppendLateSubmission(ctx context.Context, sub LateSubmission) (LateSubmission, error)
		HasAcceptedLate(ctx context.Context, blockID, userID string) (bool, error)
		// QueryLateSubmissions returns a block's ledger entries in append order.
		QueryLateSubmissions(ctx context.Context, blockID string) ([]LateSubmission, error)
	}

	Service struct {
		repo     Repository
		renderer Renderer
		mailSvc  core.EmailService
		conf     *core.Config
	}
)

func NewService(repo Repository, renderer Renderer, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		renderer: renderer,
		mailSvc:  mailSvc,
		conf:     conf,
	}
}

func (svc *Service) Create(ctx context.Context, nb NewBlock) (Block, error) {
	now := time.Now().UTC()
	blk := Block{
		ID:             uuid.New().String(),
		DisplayName:    nb.DisplayName,
		DueDate:        nb.DueDate,
		DueTime:        nb.DueTime,
		LateDueDate:    nb.LateDueDate,
		LateDueTime:    nb.LateDueTime,
		DuePassedText:  nb.DuePassedText,
		LatePassedText: nb.LatePassedText,
		Children:       nb.Children,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range blk.Children {
		if blk.Children[i].ID == "" {
			blk.Children[i].ID = uuid.New().String()
		}
	}
	return svc.repo.CreateBlock(ctx, blk)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Block, error) {
	return svc.repo.QueryAllBlocks(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Block, error) {
	return svc.repo.GetBlockByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteBlocksByID(ctx, ids...)
}

// UpdateSettings runs the edit-time validators over the submitted payload and
// commits the changed fields. A validation failure rejects the whole edit;
// stored settings stay untouched.
func (svc *Service) UpdateSettings(ctx context.Context, id string, edit EditBlock) (Block, error) {
	blk, err := svc.repo.GetBlockByID(ctx, id)
	if err != nil {
		return Block{}, err
	}
	if err := edit.Apply(&blk); err != nil {
		return Block{}, err
	}
	blk.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateBlock(ctx, blk)
}

// StudentView classifies `now` against the block's deadlines for the viewer
// and assembles the matching render branch. Children are rendered once each
// and only on full access.
func (svc *Service) StudentView(ctx context.Context, id string, viewer Student, now time.Time) (StudentView, error) {
	blk, err := svc.repo.GetBlockByID(ctx, id)
	if err != nil {
		return StudentView{}, err
	}
	due, lateDue, err := blk.Deadlines()
	if err != nil {
		return StudentView{}, pkgerrors.Wrap(err, "assembling deadlines")
	}

	accepted, err := svc.repo.HasAcceptedLate(ctx, blk.ID, viewer.ID)
	if err != nil {
		return StudentView{}, pkgerrors.Wrap(err, "reading acceptance flag")
	}

	view := StudentView{
		BlockID:     blk.ID,
		DisplayName: blk.DisplayName,
		State:       Classify(now, due, lateDue, accepted),
		Due:         due,
		LateDue:     lateDue,
	}

	switch view.State {
	case StateLatePassed:
		if view.Message, err = svc.renderer.RenderMessage(blk.LatePassedText); err != nil {
			return StudentView{}, pkgerrors.Wrap(err, "rendering late passed message")
		}
	case StateDuePassed:
		if view.Message, err = svc.renderer.RenderMessage(blk.DuePassedText); err != nil {
			return StudentView{}, pkgerrors.Wrap(err, "rendering due passed message")
		}
		view.CanAcceptLate = true
	default:
		view.Children = make([]Fragment, 0, len(blk.Children))
		for _, child := range blk.Children {
			frag, err := svc.renderer.RenderChild(ctx, child, viewer)
			if err != nil {
				return StudentView{}, pkgerrors.Wrapf(err, "rendering child %s", child.ID)
			}
			view.Children = append(view.Children, frag)
		}
	}
	return view, nil
}

// AcceptLate records the viewer's explicit opt-in to the late window: one
// ledger entry is appended and the viewer's flag flips to true. The ledger is
// deliberately not deduplicated; accepting twice appends two entries.
func (svc *Service) AcceptLate(ctx context.Context, id string, viewer Student, now time.Time) (LateSubmission, error) {
	blk, err := svc.repo.GetBlockByID(ctx, id)
	if err != nil {
		return LateSubmission{}, err
	}
	sub := LateSubmission{
		ID:         uuid.New().String(),
		BlockID:    blk.ID,
		UserID:     viewer.ID,
		Username:   viewer.Username,
		Email:      viewer.Email,
		AcceptedAt: now.UTC(),
	}
	return svc.repo.AppendLateSubmission(ctx, sub)
}

func (svc *Service) HasAccepted(ctx context.Context, id, userID string) (bool, error) {
	return svc.repo.HasAcceptedLate(ctx, id, userID)
}

// QueryLedger returns a block's acceptance events in append order.
func (svc *Service) QueryLedger(ctx context.Context, id string) ([]LateSubmission, error) {
	if _, err := svc.repo.GetBlockByID(ctx, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryLateSubmissions(ctx, id)
}

// EmailLedger exports a block's ledger and mails the CSV to `to` as an
// attachment.
func (svc *Service) EmailLedger(ctx context.Context, id string, to mail.Address) error {
	blk, err := svc.repo.GetBlockByID(ctx, id)
	if err != nil {
		return err
	}
	path, err := svc.ExportLedger(ctx, id)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:      []mail.Address{to},
		Subject: "Late submissions report: " + blk.DisplayName,
		BodyStr: "Attached is the late submissions report for \"" + blk.DisplayName + "\".",
	}
	if err := msg.AttachFile(path, "text/csv"); err != nil {
		return pkgerrors.Wrap(err, "attaching ledger export")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}
