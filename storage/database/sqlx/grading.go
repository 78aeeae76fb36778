package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

type (
	blockRow struct {
		ID             string      `db:"id"`
		DisplayName    string      `db:"display_name"`
		DueDate        string      `db:"due_date"`
		DueTime        string      `db:"due_time"`
		LateDueDate    string      `db:"late_due_date"`
		LateDueTime    string      `db:"late_due_time"`
		DuePassedText  null.String `db:"due_passed_text"`
		LatePassedText null.String `db:"late_passed_text"`
		CreatedAt      time.Time   `db:"created_at"`
		UpdatedAt      time.Time   `db:"updated_at"`
	}

	childRow struct {
		ID       string `db:"id"`
		BlockID  string `db:"block_id"`
		Content  string `db:"content"`
		Position int    `db:"position"`
	}

	submissionRow struct {
		ID         string    `db:"id"`
		BlockID    string    `db:"block_id"`
		UserID     string    `db:"user_id"`
		Username   string    `db:"username"`
		Email      string    `db:"email"`
		AcceptedAt time.Time `db:"accepted_at"`
		Position   int       `db:"position"`
	}

	blockRepository struct {
		db *sqlx.DB
	}
)

func NewBlockRepository(db *sqlx.DB) grading.Repository {
	return &blockRepository{db: db}
}

func toRow(blk grading.Block) blockRow {
	return blockRow{
		ID:             blk.ID,
		DisplayName:    blk.DisplayName,
		DueDate:        blk.DueDate,
		DueTime:        blk.DueTime,
		LateDueDate:    blk.LateDueDate,
		LateDueTime:    blk.LateDueTime,
		DuePassedText:  null.NewString(blk.DuePassedText, blk.DuePassedText != ""),
		LatePassedText: null.NewString(blk.LatePassedText, blk.LatePassedText != ""),
		CreatedAt:      blk.CreatedAt,
		UpdatedAt:      blk.UpdatedAt,
	}
}

func (row blockRow) toBlock(children []grading.Child) grading.Block {
	return grading.Block{
		ID:             row.ID,
		DisplayName:    row.DisplayName,
		DueDate:        row.DueDate,
		DueTime:        row.DueTime,
		LateDueDate:    row.LateDueDate,
		LateDueTime:    row.LateDueTime,
		DuePassedText:  row.DuePassedText.String,
		LatePassedText: row.LatePassedText.String,
		Children:       children,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func (repo *blockRepository) queryChildren(ctx context.Context, q sqlx.QueryerContext, blockID string) ([]grading.Child, error) {
	var rows []childRow
	query := repo.db.Rebind(`SELECT * FROM block_child WHERE block_id = ? ORDER BY position`)
	if err := sqlx.SelectContext(ctx, q, &rows, query, blockID); err != nil {
		return nil, errors.Wrap(err, "querying children")
	}
	children := make([]grading.Child, 0, len(rows))
	for _, row := range rows {
		children = append(children, grading.Child{ID: row.ID, Content: row.Content})
	}
	return children, nil
}

func (repo *blockRepository) insertChildren(ctx context.Context, tx *sqlx.Tx, blockID string, children []grading.Child) error {
	query := repo.db.Rebind(`INSERT INTO block_child (id, block_id, content, position) VALUES (?, ?, ?, ?)`)
	for i, child := range children {
		if _, err := tx.ExecContext(ctx, query, child.ID, blockID, child.Content, i); err != nil {
			return errors.Wrap(err, "inserting child")
		}
	}
	return nil
}

func (repo *blockRepository) CreateBlock(ctx context.Context, blk grading.Block) (grading.Block, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return grading.Block{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	row := toRow(blk)
	query := repo.db.Rebind(`
		INSERT INTO block (
			id, display_name, due_date, due_time, late_due_date, late_due_time,
			due_passed_text, late_passed_text, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err = tx.ExecContext(
		ctx, query,
		row.ID, row.DisplayName, row.DueDate, row.DueTime, row.LateDueDate, row.LateDueTime,
		row.DuePassedText, row.LatePassedText, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return grading.Block{}, errors.Wrap(err, "inserting block")
	}
	if err = repo.insertChildren(ctx, tx, blk.ID, blk.Children); err != nil {
		return grading.Block{}, err
	}
	if err = tx.Commit(); err != nil {
		return grading.Block{}, errors.Wrap(err, "committing tx")
	}
	return blk, nil
}

func (repo *blockRepository) QueryAllBlocks(ctx context.Context) ([]grading.Block, error) {
	var rows []blockRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM block ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying blocks")
	}
	blocks := make([]grading.Block, 0, len(rows))
	for _, row := range rows {
		children, err := repo.queryChildren(ctx, repo.db, row.ID)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, row.toBlock(children))
	}
	return blocks, nil
}

func (repo *blockRepository) GetBlockByID(ctx context.Context, id string) (grading.Block, error) {
	var row blockRow
	query := repo.db.Rebind(`SELECT * FROM block WHERE id = ?`)
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return grading.Block{}, grading.ErrNotFound
		}
		return grading.Block{}, errors.Wrap(err, "querying block")
	}
	children, err := repo.queryChildren(ctx, repo.db, id)
	if err != nil {
		return grading.Block{}, err
	}
	return row.toBlock(children), nil
}

func (repo *blockRepository) UpdateBlock(ctx context.Context, blk grading.Block) (grading.Block, error) {
	row := toRow(blk)
	query := repo.db.Rebind(`
		UPDATE block SET
			display_name = ?, due_date = ?, due_time = ?, late_due_date = ?, late_due_time = ?,
			due_passed_text = ?, late_passed_text = ?, updated_at = ?
		WHERE id = ?`)
	res, err := repo.db.ExecContext(
		ctx, query,
		row.DisplayName, row.DueDate, row.DueTime, row.LateDueDate, row.LateDueTime,
		row.DuePassedText, row.LatePassedText, row.UpdatedAt, row.ID,
	)
	if err != nil {
		return grading.Block{}, errors.Wrap(err, "updating block")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grading.Block{}, grading.ErrNotFound
	}
	return repo.GetBlockByID(ctx, blk.ID)
}

func (repo *blockRepository) DeleteBlocksByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM block WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "binding ids")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting blocks")
	}
	return nil
}

func (repo *blockRepository) AppendLateSubmission(ctx context.Context, sub grading.LateSubmission) (grading.LateSubmission, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return grading.LateSubmission{}, errors.Wrap(err, "beginning tx")
	}
	defer func() { _ = tx.Rollback() }()

	var position int
	query := repo.db.Rebind(`SELECT COUNT(*) FROM late_submission WHERE block_id = ?`)
	if err = tx.GetContext(ctx, &position, query, sub.BlockID); err != nil {
		return grading.LateSubmission{}, errors.Wrap(err, "counting ledger entries")
	}

	query = repo.db.Rebind(`
		INSERT INTO late_submission (id, block_id, user_id, username, email, accepted_at, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err = tx.ExecContext(
		ctx, query,
		sub.ID, sub.BlockID, sub.UserID, sub.Username, sub.Email, sub.AcceptedAt, position+1,
	); err != nil {
		return grading.LateSubmission{}, errors.Wrap(err, "appending ledger entry")
	}

	query = repo.db.Rebind(`INSERT INTO late_acceptance (block_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`)
	if _, err = tx.ExecContext(ctx, query, sub.BlockID, sub.UserID); err != nil {
		return grading.LateSubmission{}, errors.Wrap(err, "setting acceptance flag")
	}

	if err = tx.Commit(); err != nil {
		return grading.LateSubmission{}, errors.Wrap(err, "committing tx")
	}
	return sub, nil
}

func (repo *blockRepository) HasAcceptedLate(ctx context.Context, blockID, userID string) (bool, error) {
	var count int
	query := repo.db.Rebind(`SELECT COUNT(*) FROM late_acceptance WHERE block_id = ? AND user_id = ?`)
	if err := repo.db.GetContext(ctx, &count, query, blockID, userID); err != nil {
		return false, errors.Wrap(err, "querying acceptance flag")
	}
	return count > 0, nil
}

func (repo *blockRepository) QueryLateSubmissions(ctx context.Context, blockID string) ([]grading.LateSubmission, error) {
	var rows []submissionRow
	query := repo.db.Rebind(`SELECT * FROM late_submission WHERE block_id = ? ORDER BY position`)
	if err := repo.db.SelectContext(ctx, &rows, query, blockID); err != nil {
		return nil, errors.Wrap(err, "querying ledger")
	}
	subs := make([]grading.LateSubmission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, grading.LateSubmission{
			ID:         row.ID,
			BlockID:    row.BlockID,
			UserID:     row.UserID,
			Username:   row.Username,
			Email:      row.Email,
			AcceptedAt: row.AcceptedAt,
		})
	}
	return subs, nil
}
