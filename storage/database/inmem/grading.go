package inmemdb

import (
	"context"

	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

type blockRepository struct {
	db *gradingTables
}

func NewBlockRepository(db *DB) grading.Repository {
	return &blockRepository{db: db.grading}
}

func (repo *blockRepository) CreateBlock(_ context.Context, blk grading.Block) (grading.Block, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.blocks[blk.ID] = &blk
	return blk, nil
}

func (repo *blockRepository) QueryAllBlocks(_ context.Context) ([]grading.Block, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	blocks := make([]grading.Block, 0, len(repo.db.blocks))
	for _, blk := range repo.db.blocks {
		blocks = append(blocks, *blk)
	}
	return blocks, nil
}

func (repo *blockRepository) GetBlockByID(_ context.Context, id string) (grading.Block, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if blk, ok := repo.db.blocks[id]; ok {
		return *blk, nil
	}
	return grading.Block{}, grading.ErrNotFound
}

func (repo *blockRepository) UpdateBlock(_ context.Context, blk grading.Block) (grading.Block, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.blocks[blk.ID]
	if !ok {
		return grading.Block{}, grading.ErrNotFound
	}
	blk.CreatedAt = orig.CreatedAt
	if blk.Children == nil {
		blk.Children = orig.Children
	}
	repo.db.blocks[blk.ID] = &blk
	return blk, nil
}

func (repo *blockRepository) DeleteBlocksByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.blocks, id)
		delete(repo.db.flags, id)
		delete(repo.db.ledger, id)
	}
	return nil
}

func (repo *blockRepository) AppendLateSubmission(_ context.Context, sub grading.LateSubmission) (grading.LateSubmission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.blocks[sub.BlockID]; !ok {
		return grading.LateSubmission{}, grading.ErrNotFound
	}
	repo.db.ledger[sub.BlockID] = append(repo.db.ledger[sub.BlockID], sub)
	flags, ok := repo.db.flags[sub.BlockID]
	if !ok {
		flags = make(map[string]bool)
		repo.db.flags[sub.BlockID] = flags
	}
	flags[sub.UserID] = true
	return sub, nil
}

func (repo *blockRepository) HasAcceptedLate(_ context.Context, blockID, userID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.flags[blockID][userID], nil
}

func (repo *blockRepository) QueryLateSubmissions(_ context.Context, blockID string) ([]grading.LateSubmission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]grading.LateSubmission, len(repo.db.ledger[blockID]))
	copy(subs, repo.db.ledger[blockID])
	return subs, nil
}
