package grading

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// csvTimeLayout is the instant format used in ledger exports.
const csvTimeLayout = "2006-01-02 15:04:05"

// csvHeader is fixed; consumers of the export rely on these column names.
var csvHeader = []string{"anonymous_user_id", "username", "email", "datetime"}

// ExportPath is where a block's ledger export lands, scoped by category.
func ExportPath(exportDir, blockID string) string {
	return filepath.Join(exportDir, Category, "late_submissions_"+blockID+".csv")
}

// ExportLedger writes the block's acceptance events to a CSV file, one row
// per ledger entry in append order, and returns the file's path.
func (svc *Service) ExportLedger(ctx context.Context, id string) (string, error) {
	if _, err := svc.repo.GetBlockByID(ctx, id); err != nil {
		return "", err
	}
	subs, err := svc.repo.QueryLateSubmissions(ctx, id)
	if err != nil {
		return "", errors.Wrap(err, "querying ledger")
	}

	path := ExportPath(svc.conf.ExportDir, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "creating export dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating export file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", errors.Wrap(err, "writing header")
	}
	for _, sub := range subs {
		row := []string{sub.UserID, sub.Username, sub.Email, sub.AcceptedAt.UTC().Format(csvTimeLayout)}
		if err := w.Write(row); err != nil {
			return "", errors.Wrap(err, "writing row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.Wrap(err, "flushing export")
	}
	return path, nil
}
