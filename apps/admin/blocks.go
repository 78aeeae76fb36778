package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

// listBlocks prints all blocks with their deadline settings.
func (cli *commandLine) listBlocks() error {
	blocks, err := cli.blockRepo.QueryAllBlocks(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDISPLAY NAME\tDUE\tLATE DUE")
	for _, blk := range blocks {
		_, _ = fmt.Fprintf(
			w, "%s\t%s\t%s %s\t%s %s\n",
			blk.ID, blk.DisplayName, blk.DueDate, blk.DueTime, blk.LateDueDate, blk.LateDueTime,
		)
	}
	return w.Flush()
}

// exportLedger writes a block's late submissions CSV and prints its path.
func (cli *commandLine) exportLedger(blockID string) error {
	svc := grading.NewService(cli.blockRepo, nil, nil, cli.conf)
	path, err := svc.ExportLedger(context.Background(), blockID)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
