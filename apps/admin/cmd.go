package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/eduNEXT/extemporaneous-grading/core"
	"github.com/eduNEXT/extemporaneous-grading/core/grading"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf      *core.Config
	db        *sql.DB
	blockRepo grading.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND - run DB migrations (up, down, status, ...)")
	fmt.Println("  listblocks - list all blocks")
	fmt.Println("  exportledger -block BLOCK_ID - export a block's late submissions to CSV")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	exportLedgerCmd := flag.NewFlagSet("exportledger", flag.ExitOnError)
	exportLedgerBlock := exportLedgerCmd.String("block", "", "The block ID whose ledger to export.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "listblocks":
		return cli.listBlocks()
	case "exportledger":
		if err := exportLedgerCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportLedgerBlock == "" {
			exportLedgerCmd.Usage()
			return errHelp
		}
		return cli.exportLedger(*exportLedgerBlock)
	default:
		cli.printUsage()
		return errHelp
	}
}
