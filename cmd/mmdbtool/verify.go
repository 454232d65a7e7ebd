package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geodb-oss/mmdbreader"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Check a database's internal consistency",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func runVerify(_ *cobra.Command, args []string) error {
	db, err := mmdbreader.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer db.Close()

	if err := db.Verify(); err != nil {
		return fmt.Errorf("%s failed verification: %w", args[0], err)
	}

	logger.Info("database is valid", "path", args[0])
	fmt.Println("OK")
	return nil
}
