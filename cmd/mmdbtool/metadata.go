package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geodb-oss/mmdbreader"
)

var metadataCmd = &cobra.Command{
	Use:   "metadata <file>",
	Short: "Print a database's metadata as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetadata,
}

func runMetadata(_ *cobra.Command, args []string) error {
	db, err := mmdbreader.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer db.Close()

	logger.Debug("loaded database", "path", args[0], "database_type", db.Metadata.DatabaseType)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(db.Metadata)
}
