package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/geodb-oss/mmdbreader"
)

var dumpOut string

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Write one JSON object per network to NDJSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpOut, "out", "", "output file (default stdout)")
}

type networkRecord struct {
	Network string `json:"network"`
	Record  any    `json:"record"`
}

func runDump(_ *cobra.Command, args []string) error {
	db, err := mmdbreader.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer db.Close()

	var w io.Writer = os.Stdout
	if dumpOut != "" {
		f, err := os.Create(dumpOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", dumpOut, err)
		}
		defer f.Close()
		w = f
	}

	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)

	count := 0
	for net := range db.Networks() {
		if err := net.Err(); err != nil {
			return fmt.Errorf("walking search tree: %w", err)
		}

		var record any
		if err := net.Decode(&record); err != nil {
			return fmt.Errorf("decoding %s: %w", net.Prefix, err)
		}

		if err := enc.Encode(networkRecord{Network: net.Prefix.String(), Record: record}); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		count++
	}

	if err := buf.Flush(); err != nil {
		return err
	}
	logger.Info("dumped networks", "count", count)
	return nil
}
