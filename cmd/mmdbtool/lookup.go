package main

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geodb-oss/mmdbreader"
)

var lookupPath string

var lookupCmd = &cobra.Command{
	Use:   "lookup <file> <ip>",
	Short: "Look up an address and print its record as JSON",
	Args:  cobra.ExactArgs(2),
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupPath, "path", "", "dot-separated map key path into the record, e.g. country.iso_code")
}

func runLookup(_ *cobra.Command, args []string) error {
	file, ipArg := args[0], args[1]

	ip, err := netip.ParseAddr(ipArg)
	if err != nil {
		return fmt.Errorf("parsing address %q: %w", ipArg, err)
	}

	db, err := mmdbreader.Open(file)
	if err != nil {
		return fmt.Errorf("opening %s: %w", file, err)
	}
	defer db.Close()

	logger.Debug("looking up address", "path", file, "ip", ipArg)

	result := db.Lookup(ip)
	if err := result.Err(); err != nil {
		return fmt.Errorf("looking up %s: %w", ipArg, err)
	}

	var record any
	if lookupPath != "" {
		keys := strings.Split(lookupPath, ".")
		path := make([]any, len(keys))
		for i, k := range keys {
			path[i] = k
		}
		if err := result.DecodePath(&record, path...); err != nil {
			return fmt.Errorf("decoding path %q: %w", lookupPath, err)
		}
	} else if err := result.Decode(&record); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}
