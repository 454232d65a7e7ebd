// Command mmdbtool inspects and queries MaxMind DB files from the command
// line: printing metadata, looking up a single address, verifying a
// database's internal consistency, and dumping every network it contains.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
