// Command offpath-ingest loads travel_blogs JSON dumps into the document store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
