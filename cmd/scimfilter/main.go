// Command scimfilter parses SCIM filters from the command line and serves a
// demo SCIM Users endpoint backed by GORM.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
