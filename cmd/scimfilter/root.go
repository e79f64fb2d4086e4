package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scimfilter",
		Short: "SCIM filter parser",
		Long: `scimfilter parses SCIM filter and PATCH path expressions.

Commands:
  parse  - parse a single expression and print its canonical form or tree
  serve  - run an HTTP server exposing /parse and a filterable /Users endpoint`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(newParseCmd())
	root.AddCommand(newServeCmd())
	return root
}
