package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "filecrypt",
		Short: "Password-authenticated streaming file encryption",
	}

	root.AddCommand(newEncryptCommand())
	root.AddCommand(newDecryptCommand())
	root.AddCommand(newArchiveCommand())
	root.AddCommand(newExtractCommand())
	root.AddCommand(newKeygenCommand())

	return root
}

// readPassword reads a password from the PASSWORD environment variable,
// matching the original command-line surface's expectation that secrets
// never appear directly as flags.
func readPassword() (string, error) {
	return requireEnv("PASSWORD")
}
