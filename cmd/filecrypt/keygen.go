package main

import (
	"github.com/spf13/cobra"

	"github.com/novafluxx/filecrypt"
)

func newKeygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen <path>",
		Short: "Generate a random key-file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := filecrypt.GenerateKeyFile(args[0]); err != nil {
				return err
			}
			log.Info().Str("path", args[0]).Msg("key-file generated")
			return nil
		},
	}
}
