package main

import (
	"github.com/spf13/cobra"

	"github.com/novafluxx/filecrypt"
)

func newDecryptCommand() *cobra.Command {
	var (
		keyFile   string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "decrypt <input> <output>",
		Short: "Decrypt a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pwStr, err := readPassword()
			if err != nil {
				return err
			}
			pw := filecrypt.NewPassword([]byte(pwStr))

			engine, err := filecrypt.NewEngine(pw)
			if err != nil {
				pw.Release()
				return err
			}
			defer engine.Close()

			opts := filecrypt.DecryptOptions{
				KeyFilePath:    keyFile,
				AllowOverwrite: overwrite,
				Progress: func(done, total uint64) {
					log.Debug().Uint64("done", done).Uint64("total", total).Msg("decrypt progress")
				},
			}

			if err := engine.Decrypt(args[0], args[1], opts); err != nil {
				return err
			}
			log.Info().Str("input", args[0]).Str("output", args[1]).Msg("decrypted")
			return nil
		},
	}

	cmd.Flags().StringVar(&keyFile, "key-file", "", "path to the key-file used during encryption")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing output file")
	return cmd
}
