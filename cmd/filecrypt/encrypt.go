package main

import (
	"github.com/spf13/cobra"

	"github.com/novafluxx/filecrypt"
)

func newEncryptCommand() *cobra.Command {
	var (
		chunkSize int
		compress  bool
		keyFile   string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "encrypt <input> <output>",
		Short: "Encrypt a file",
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

			opts := filecrypt.EncryptOptions{
				ChunkSize:      chunkSize,
				Compress:       compress,
				KeyFilePath:    keyFile,
				AllowOverwrite: overwrite,
				Progress: func(done, total uint64) {
					log.Debug().Uint64("done", done).Uint64("total", total).Msg("encrypt progress")
				},
			}

			if err := engine.Encrypt(args[0], args[1], opts); err != nil {
				return err
			}
			log.Info().Str("input", args[0]).Str("output", args[1]).Msg("encrypted")
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "plaintext chunk size in bytes (0 = 1 MiB default)")
	cmd.Flags().BoolVar(&compress, "compress", false, "enable per-chunk ZSTD compression")
	cmd.Flags().StringVar(&keyFile, "key-file", "", "path to a key-file to mix into the derived key")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing output file")
	return cmd
}
