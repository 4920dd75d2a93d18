package main

import (
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/novafluxx/filecrypt"
)

func newArchiveCommand() *cobra.Command {
	var (
		output    string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "archive <files...>",
		Short: "Bundle files into a TAR+ZSTD archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := filecrypt.SanitizeArchiveName(filepath.Base(output), time.Now())
			name := filepath.Join(filepath.Dir(output), base)
			opts := filecrypt.ArchiveOptions{
				AllowOverwrite: overwrite,
				Progress: func(done, total uint64) {
					log.Debug().Uint64("done", done).Uint64("total", total).Msg("archive progress")
				},
			}
			if err := filecrypt.CreateArchive(args, name, opts); err != nil {
				return err
			}
			log.Info().Str("archive", name).Int("files", len(args)).Msg("archived")
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "archive.tar.zst", "archive output path")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing archive")
	return cmd
}

func newExtractCommand() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "extract <archive> <output-dir>",
		Short: "Extract a TAR+ZSTD archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := filecrypt.ExtractArchive(args[0], args[1], overwrite)
			if err != nil {
				return err
			}
			log.Info().Int("files", len(written)).Str("dir", args[1]).Msg("extracted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite existing files")
	return cmd
}
