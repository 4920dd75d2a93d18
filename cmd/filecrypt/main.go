// Command filecrypt is a thin CLI over the filecrypt package: encrypt,
// decrypt, archive, extract, and key-file generation.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: false}).With().Timestamp().Logger()

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
