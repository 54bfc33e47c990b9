package config

import (
	"flag"
	"os"

	"github.com/mkalvans/passvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   data directory (default from Config)
//	-t int      security-token TTL in seconds (default from Config)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.IntVar(&cfg.TokenTTLSeconds, "t", cfg.TokenTTLSeconds, "security token ttl (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
