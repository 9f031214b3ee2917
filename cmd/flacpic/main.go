// flacpic lists, embeds and extracts the pictures of FLAC files.
//
// Usage:
//
//	flacpic list [OPTION]... FILE.flac...
//	flacpic embed [OPTION]... IMAGE FILE.flac
//	flacpic extract [OPTION]... FILE.flac...
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: flacpic [list|embed|extract] [OPTION]... FILE...")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, "list [OPTION]... FILE.flac...")
	fmt.Fprintln(os.Stderr, "  List the picture metadata blocks of FLAC files.")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, "embed [OPTION]... IMAGE FILE.flac")
	fmt.Fprintln(os.Stderr, "  Store a copy of FILE.flac with IMAGE added as a picture metadata block.")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, "extract [OPTION]... FILE.flac...")
	fmt.Fprintln(os.Stderr, "  Write the image data of each picture metadata block to a file.")
	fmt.Fprintln(os.Stderr)

	fmt.Fprintln(os.Stderr, "Run 'flacpic COMMAND --help' for the options of a command.")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("flacpic: ")
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	var err error
	switch command {
	case "list":
		err = runList(args)
	case "embed":
		err = runEmbed(args)
	case "extract":
		err = runExtract(args)
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		log.Fatalf("unknown command %q", command)
	}
	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		log.Fatalf("%+v", err)
	}
}

// newFlagSet returns a flag set for the given command, with a usage message
// listing its arguments and flags.
func newFlagSet(command, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: flacpic %s [OPTION]... %s\n", command, args)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	return fs
}
