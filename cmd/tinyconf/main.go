package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/eugenenazirov/tinyconf/internal/bootstrap"
	"github.com/eugenenazirov/tinyconf/internal/config"
	"github.com/eugenenazirov/tinyconf/internal/export"
	"github.com/eugenenazirov/tinyconf/internal/logging"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	app := kingpin.New("tinyconf", "Resolves layered configuration properties")
	flags := bootstrap.Register(app)
	logLevel := app.Flag("log-level", "Level of load diagnostics written to stderr").Default("warn").String()
	format := app.Flag("format", "Output format: "+fmt.Sprint(export.Formats())).Default(string(export.FormatProperties)).Enum(export.Formats()...)

	getCmd := app.Command("get", "Print the value of a property")
	getKey := getCmd.Arg("key", "Case-sensitive property key").Required().String()

	siblingsCmd := app.Command("siblings", "Print properties sharing a prefix, without children")
	siblingsPrefix := siblingsCmd.Arg("prefix", "Key prefix; a trailing @ includes dotted suffixes").Required().String()

	childrenCmd := app.Command("children", "Print the children of a property with the parent prefix stripped")
	childrenKey := childrenCmd.Arg("key", "Parent property key").Required().String()

	dumpCmd := app.Command("dump", "Print the whole resolved configuration").Default()

	command, err := app.Parse(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	loader, err := flags.Loader(logger)
	if err != nil {
		return err
	}
	store := config.NewLazy(loader).Store()

	outputFormat, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}

	switch command {
	case getCmd.FullCommand():
		value, ok := store.Get(*getKey)
		if !ok {
			return fmt.Errorf("property %q is not defined", *getKey)
		}
		_, err := fmt.Fprintln(out, value)
		return err
	case siblingsCmd.FullCommand():
		return export.Write(out, store.Siblings(*siblingsPrefix), outputFormat)
	case childrenCmd.FullCommand():
		return export.Write(out, store.Children(*childrenKey), outputFormat)
	case dumpCmd.FullCommand():
		return export.Write(out, store.Snapshot(), outputFormat)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
