package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errReported means the failure was already shown to the user
var errReported = errors.New("reported")

// rootConfig holds the flags every command shares
type rootConfig struct {
	flags       *ff.FlagSet
	serverURL   *string
	sessionPath *string
	authUser    *string
	authPass    *string
	configFile  *string
	showVersion *bool
}

func newRootConfig() *rootConfig {
	fs := ff.NewFlagSet("billed")
	return &rootConfig{
		flags:       fs,
		serverURL:   fs.StringLong("server", "http://localhost:8080", "Bills API base URL"),
		sessionPath: fs.StringLong("session", "billed-session.db", "Session file path"),
		authUser:    fs.StringLong("auth-user", "", "Basic auth username (optional)"),
		authPass:    fs.StringLong("auth-pass", "", "Basic auth password (optional)"),
		configFile:  fs.StringLong("config", "", "Config file (optional)"),
		showVersion: fs.BoolLong("version", "Show version information"),
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	root := newRootConfig()
	cmd := &ff.Command{
		Name:      "billed",
		Usage:     "billed [FLAGS] <SUBCOMMAND> ...",
		ShortHelp: "submit and review expense report bills",
		Flags:     root.flags,
		Subcommands: []*ff.Command{
			newServeCommand(root),
			newLoginCommand(root),
			newLogoutCommand(root),
			newBillsCommand(root),
			newNewBillCommand(root),
		},
		Exec: func(ctx context.Context, args []string) error {
			if *root.showVersion {
				fmt.Println(version)
				return nil
			}
			return ff.ErrHelp
		},
	}

	if err := cmd.Parse(os.Args[1:],
		ff.WithEnvVarPrefix("BILLED"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(selected(cmd)))
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(selected(cmd)))
	case errors.Is(err, errReported):
		stop()
		os.Exit(1)
	default:
		slog.Error("Command failed", "command", selected(cmd).Name, "error", err)
		stop()
		os.Exit(1)
	}
}

// selected is the subcommand picked on the command line, or cmd itself
func selected(cmd *ff.Command) *ff.Command {
	if sel := cmd.GetSelected(); sel != nil {
		return sel
	}
	return cmd
}
