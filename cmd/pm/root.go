package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/atotto/clipboard"
	clog "github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Hussein-Mazeh/pwvault/internal/config"
	"github.com/Hussein-Mazeh/pwvault/internal/logging"
	"github.com/Hussein-Mazeh/pwvault/internal/service"
)

// app carries what every command needs. Tests swap the filesystem, the
// writers, the password prompt and the clipboard.
type app struct {
	out    io.Writer
	errOut io.Writer
	fs     afero.Fs
	prompt func(label string) ([]byte, error)
	copy   func(text string) error

	cfgFile string
	cfg     config.Config
	log     *clog.Logger
	svc     *service.Service
}

func newApp() *app {
	return &app{
		out:    os.Stdout,
		errOut: os.Stderr,
		fs:     afero.NewOsFs(),
		prompt: promptPassword,
		copy:   clipboard.WriteAll,
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pm",
		Short: "pm keeps named password vaults encrypted on disk.",
		Long: `pm stores credential records (service, email, password, note) in
vaults, one encrypted file per vault, each unlocked by its own master
password. Master passwords are only ever read from the terminal.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return userError{msg: fmt.Sprintf("unknown command %q; run 'pm --help' for usage", args[0])}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "version", "help", "pm":
				return nil
			}
			return a.init(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.Version = version

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default <user config dir>/password-manager/pm.yaml or ./pm.yaml)")
	flags.String("data-dir", config.DefaultDataDir(), "directory holding vault files and the registry")
	flags.String("log-level", "info", "diagnostics level (debug, info, warn, error)")
	flags.Bool("breach-check", false, "check new passwords against Have I Been Pwned")
	flags.Int("min-score", 3, "zxcvbn score (0-4) below which a password is reported weak")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return userError{msg: fmt.Sprintf("%v\n\n%s", err, c.UsageString())}
	})
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)

	cmd.AddCommand(
		newListCmd(a),
		newCreateCmd(a),
		newImportCmd(a),
		newRemoveCmd(a),
		newInspectCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteEntryCmd(a),
		newCopyCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags(), a.cfgFile)
	if err != nil {
		return userError{msg: err.Error()}
	}
	logger, err := logging.New(a.errOut, cfg.LogLevel)
	if err != nil {
		return userError{msg: err.Error()}
	}
	svc, err := service.New(cfg, service.WithFs(a.fs), service.WithLogger(logger))
	if err != nil {
		// A damaged users.dat would otherwise be described as a damaged vault.
		return userError{msg: fmt.Sprintf("cannot read the vault registry in %s: %v", cfg.DataDir, err)}
	}

	logger.Debug("config resolved", "data_dir", cfg.DataDir, "breach_check", cfg.BreachCheck)
	a.cfg, a.log, a.svc = cfg, logger, svc
	return nil
}

// exactArgs is cobra.ExactArgs reported as a user error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return userError{msg: fmt.Sprintf("%v\n\nUsage: %s", err, cmd.UseLine())}
		}
		return nil
	}
}

// parseIndex converts the 1-based entry number shown by `pm show`.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, userError{msg: fmt.Sprintf("invalid entry number %q", s)}
	}
	return n - 1, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pm version",
		Args:  exactArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, version)
		},
	}
}
