package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fwatch/internal/app"
	"fwatch/internal/config"
	"fwatch/internal/eventbus"
)

type watchOptions struct {
	extension  string
	regex      string
	pager      bool
	configPath string
	ignore     []string
	logFile    string
}

func newWatchCmd() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [flags] <dir>... -- <command> [args...]",
		Short: "Watch directories and run a command on every written file",
		Example: `  fwatch watch src -- go vet {}
  fwatch watch -e rs . -- cargo build
  fwatch watch --pager --regex '_test\.go$' . -- go test {}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.extension, "ext", "e", "", "only trigger for files with this extension")
	flags.StringVar(&opts.regex, "regex", "", "only trigger for paths matching this regular expression")
	flags.BoolVarP(&opts.pager, "pager", "p", false, "show command output in the built-in pager")
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultFileName+" when present)")
	flags.StringSliceVar(&opts.ignore, "ignore", nil, "glob of directories to skip, repeatable")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs here (default "+config.DefaultLogFile+" with --pager, else stderr)")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *watchOptions) error {
	dirs, command := splitArgs(args, cmd.ArgsLenAtDash())

	// The bus drains before the log file is closed
	bus := eventbus.New()
	closeLog := func() {}
	defer func() {
		bus.Close()
		closeLog()
	}()

	cfg, err := loadConfig(opts.configPath, bus)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, opts, dirs, command)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Pager && !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("--pager needs a terminal on stdout")
	}

	closeLog, err = setupLogging(cfg.LogPath())
	if err != nil {
		closeLog = func() {}
		return err
	}

	rt, err := app.New(cfg, bus)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rt.Run(ctx)
}

// splitArgs separates directories from the command at "--". Without a
// dash everything is a directory and the command must come from config.
func splitArgs(args []string, dash int) (dirs, command []string) {
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

func loadConfig(path string, bus eventbus.EventBus) (*config.Config, error) {
	svc := config.NewConfigServiceWithBus(".", bus)
	if path != "" {
		return svc.LoadFromPath(path)
	}
	cfg, err := svc.Load()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.DefaultFileName, err)
	}
	return cfg, nil
}

// applyFlags lets the command line override the config file
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *watchOptions, dirs, command []string) {
	if len(dirs) > 0 {
		cfg.Roots = dirs
	}
	if len(command) > 0 {
		cfg.Command = command
	}

	flags := cmd.Flags()
	if flags.Changed("ext") {
		cfg.Extension = config.NormalizeExtension(opts.extension)
	}
	if flags.Changed("regex") {
		cfg.Regex = opts.regex
	}
	if flags.Changed("pager") {
		cfg.Pager = opts.pager
	}
	if flags.Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, opts.ignore...)
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
}
