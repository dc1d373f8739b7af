package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fwatch/internal/config"
	"fwatch/internal/eventbus"
)

func newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.DefaultFileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			bus := eventbus.New()
			bus.Subscribe(eventbus.EventConfigSaved, func(e eventbus.DomainEvent) {
				if ev, ok := e.(eventbus.ConfigSavedEvent); ok {
					fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Clean(ev.Path))
				}
			})
			// Close delivers the saved event before the command returns
			defer bus.Close()
			return writeDefaultConfig(dir, force, bus)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func writeDefaultConfig(dir string, force bool, bus eventbus.EventBus) error {
	svc := config.NewConfigServiceWithBus(dir, bus)
	path := svc.Path()
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	cfg.Roots = []string{"."}
	cfg.Command = []string{"echo", "changed:", "{}"}
	cfg.Ignore = []string{"node_modules", "target/", "vendor"}
	return svc.Save(cfg)
}
