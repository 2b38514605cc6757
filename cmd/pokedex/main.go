package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// options holds the global flags.
type options struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "pokedex",
		Short: "Terminal Pokédex with a persisted team of six",
		Long: `pokedex browses the PokeAPI catalog and manages a team of up to six
Pokémon stored in a local sqlite database.

Run without arguments to start the interactive interface.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: $POKEDEX_CONFIG or ~/.config/pokedex/config.toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newTeamCmd(opts))
	root.AddCommand(newCatalogCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newResetCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
