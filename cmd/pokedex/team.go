package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/pokedex/internal/roster"
	"github.com/jask/pokedex/internal/service"
)

func newTeamCmd(opts *options) *cobra.Command {
	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "Show and edit the team",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.loadTeam(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), roster.Summary(rt.team.List()))
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a Pokémon to the end of the team",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.loadTeam(cmd.Context()); err != nil {
				return err
			}
			entry, err := rt.catalog.Lookup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			err = rt.team.Add(cmd.Context(), entry.Name)
			switch {
			case errors.Is(err, roster.ErrDuplicate), errors.Is(err, roster.ErrFull):
				return errors.New(service.AddMessage(entry.Name, err))
			case err != nil && !roster.IsWarning(err):
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.AddMessage(entry.Name, err))
			return warn(cmd, err)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove-last",
		Short: "Remove the most recently added Pokémon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.loadTeam(cmd.Context()); err != nil {
				return err
			}
			removed, err := rt.team.RemoveLast(cmd.Context())
			if errors.Is(err, roster.ErrEmpty) {
				return errors.New("Votre équipe est vide.")
			}
			if err != nil && !roster.IsWarning(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), service.RemoveMessage(removed, rt.team.Len()))
			return warn(cmd, err)
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.loadTeam(cmd.Context()); err != nil {
				return err
			}
			err = rt.team.Clear(cmd.Context())
			if err != nil && !roster.IsWarning(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), roster.Summary(rt.team.List()))
			return warn(cmd, err)
		},
	}

	var size int
	randomCmd := &cobra.Command{
		Use:   "random",
		Short: "Replace the team with random Pokémon from the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.loadTeam(cmd.Context()); err != nil {
				return err
			}
			if !cmd.Flags().Changed("size") {
				size = rt.cfg.Team.RandomSize
			}
			entries, err := rt.catalog.Entries(cmd.Context())
			if err != nil {
				return err
			}
			names, err := rt.team.GenerateRandom(cmd.Context(), entries, size)
			if err != nil && !roster.IsWarning(err) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), roster.Summary(names))
			return warn(cmd, err)
		},
	}
	randomCmd.Flags().IntVarP(&size, "size", "n", roster.Capacity, "Team size (1-6)")

	teamCmd.AddCommand(listCmd, addCmd, removeCmd, clearCmd, randomCmd)
	return teamCmd
}

// warn prints a persistence warning without failing the command: the change
// was applied for this run but is not stored.
func warn(cmd *cobra.Command, err error) error {
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return nil
}
