package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/service"
)

func newCatalogCmd(opts *options) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the Pokémon catalog",
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the catalog from PokeAPI and update the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			entries, err := rt.catalog.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d Pokémon en cache\n", len(entries))
			return nil
		},
	}

	var (
		typeLabel string
		sortOrder string
		page      int
	)
	searchCmd := &cobra.Command{
		Use:   "search [term]",
		Short: "List Pokémon whose name starts with term",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			entries, err := rt.catalog.Entries(cmd.Context())
			if err != nil {
				return err
			}
			q := catalog.Query{
				Type:     typeLabel,
				Sort:     catalog.ParseSort(sortOrder),
				Page:     page,
				PageSize: rt.cfg.UI.PageSize,
				Lang:     rt.cfg.Catalog.Language,
			}
			if len(args) == 1 {
				q.Search = args[0]
			}
			printPage(cmd, catalog.Browse(entries, q))
			return nil
		},
	}
	searchCmd.Flags().StringVarP(&typeLabel, "type", "t", "", "Type filter ("+strings.Join(catalog.TypeLabels, ", ")+")")
	searchCmd.Flags().StringVarP(&sortOrder, "sort", "s", "", "Sort by name: asc or desc")
	searchCmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show stats and evolutions of one Pokémon",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			entry, err := rt.catalog.Lookup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			d, err := rt.catalog.Detail(cmd.Context(), entry)
			if err != nil && d.Slug == "" {
				return err
			}
			printDetail(cmd, d, rt.cfg.UI.StatMax)
			return warn(cmd, err)
		},
	}

	catalogCmd.AddCommand(refreshCmd, searchCmd, showCmd)
	return catalogCmd
}

func printPage(cmd *cobra.Command, p catalog.Page) {
	out := cmd.OutOrStdout()
	for _, e := range p.Items {
		fmt.Fprintf(out, "#%03d %-14s %s\n", e.ID, e.Name, strings.Join(e.Types, "/"))
	}
	if p.Total == 0 {
		fmt.Fprintln(out, "Aucun Pokémon trouvé.")
		if len(p.Suggestions) > 0 {
			fmt.Fprintf(out, "Vouliez-vous dire : %s ?\n", strings.Join(p.Suggestions, ", "))
		}
		return
	}
	fmt.Fprintf(out, "Page %d/%d (%d résultats)\n", p.Number, p.TotalPages, p.Total)
}

func printDetail(cmd *cobra.Command, d catalog.Detail, statMax int) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "#%03d %s\n", d.ID, d.Name)
	fmt.Fprintf(out, "Types : %s\n", strings.Join(d.TypeLabels, ", "))
	for _, name := range catalog.StatNames(d.Stats) {
		v := d.Stats[name]
		filled := int(catalog.StatBar(v, statMax)*20 + 0.5)
		fmt.Fprintf(out, "%-16s %3d %s%s\n", name, v, strings.Repeat("█", filled), strings.Repeat("░", 20-filled))
	}
	if len(d.Evolutions) > 0 {
		var names []string
		for _, st := range d.Evolutions {
			names = append(names, st.Name)
		}
		fmt.Fprintf(out, "Évolutions : %s\n", strings.Join(names, " → "))
	}
	if next, ok := service.NextEvolution(d); ok {
		fmt.Fprintf(out, "Vers %s :", next.Name)
		for _, delta := range catalog.CompareStats(d.Stats, next.Stats) {
			fmt.Fprintf(out, " %s %+d", delta.Name, delta.Delta)
		}
		fmt.Fprintln(out)
	}
}
