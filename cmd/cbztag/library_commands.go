package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cbztag/internal/catalog"
	"cbztag/internal/config"
	"cbztag/internal/library"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	libraryCmd := &cobra.Command{
		Use:   "library",
		Short: "Index and query the archives in the library directory",
	}
	libraryCmd.AddCommand(newLibraryScanCommand(ctx))
	libraryCmd.AddCommand(newLibraryListCommand(ctx))
	libraryCmd.AddCommand(newLibrarySearchCommand(ctx))
	libraryCmd.AddCommand(newLibraryStatsCommand(ctx))
	return libraryCmd
}

func newLibraryScanCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var noPrune bool

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Index every .cbz archive under a directory (default paths.library_dir)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return ctx.withCatalog(func(cfg *config.Config, store *catalog.Store) error {
				root := cfg.Paths.LibraryDir
				if len(args) == 1 {
					root = strings.TrimSpace(args[0])
				}
				scanner, err := library.NewScanner(cfg, store, logger)
				if err != nil {
					return err
				}
				opts := library.DefaultOptions()
				opts.Force = force
				opts.Prune = !noPrune

				result, err := scanner.Scan(commandContextOrBackground(cmd), root, opts)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %s: %d archives, %d indexed, %d unchanged, %d removed in %s\n",
					result.Root, result.Seen, result.Indexed, result.Unchanged, result.Removed, result.Duration.Round(time.Millisecond))
				if len(result.Failures) > 0 {
					rows := make([][]string, 0, len(result.Failures))
					for _, f := range result.Failures {
						rows = append(rows, []string{f.Kind, f.Path, f.Error})
					}
					fmt.Fprintln(out, renderTable([]string{"Kind", "Path", "Error"}, rows, nil, shouldColorize(out)))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-read archives even when size and modification time are unchanged")
	cmd.Flags().BoolVar(&noPrune, "no-prune", false, "Keep catalog rows for archives that no longer exist")
	return cmd
}

func newLibraryListCommand(ctx *commandContext) *cobra.Command {
	var series string
	var missing bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed archives ordered by series and issue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(_ *config.Config, store *catalog.Store) error {
				entries, err := store.List(commandContextOrBackground(cmd), catalog.ListOptions{
					Series:          strings.TrimSpace(series),
					MissingMetadata: missing,
					Limit:           limit,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if entries == nil {
						entries = []catalog.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No archives indexed")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.DisplayName(), strconv.Itoa(e.PageCount), yesNo(e.HasMetadata), e.Path})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Archive", "Pages", "Metadata", "Path"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft},
					shouldColorize(out),
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "Only list archives of this series")
	cmd.Flags().BoolVar(&missing, "missing", false, "Only list archives without ComicInfo.xml")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows (0 for all)")
	return cmd
}

func newLibrarySearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Rank indexed archives against a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withCatalog(func(_ *config.Config, store *catalog.Store) error {
				matches, err := store.Search(commandContextOrBackground(cmd), query, limit)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					if matches == nil {
						matches = []catalog.Match{}
					}
					return writeJSON(cmd, matches)
				}
				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintf(out, "No archives match %q\n", query)
					return nil
				}
				rows := make([][]string, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, []string{strconv.FormatFloat(m.Score, 'f', 2, 64), m.Entry.DisplayName(), m.Entry.Path})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Score", "Archive", "Path"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
					shouldColorize(out),
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of matches")
	return cmd
}

func newLibraryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(_ *config.Config, store *catalog.Store) error {
				stats, err := store.Stats(commandContextOrBackground(cmd))
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				rows := [][]string{
					{"Archives", strconv.Itoa(stats.Archives)},
					{"With metadata", strconv.Itoa(stats.WithMetadata)},
					{"Series", strconv.Itoa(stats.Series)},
					{"Pages", strconv.FormatInt(stats.Pages, 10)},
					{"Archive size", formatBytes(stats.TotalSizeBytes)},
					{"Catalog", fmt.Sprintf("%s (%s)", store.Path(), formatBytes(stats.DatabaseSize))},
				}
				fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}, shouldColorize(out)))
				return nil
			})
		},
	}
}
