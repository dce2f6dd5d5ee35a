package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cbztag/internal/cbz"
	"cbztag/internal/comicinfo"
	"cbztag/internal/fileutil"
	"cbztag/internal/language"
)

var skipConfig = map[string]string{"skipConfigLoad": "true"}

func newArchiveCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newShowCommand(ctx),
		newSetCommand(ctx),
		newPagesCommand(ctx),
		newCoverCommand(ctx),
		newInfoCommand(ctx),
		newLintCommand(ctx),
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asXML bool

	cmd := &cobra.Command{
		Use:         "show <archive>",
		Short:       "Display the ComicInfo metadata of an archive",
		Args:        cobra.ExactArgs(1),
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := archiveArg(cmd, args[0])
			doc, err := cbz.ReadMetadata(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case asXML:
				payload, err := comicinfo.Encode(doc)
				if err != nil {
					return fmt.Errorf("encode metadata: %w", err)
				}
				_, err = out.Write(payload)
				if err == nil && len(payload) > 0 && payload[len(payload)-1] != '\n' {
					fmt.Fprintln(out)
				}
				return err
			case ctx.jsonOutput():
				return writeJSON(cmd, doc)
			}

			present := comicinfo.Present(doc)
			if len(present) == 0 {
				fmt.Fprintf(out, "No metadata in %s\n", path)
				return nil
			}
			rows := make([][]string, 0, len(present))
			for _, kv := range present {
				value := kv[1]
				if kv[0] == "LanguageISO" {
					if name := language.DisplayName(value); name != "" && !strings.EqualFold(name, value) {
						value = fmt.Sprintf("%s (%s)", value, name)
					}
				}
				rows = append(rows, []string{kv[0], value})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil, shouldColorize(out)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asXML, "xml", false, "Print the encoded ComicInfo.xml document")
	return cmd
}

func newSetCommand(ctx *commandContext) *cobra.Command {
	var fromJSON string
	var recount bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "set <archive> [Field=Value...]",
		Short: "Update ComicInfo fields and save the archive",
		Long: "Update ComicInfo fields and save the archive.\n\n" +
			"Each Field=Value pair is applied in order; an empty value clears the field.\n" +
			"PageCount is filled from the archive's images when it is not set.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := archiveArg(cmd, args[0])
			assignments, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if fromJSON == "" && len(assignments) == 0 && !recount {
				return errors.New("nothing to set: pass Field=Value pairs, --from-json or --recount")
			}

			var doc *comicinfo.ComicInfo
			if fromJSON != "" {
				doc, err = readDocumentFile(cmd, fromJSON)
			} else {
				doc, err = cbz.ReadMetadata(path)
			}
			if err != nil {
				return err
			}
			before := doc.Clone()
			for _, a := range assignments {
				if err := comicinfo.Set(doc, a.field, a.value); err != nil {
					return err
				}
			}
			if recount {
				doc.PageCount = nil
			}

			out := cmd.OutOrStdout()
			if fromJSON == "" && doc.PageCount != nil && comicinfo.Equal(before, doc) {
				if ctx.jsonOutput() {
					return writeJSON(cmd, doc)
				}
				fmt.Fprintf(out, "No changes to %s\n", path)
				return nil
			}
			if dryRun {
				if doc.PageCount == nil {
					count, err := cbz.CountPages(path)
					if err != nil {
						return err
					}
					doc.PageCount = &count
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, doc)
				}
				payload, err := comicinfo.Encode(doc)
				if err != nil {
					return fmt.Errorf("encode metadata: %w", err)
				}
				_, err = fmt.Fprintln(out, string(payload))
				return err
			}

			var opts []cbz.Option
			if suffix := ctx.backupSuffix(); suffix != "" {
				opts = append(opts, cbz.WithBackup(suffix))
			}
			if err := cbz.WriteMetadata(path, doc, opts...); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, doc)
			}
			pages := "-"
			if doc.PageCount != nil {
				pages = strconv.Itoa(*doc.PageCount)
			}
			fmt.Fprintf(out, "Saved metadata to %s (%s pages)\n", path, pages)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromJSON, "from-json", "", "Replace the document with ComicInfo JSON from a file (- for stdin)")
	cmd.Flags().BoolVar(&recount, "recount", false, "Recompute PageCount from the archive's images")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the resulting ComicInfo.xml without saving")
	return cmd
}

func newPagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "pages <archive>",
		Short:       "Count the image entries of an archive",
		Args:        cobra.ExactArgs(1),
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := cbz.CountPages(archiveArg(cmd, args[0]))
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int{"pageCount": count})
			}
			fmt.Fprintln(cmd.OutOrStdout(), count)
			return nil
		},
	}
}

func newCoverCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:         "cover <archive>",
		Short:       "Extract the cover image of an archive",
		Long:        "Extract the cover image of an archive.\n\nWithout --output the cover is printed as a data URI.",
		Args:        cobra.ExactArgs(1),
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			cover, err := cbz.ExtractCover(archiveArg(cmd, args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if target := strings.TrimSpace(output); target != "" {
				if err := fileutil.WriteFileAtomic(target, cover.Data, 0o644); err != nil {
					return fmt.Errorf("write cover: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"name":     cover.Name,
						"mimeType": cover.MIMEType,
						"size":     len(cover.Data),
						"output":   target,
					})
				}
				fmt.Fprintf(out, "Wrote %s (%s, %s) to %s\n", cover.Name, cover.MIMEType, formatBytes(int64(len(cover.Data))), target)
				return nil
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"name":     cover.Name,
					"mimeType": cover.MIMEType,
					"dataUri":  cover.DataURI(),
				})
			}
			fmt.Fprintln(out, cover.DataURI())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the raw image bytes to this file")
	return cmd
}

type infoReport struct {
	*cbz.Summary
	Metadata      string `json:"metadata"`
	MetadataError string `json:"metadataError,omitempty"`
	Title         string `json:"title,omitempty"`
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "info <archive>",
		Short:       "Summarize the entries of an archive",
		Args:        cobra.ExactArgs(1),
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := archiveArg(cmd, args[0])
			summary, err := cbz.Inspect(path)
			if err != nil {
				return err
			}
			report := infoReport{Summary: summary, Metadata: "missing"}
			if summary.MetadataEntry != "" {
				doc, err := cbz.ReadMetadata(path)
				switch {
				case err != nil:
					report.Metadata = cbz.Kind(err)
					report.MetadataError = err.Error()
				default:
					report.Metadata = "ok"
					report.Title = displayTitle(doc)
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}

			rows := [][]string{
				{"Path", summary.Path},
				{"Size", formatBytes(summary.Size)},
				{"Entries", strconv.Itoa(summary.Entries)},
				{"Pages", strconv.Itoa(summary.Pages)},
				{"Cover", valueOrDash(summary.Cover)},
				{"Metadata entry", valueOrDash(summary.MetadataEntry)},
				{"Metadata", report.Metadata},
			}
			if report.MetadataError != "" {
				rows = append(rows, []string{"Metadata error", report.MetadataError})
			}
			if report.Title != "" {
				rows = append(rows, []string{"Title", report.Title})
			}
			if summary.Comment != "" {
				rows = append(rows, []string{"Comment", summary.Comment})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Property", "Value"}, rows, nil, shouldColorize(out)))
			return nil
		},
	}
}

func displayTitle(doc *comicinfo.ComicInfo) string {
	var parts []string
	if doc.Series != nil && *doc.Series != "" {
		part := *doc.Series
		if doc.Number != nil && *doc.Number != "" {
			part += " #" + *doc.Number
		}
		parts = append(parts, part)
	}
	if doc.Title != nil && *doc.Title != "" {
		parts = append(parts, *doc.Title)
	}
	return strings.Join(parts, ": ")
}

func newLintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "lint <archive>",
		Short:       "Report metadata values that readers commonly reject",
		Long:        "Report metadata values that readers commonly reject.\n\nExits with status 2 when issues are found.",
		Args:        cobra.ExactArgs(1),
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := archiveArg(cmd, args[0])
			doc, err := cbz.ReadMetadata(path)
			if err != nil {
				return err
			}
			issues := comicinfo.Lint(doc)
			out := cmd.OutOrStdout()
			if ctx.jsonOutput() {
				if issues == nil {
					issues = []comicinfo.Issue{}
				}
				if err := writeJSON(cmd, issues); err != nil {
					return err
				}
			} else if len(issues) == 0 {
				fmt.Fprintf(out, "%s: no issues\n", path)
			} else {
				for _, issue := range issues {
					fmt.Fprintf(out, "%s: %s\n", path, issue)
				}
			}
			if len(issues) > 0 {
				return &exitError{code: 2, err: fmt.Errorf("%s: %d metadata issue(s)", path, len(issues))}
			}
			return nil
		},
	}
}
