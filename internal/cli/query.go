package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bryan-buckman/recallfinder/internal/letters"
)

func newManufacturersCmd(a *app) *cobra.Command {
	var (
		sortBy string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "manufacturers <year>",
		Short: "List manufacturers with recall letters for a model year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			listing, err := a.newService().Manufacturers(cmd.Context(), year, letters.ParseSortOrder(sortBy))
			if err != nil {
				return fmt.Errorf("year %d: %w", year, err)
			}

			if asJSON {
				var list interface{} = listing.ByName
				if listing.SortedBy == letters.SortByDate {
					list = listing.ByDate
				}
				return writeIndented(a, map[string]interface{}{"manufacturers": list, "sorted_by": listing.SortedBy})
			}
			if listing.SortedBy == letters.SortByDate {
				for _, m := range listing.ByDate {
					fmt.Fprintf(a.out, "%s\t%s\n", m.LatestDate, m.Name)
				}
				return nil
			}
			for _, name := range listing.ByName {
				fmt.Fprintln(a.out, name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(letters.SortByDate), "sort order: date or name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newVersionsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "versions <year> <manufacturer>...",
		Short: "List documents filed by one or more manufacturers",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			versions, err := a.newService().Versions(cmd.Context(), year, args[1:])
			if err != nil {
				return fmt.Errorf("year %d: %w", year, err)
			}
			if asJSON {
				return writeIndented(a, map[string]interface{}{"versions": versions})
			}
			for _, v := range versions {
				fmt.Fprintln(a.out, v.Display)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newDownloadCmd(a *app) *cobra.Command {
	var manufacturer, docVersion, outDir string
	cmd := &cobra.Command{
		Use:   "download <year>",
		Short: "Download a recall-letter PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0])
			if err != nil {
				return err
			}
			doc, err := a.newService().Download(cmd.Context(), year, manufacturer, docVersion)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			path := filepath.Join(outDir, doc.Filename)
			if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(a.out, "%s (%d bytes) from %s\n", path, len(doc.Content), doc.SourceURL)
			return nil
		},
	}
	cmd.Flags().StringVarP(&manufacturer, "manufacturer", "m", "", "manufacturer name")
	cmd.Flags().StringVarP(&docVersion, "version", "v", "", "document name")
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	_ = cmd.MarkFlagRequired("manufacturer")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func writeIndented(a *app, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, string(data))
	return nil
}
