package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	importservice "github.com/FACorreiaa/echo-import/internal/domain/import/service"
)

func newPreviewCommand(flags *globalFlags) *cobra.Command {
	var rows int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "preview <statement>",
		Short: "Show the headers, a suggested mapping and the first rows of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, func(a *app) error {
				f, err := readStatement(args[0])
				if err != nil {
					return err
				}

				opts := a.service.Options()
				opts.PreviewRows = rows
				result, err := a.service.WithOptions(opts).Preview(cmd.Context(), flags.owner, f)
				if err != nil {
					return err
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}
				return printPreview(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 10, "number of data rows to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the preview as JSON")
	return cmd
}

func printPreview(w io.Writer, p *importservice.PreviewResult) error {
	fmt.Fprintf(w, "File:    %s (%s, %d rows)\n", p.FileName, p.Format, p.RowCount)
	fmt.Fprintf(w, "Mapping: date=%q description=%q amount=%q", p.Suggested.Date, p.Suggested.Description, p.Suggested.Amount)
	if p.Suggested.Category != "" {
		fmt.Fprintf(w, " category=%q", p.Suggested.Category)
	}
	fmt.Fprintln(w)
	if !p.MappingComplete {
		fmt.Fprintln(w, "Warning: some columns were not recognized; pass --mapping to import")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(p.Headers, "\t"))
	for _, row := range p.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
