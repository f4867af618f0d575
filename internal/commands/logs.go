package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/echo-import/internal/domain/import/repository"
)

// logRow is the CSV shape of an import log.
type logRow struct {
	ID         string `csv:"id"`
	FileName   string `csv:"file_name"`
	Status     string `csv:"status"`
	TotalRows  int    `csv:"total_rows"`
	Imported   int    `csv:"imported"`
	Skipped    int    `csv:"skipped"`
	Error      string `csv:"error"`
	CreatedAt  string `csv:"created_at"`
	FinishedAt string `csv:"finished_at"`
}

func toLogRow(l repository.ImportLog) logRow {
	row := logRow{
		ID:        l.ID.String(),
		FileName:  l.FileName,
		Status:    string(l.Status),
		TotalRows: l.TotalRows,
		Imported:  l.ImportedCount,
		Skipped:   l.SkippedCount,
		CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.ErrorMessage != nil {
		row.Error = *l.ErrorMessage
	}
	if l.FinishedAt != nil {
		row.FinishedAt = l.FinishedAt.UTC().Format(time.RFC3339)
	}
	return row
}

func newLogsCommand(flags *globalFlags) *cobra.Command {
	var limit, offset int
	var asCSV bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List past imports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app) error {
				logs, err := a.service.ListLogs(cmd.Context(), flags.owner, limit, offset)
				if err != nil {
					return err
				}

				rows := make([]logRow, 0, len(logs))
				for _, l := range logs {
					rows = append(rows, toLogRow(l))
				}
				if asCSV {
					return gocsv.Marshal(rows, cmd.OutOrStdout())
				}
				return printLogs(cmd.OutOrStdout(), rows)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of logs")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of logs to skip")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print as CSV")
	return cmd
}

func printLogs(w io.Writer, rows []logRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No imports yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tSTATUS\tTOTAL\tIMPORTED\tSKIPPED\tCREATED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n", r.ID, r.FileName, r.Status, r.TotalRows, r.Imported, r.Skipped, r.CreatedAt)
	}
	return tw.Flush()
}
