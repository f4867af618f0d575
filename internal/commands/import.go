package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
	importservice "github.com/FACorreiaa/echo-import/internal/domain/import/service"
	"github.com/FACorreiaa/echo-import/pkg/money"
)

type importFlags struct {
	account     string
	mappingPath string
	category    string
	dryRun      bool
}

func newImportCommand(flags *globalFlags) *cobra.Command {
	opts := &importFlags{}

	cmd := &cobra.Command{
		Use:   "import <statement>",
		Short: "Import a statement, skipping transactions already present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapping, err := readMapping(opts.mappingPath)
			if err != nil {
				return err
			}
			f, err := readStatement(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, flags, func(a *app) error {
				if opts.dryRun {
					result, resolved, err := a.service.Normalize(f, mapping)
					if err != nil {
						return err
					}
					return printDryRun(cmd.OutOrStdout(), result, resolved, a.service.Options().Currency)
				}

				accountID, err := uuid.Parse(opts.account)
				if err != nil {
					return fmt.Errorf("invalid --account: %w", err)
				}
				categoryID, err := ensureCategory(cmd.Context(), a, flags.owner, opts.category)
				if err != nil {
					return err
				}

				result, err := a.service.Commit(cmd.Context(), flags.owner, importservice.CommitRequest{
					File:              f,
					AccountID:         accountID,
					DefaultCategoryID: categoryID,
					Mapping:           mapping,
				})
				if err != nil {
					return err
				}

				a.logger.Debug("import committed", slog.String("log_id", result.LogID.String()))
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d rows (%d skipped as duplicates, %d dropped)\nLog: %s\n",
					result.Imported, result.TotalRows, result.Skipped, result.Dropped, result.LogID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.account, "account", "", "account id the transactions belong to")
	cmd.Flags().StringVar(&opts.mappingPath, "mapping", "", "JSON file naming the date, description, amount and category headers")
	cmd.Flags().StringVar(&opts.category, "category", "", "category name for rows without a category")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "normalize and print the rows without importing")
	cmd.MarkFlagsOneRequired("account", "dry-run")
	return cmd
}

// ensureCategory returns the id of the owner's category called name,
// creating it when missing. An empty name means no default category.
func ensureCategory(ctx context.Context, a *app, ownerID, name string) (*uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	categories, err := a.store.ListCategories(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return &c.ID, nil
		}
	}

	created, err := a.store.CreateCategory(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	a.logger.Info("created category", slog.String("name", created.Name))
	return &created.ID, nil
}

func printDryRun(w io.Writer, result *normalizer.Result, m normalizer.Mapping, currency string) error {
	income, expense := money.Zero(currency), money.Zero(currency)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tDATE\tKIND\tAMOUNT\tDESCRIPTION")
	for _, tx := range result.Transactions {
		amount, err := money.NewFromDecimal(tx.Amount, currency)
		if err != nil {
			return err
		}
		if tx.Kind == normalizer.KindIncome {
			income, err = income.Add(amount)
		} else {
			expense, err = expense.Add(amount)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", tx.Row, tx.Date.Format("2006-01-02"), tx.Kind, amount.Display(), tx.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nMapping: date=%q description=%q amount=%q category=%q\n", m.Date, m.Description, m.Amount, m.Category)
	fmt.Fprintf(w, "Rows: %d valid, %d dropped of %d\n", len(result.Transactions), result.DroppedCount(), result.TotalRows)
	fmt.Fprintf(w, "Income: %s  Expense: %s\n", income.Display(), expense.Display())
	return nil
}
