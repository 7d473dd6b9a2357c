package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/DataSweeper/internal/core"
)

func newInspectCmd(opts *globalOptions) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Print the shape, column types and first rows of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, limit, err := opts.newService()
			if err != nil {
				return err
			}

			failed := 0
			for _, path := range args {
				sess, entry, err := loadFile(cmd.Context(), svc, path, limit)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, userError(err))
					continue
				}
				view, err := svc.View(sess, entry.ID)
				if err != nil {
					return err
				}
				view.Preview = entry.Table.Head(rows)
				printView(cmd.OutOrStdout(), view)
				svc.Store().Delete(sess.ID)
			}
			return failedErr(failed, len(args))
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", core.DefaultPreviewRows, "number of preview rows")
	return cmd
}

func printView(w io.Writer, v *core.FileView) {
	fmt.Fprintf(w, "== %s (%.2f KB, %s) ==\n", v.File.Name, v.File.SizeKB(), v.File.Format)
	fmt.Fprintf(w, "rows: %d  columns: %d  missing: %d\n\n", v.Rows, len(v.Columns), v.Missing())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "column\ttype\tmissing")
	for _, c := range v.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Type, c.Missing)
	}
	tw.Flush()

	if v.Preview.NumRows() > 0 {
		fmt.Fprintln(w)
		printTable(w, v.Preview)
	}
	fmt.Fprintln(w)
}

// printTable writes t as aligned columns with a leading row index.
func printTable(w io.Writer, t *core.Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\n", strings.Join(t.Names(), "\t"))
	for i := 0; i < t.NumRows(); i++ {
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(t.Record(i), "\t"))
	}
	tw.Flush()
}

func failedErr(failed, total int) error {
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d file(s) failed", failed, total)
}
