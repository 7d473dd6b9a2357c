package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/DataSweeper/internal/chart"
	"github.com/JonMunkholm/DataSweeper/internal/core"
)

type convertOptions struct {
	format   string
	dedupe   bool
	fillMean bool
	columns  []string
	outDir   string
	chart    bool
}

// convertResult is what happened to one input file.
type convertResult struct {
	output  string
	rows    int
	removed int
	filled  int
	chart   string
	// chartNote is set when no chart could be drawn.
	chartNote string
}

func newConvertCmd(opts *globalOptions) *cobra.Command {
	co := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert FILE...",
		Short: "Clean, project and convert files to CSV or Excel",
		Long: `convert runs each file through the cleaning pipeline and writes the result
to the output directory under the input's name with the new extension.
A failing file is reported and the rest are still converted.`,
		Example: `  sweeper convert sales.xlsx --format csv --dedupe --fill-mean
  sweeper convert *.csv --format excel --columns region,q1 --out converted --chart`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := core.ParseExportFormat(co.format)
			if err != nil {
				return fmt.Errorf("--format: %w", err)
			}
			svc, limit, err := opts.newService()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(co.outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			failed := 0
			for _, path := range args {
				res, err := convertFile(cmd.Context(), svc, path, limit, format, co)
				if err != nil {
					failed++
					fmt.Fprintf(errOut, "%s: %s\n", path, userError(err))
					continue
				}
				fmt.Fprintf(out, "%s -> %s (%d rows", path, res.output, res.rows)
				if co.dedupe {
					fmt.Fprintf(out, ", %d duplicate(s) removed", res.removed)
				}
				if co.fillMean {
					fmt.Fprintf(out, ", %d cell(s) filled", res.filled)
				}
				fmt.Fprintln(out, ")")
				if res.chart != "" {
					fmt.Fprintf(out, "%s -> %s (chart)\n", path, res.chart)
				}
				if res.chartNote != "" {
					fmt.Fprintf(errOut, "%s: %s\n", path, res.chartNote)
				}
			}
			return failedErr(failed, len(args))
		},
	}

	f := cmd.Flags()
	f.StringVarP(&co.format, "format", "f", "csv", "output format: csv or excel")
	f.BoolVar(&co.dedupe, "dedupe", false, "remove duplicate rows")
	f.BoolVar(&co.fillMean, "fill-mean", false, "fill missing numbers with the column mean")
	f.StringSliceVarP(&co.columns, "columns", "c", nil, "columns to keep, in order (default all)")
	f.StringVarP(&co.outDir, "out", "o", ".", "output directory")
	f.BoolVar(&co.chart, "chart", false, "also write a bar chart of the first two numeric columns as SVG")
	return cmd
}

func convertFile(ctx context.Context, svc *core.Service, path string, limit int64, format core.ExportFormat, co *convertOptions) (*convertResult, error) {
	sess, entry, err := loadFile(ctx, svc, path, limit)
	if err != nil {
		return nil, err
	}
	defer svc.Store().Delete(sess.ID)

	res := &convertResult{}
	if co.dedupe {
		if res.removed, err = svc.Deduplicate(ctx, sess, entry.ID); err != nil {
			return nil, err
		}
	}
	if co.fillMean {
		if res.filled, err = svc.FillMissing(ctx, sess, entry.ID); err != nil {
			return nil, err
		}
	}

	columns := trimColumns(co.columns)
	art, err := svc.Export(ctx, sess, entry.ID, columns, format)
	if err != nil {
		return nil, err
	}
	res.output = filepath.Join(co.outDir, art.FileName)
	if err := writeOutput(path, res.output, art.Data); err != nil {
		return nil, err
	}
	res.rows = entry.Table.NumRows()

	if co.chart {
		data, err := svc.Chart(ctx, sess, entry.ID, columns)
		switch {
		case core.IsInformational(err):
			res.chartNote = core.MapError(err).Message
		case err != nil:
			return nil, err
		default:
			svg, err := chart.RenderSVG(data, chart.Options{})
			if err != nil {
				return nil, err
			}
			res.chart = strings.TrimSuffix(res.output, filepath.Ext(res.output)) + ".svg"
			if err := writeOutput(path, res.chart, svg); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

// errOverwriteInput stops a conversion from replacing its own source file.
var errOverwriteInput = errors.New("output would overwrite the input file")

func writeOutput(input, output string, data []byte) error {
	in, err1 := filepath.Abs(input)
	out, err2 := filepath.Abs(output)
	if err1 == nil && err2 == nil && in == out {
		return fmt.Errorf("%s: %w", output, errOverwriteInput)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	return nil
}

// trimColumns drops blank names left by stray commas in --columns.
func trimColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}
