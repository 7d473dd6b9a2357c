// Package cli implements the sweeper command line. It runs the same
// ingest, cleaning, chart and export pipeline as the web UI on local files.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/DataSweeper/internal/audit"
	"github.com/JonMunkholm/DataSweeper/internal/config"
	"github.com/JonMunkholm/DataSweeper/internal/core"
	"github.com/JonMunkholm/DataSweeper/internal/logging"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	logLevel    string
	logFormat   string
	maxFileSize string
}

// NewRootCmd builds the sweeper command tree. Each call returns fresh flag
// state.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "sweeper",
		Short: "Clean and convert CSV and Excel files",
		Long: `sweeper loads CSV and Excel files, removes duplicate rows, fills missing
numbers with column means, keeps the columns you choose and writes the result
as CSV or Excel. It can also draw a quick bar chart of the first two numeric
columns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&opts.maxFileSize, "max-file-size", "200MB", "largest accepted input file")

	root.AddCommand(newInspectCmd(opts), newConvertCmd(opts))
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// newService builds a service for one command run and returns it with the
// per-file size limit in bytes. Activity goes to the log.
func (o *globalOptions) newService() (*core.Service, int64, error) {
	limit, err := config.ParseByteSize(o.maxFileSize)
	if err != nil {
		return nil, 0, fmt.Errorf("--max-file-size: %w", err)
	}
	svc := core.NewService(core.ServiceConfig{
		MaxFileSize:   limit.Int64(),
		MaxConcurrent: 1,
		MaxWait:       time.Minute,
	}, audit.NewLogRecorder(nil))
	return svc, limit.Int64(), nil
}

// loadFile ingests path into a session of its own, so files sharing a base
// name in different directories never collide.
func loadFile(ctx context.Context, svc *core.Service, path string, limit int64) (*core.Session, *core.Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}

	file := core.UploadedFile{Name: filepath.Base(path), Size: info.Size()}
	if limit <= 0 || info.Size() <= limit {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		file = core.NewUploadedFile(file.Name, data)
	}

	sess := svc.Store().Create()
	res := svc.Ingest(ctx, sess, []core.UploadedFile{file})[0]
	if res.Err != nil {
		svc.Store().Delete(sess.ID)
		return nil, nil, res.Err
	}
	return sess, res.Entry, nil
}

// userError renders err with its catalogue code.
func userError(err error) string {
	msg := core.MapError(err)
	if msg.Code == "" || msg.Code == "ERR000" {
		return err.Error()
	}
	return fmt.Sprintf("%s (%s): %v", msg.Message, msg.Code, err)
}
