// Package cmd provides the worker binary's CLI commands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/motifkb/connectengine/helper"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the worker CLI: "run" processes one detection job,
// "reindex" rebuilds the chunk embedding ANN index.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "worker",
		Short: "connectengine detection-job worker",
	}

	root.AddCommand(newRunCmd(), newReindexCmd())
	return root
}

func newLogger() *slog.Logger {
	return slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
	}))
}

func openDatabase(appName string, logger *slog.Logger) (*helper.Database, error) {
	_ = godotenv.Load()

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}
	return helper.NewDatabase(appName, dbConfig, logger)
}
