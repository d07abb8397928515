package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"pixel-quiz-service/internal/app"
)

// NewRecordCmd prints the stored record of one player.
func NewRecordCmd(configPath *string) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Print a player's stored record as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printRecord(cmd.Context(), cmd.OutOrStdout(), *configPath, userID)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "player id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printRecord(ctx context.Context, out io.Writer, configPath, userID string) error {
	cfg, log, err := loadConfigAndLogger(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	rec, err := app.NewResultStore(b.records, nil).Find(ctx, userID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
