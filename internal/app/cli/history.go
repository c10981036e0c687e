package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// HistoryAction は検索履歴を表示するコマンドのアクション
func HistoryAction(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	records, err := appCtx.Container.HistoryRepo.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	entries := make([]map[string]any, 0, len(records))
	for _, record := range records {
		entries = append(entries, map[string]any{
			"query":       record.Query,
			"kind":        record.Kind,
			"resultCount": record.ResultCount,
			"durationMs":  record.Duration.Milliseconds(),
			"executedAt":  record.ExecutedAt,
		})
	}

	return printJSON(map[string]any{"history": entries})
}
