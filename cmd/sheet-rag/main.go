package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appcli "github.com/jinford/sheet-rag/internal/app/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "sheet-rag",
		Usage: "スプレッドシートデータの意味検索・自然言語SQL検索バックエンド",
		Commands: []*cli.Command{
			{
				Name:  "ingest",
				Usage: "スプレッドシートを取り込んでインデックス化",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "file",
						Usage:    "取り込むファイルパス (.xlsx/.xls/.csv)",
						Required: true,
					},
				},
				Action: appcli.IngestAction,
			},
			{
				Name:  "search",
				Usage: "自然言語クエリで意味検索",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "query",
						Usage:    "検索クエリ",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "結果件数の上限（省略時は5）",
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "類似度しきい値（省略時は0.5）",
					},
				},
				Action: appcli.SearchAction,
			},
			{
				Name:  "sql",
				Usage: "自然言語クエリをSQLに変換して実行",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.StringFlag{
						Name:     "query",
						Usage:    "自然言語クエリ",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "context",
						Usage: "テーブルの補足情報（任意）",
					},
				},
				Action: appcli.SQLQueryAction,
			},
			{
				Name:  "suggest",
				Usage: "入力途中のクエリに対するサジェストを表示",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "query",
						Usage: "部分クエリ",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "サジェスト件数（省略時は5）",
					},
				},
				Action: appcli.SuggestAction,
			},
			{
				Name:  "history",
				Usage: "検索履歴を表示",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "env",
						Usage: "環境変数ファイルパス",
						Value: ".env",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "表示件数",
						Value: 20,
					},
				},
				Action: appcli.HistoryAction,
			},
			{
				Name:  "server",
				Usage: "サーバ関連コマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "HTTP APIサーバを起動",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "env",
								Usage: "環境変数ファイルパス",
								Value: ".env",
							},
							&cli.IntFlag{
								Name:  "port",
								Usage: "HTTPポート（省略時は環境変数またはデフォルトの8080）",
							},
						},
						Action: appcli.ServerStartAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
