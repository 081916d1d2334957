// Command storage-init provisions the backing stores of the board API. Every
// subcommand is idempotent and can run on each deploy.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/austinstudio/meeting-actions-sub000/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	root := &cobra.Command{
		Use:          "storage-init",
		Short:        "Create the tables, queues and SQL schema used by the board API",
		SilenceUsage: true,
	}
	root.AddCommand(tablesCmd(), sqliteCmd(), postgresCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func tablesCmd() *cobra.Command {
	var table, queue string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Create the Azure collections table and activity queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			connStr := os.Getenv("STORAGE_CONNECTION_STRING")
			if connStr == "" {
				return errors.New("missing STORAGE_CONNECTION_STRING")
			}
			ctx := cmd.Context()
			if err := createTable(ctx, connStr, table); err != nil {
				return fmt.Errorf("create table %s: %w", table, err)
			}
			if err := createQueue(ctx, connStr, queue); err != nil {
				return fmt.Errorf("create queue %s: %w", queue, err)
			}
			log.WithFields(log.Fields{"table": table, "queue": queue}).Info("azure storage ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", envOr("COLLECTIONS_TABLE", "BoardCollections"), "collections table name")
	cmd.Flags().StringVar(&queue, "queue", os.Getenv("ACTIVITY_QUEUE"), "activity queue name, skipped when empty")
	return cmd
}

func sqliteCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "sqlite",
		Short: "Create the collections schema in a SQLite file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := storage.NewSQLite(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer s.Close()
			log.WithField("path", path).Info("sqlite schema ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", envOr("SQLITE_PATH", "board.db"), "database file")
	return cmd
}

func postgresCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "postgres",
		Short: "Create the collections schema in Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				return errors.New("missing DATABASE_URL")
			}
			s, err := storage.NewPostgres(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer s.Close()
			log.Info("postgres schema ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "database-url", os.Getenv("DATABASE_URL"), "postgres connection url")
	return cmd
}

func createTable(ctx context.Context, connStr, name string) error {
	if name == "" {
		return nil
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, storage.TablesClientOptions())
	if err != nil {
		return err
	}
	_, err = svc.NewClient(name).CreateTable(ctx, nil)
	if err != nil && !alreadyExists(err, string(aztables.TableAlreadyExists)) {
		return err
	}
	return nil
}

func createQueue(ctx context.Context, connStr, name string) error {
	if name == "" {
		return nil
	}
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, storage.QueueClientOptions())
	if err != nil {
		return err
	}
	_, err = q.Create(ctx, nil)
	if err != nil && !alreadyExists(err, "QueueAlreadyExists") {
		return err
	}
	return nil
}

func alreadyExists(err error, code string) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == code
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
