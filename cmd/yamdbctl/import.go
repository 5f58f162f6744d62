package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/kevinaaaquil/yamdb/importer"
	"github.com/kevinaaaquil/yamdb/service"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/validation"
	"github.com/spf13/cobra"
)

var (
	importDir      string
	importS3Prefix string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load CSV fixtures into the store",
	Long: `Import users, categories, genres, titles, reviews and comments from CSV files.

Files are read from a local directory or from the AWS_S3_BUCKET bucket:
users.csv, category.csv, genre.csv, genre_title.csv, titles.csv, review.csv, comments.csv.
Missing files are skipped; the first invalid row aborts the import.

Examples:
  yamdbctl import --dir static/data
  yamdbctl import --s3-prefix fixtures/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd)
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "", "Directory holding the CSV files")
	importCmd.Flags().StringVar(&importS3Prefix, "s3-prefix", "", "Key prefix of the CSV files in AWS_S3_BUCKET")
	importCmd.MarkFlagsMutuallyExclusive("dir", "s3-prefix")
	importCmd.MarkFlagsOneRequired("dir", "s3-prefix")
}

func runImport(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var src importer.Source
	switch {
	case importDir != "":
		info, err := os.Stat(importDir)
		if err != nil {
			return fmt.Errorf("fixture directory not found: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("--dir must be a directory: %s", importDir)
		}
		src = importer.FSSource{FS: os.DirFS(importDir)}
	default:
		if cfg.S3Bucket == "" {
			return errors.New("--s3-prefix needs AWS_S3_BUCKET to be set")
		}
		s3, err := service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		src = s3.WithPrefix(importS3Prefix)
	}

	return withStore(ctx, cfg, func(st store.Store) error {
		stats, err := importer.New(st, src, validation.New()).Run(ctx)
		printStats(cmd, stats)
		return err
	})
}

func printStats(cmd *cobra.Command, stats importer.Stats) {
	files := make([]string, 0, len(stats))
	for f := range stats {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d rows\n", f, stats[f])
	}
}
