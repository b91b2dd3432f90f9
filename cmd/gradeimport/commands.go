package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tutorly/gradeimport/internal/core"
)

func newPreviewCmd(root *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show how a grade sheet matches the roster without saving anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openService(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer closeDB()

			sess, err := previewFile(cmd, svc, file, uuid.Nil)
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), sess, root.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Grade sheet (.csv, .tsv or .xlsx) (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

type commitOptions struct {
	file     string
	operator string
	apply    bool
}

func newCommitCmd(root *rootOptions) *cobra.Command {
	var opts commitOptions
	var operator uuid.UUID

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Preview a grade sheet and save its matched rows as one batch",
		Long: "Preview a grade sheet and save its matched rows as one batch.\n" +
			"Without --apply the preview is printed and nothing is written.",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(opts.operator))
			if err != nil || id == uuid.Nil {
				return fmt.Errorf("--operator must be the operator's UUID")
			}
			operator = id
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openService(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer closeDB()

			sess, err := previewFile(cmd, svc, opts.file, operator)
			if err != nil {
				return err
			}
			if err := printSession(cmd.OutOrStdout(), sess, root.jsonOutput); err != nil {
				return err
			}

			if !opts.apply {
				fmt.Fprintln(cmd.ErrOrStderr(), "dry run: re-run with --apply to save the matched rows")
				return nil
			}

			res, err := svc.Commit(cmd.Context(), sess.ID, operator)
			if err != nil {
				return err
			}
			return printCommit(cmd.OutOrStdout(), res, root.jsonOutput)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Grade sheet (.csv, .tsv or .xlsx) (required)")
	cmd.Flags().StringVar(&opts.operator, "operator", "", "Operator UUID recorded on the batch (required)")
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Write to the database (default is dry-run)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

func newBatchesCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "batches",
		Short: "List recent import batches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := openService(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer closeDB()

			batches, err := svc.ListBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printBatches(cmd.OutOrStdout(), batches, root.jsonOutput)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", core.DefaultBatchListLimit, "Maximum batches to list")
	return cmd
}

func newRollbackCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <batch-id>",
		Short: "Delete every grade record saved by a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid batch id %q: %w", args[0], err)
			}

			svc, closeDB, err := openService(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := svc.RollbackBatch(cmd.Context(), id)
			if err != nil {
				return err
			}
			if root.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "batch %s rolled back: %d grade records removed\n", res.BatchID, res.RowsDeleted)
			return nil
		},
	}
}

func previewFile(cmd *cobra.Command, svc *core.Service, path string, operator uuid.UUID) (core.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Session{}, fmt.Errorf("no file provided: %s does not exist", path)
		}
		return core.Session{}, fmt.Errorf("read %s: %w", path, err)
	}
	return svc.Preview(cmd.Context(), core.PreviewRequest{
		FileName:   filepath.Base(path),
		Data:       data,
		OperatorID: operator,
	})
}
