package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tutorly/gradeimport/internal/core"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSession(w io.Writer, sess core.Session, asJSON bool) error {
	if asJSON {
		return writeJSON(w, sess)
	}

	s := sess.Summary
	fmt.Fprintf(w, "%s (%s", sess.FileName, sess.Format)
	if sess.Encoding != "" {
		fmt.Fprintf(w, ", %s", sess.Encoding)
	}
	fmt.Fprintln(w, ")")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  rows read\t%d\n", s.TotalRows)
	fmt.Fprintf(tw, "  skipped (no student ID)\t%d\n", s.DroppedRows)
	fmt.Fprintf(tw, "  matched\t%d\n", s.Matched)
	fmt.Fprintf(tw, "  name differs\t%d\n", s.NameMismatch)
	fmt.Fprintf(tw, "  not on roster\t%d\n", s.Unmatched)
	fmt.Fprintf(tw, "  ready to commit\t%d\n", s.Qualifying)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, warn := range sess.Warnings {
		fmt.Fprintf(w, "warning: row %d: %s\n", warn.Line, warn.Message)
	}
	if len(sess.Result.Issues) > 0 {
		fmt.Fprintln(w, "issues:")
		for _, issue := range sess.Result.Issues {
			fmt.Fprintf(w, "  %s\n", issue)
		}
	}
	for _, mr := range sess.Result.Rows {
		if mr.Suggestion != nil {
			fmt.Fprintf(w, "  row %d: did you mean %s (%s)?\n", mr.Row.Line, mr.Suggestion.FullName(), mr.Suggestion.Code)
		}
	}
	return nil
}

func printCommit(w io.Writer, res core.CommitResult, asJSON bool) error {
	if asJSON {
		return writeJSON(w, res)
	}
	_, err := fmt.Fprintf(w, "saved %d grade records as batch %s (%d rows left out)\n", res.Inserted, res.BatchID, res.Skipped)
	return err
}

func printBatches(w io.Writer, batches []core.Batch, asJSON bool) error {
	if asJSON {
		if batches == nil {
			batches = []core.Batch{}
		}
		return writeJSON(w, batches)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BATCH\tFILE\tROWS\tSAVED\tSTATUS")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", b.ID, b.FileName, b.RowCount, b.CreatedAt.Format("2006-01-02 15:04"), b.Status)
	}
	return tw.Flush()
}
