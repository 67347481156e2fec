package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/texexam/internal/exam"
	"github.com/pavelanni/texexam/internal/report"
	"github.com/pavelanni/texexam/internal/store"
	"github.com/pavelanni/texexam/internal/texparse"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Extract questions from a markup file and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
	addLogFlags(cmd)
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	viperForCmd(cmd)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	questions := texparse.Extract(string(data))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(questions); err != nil {
		return fmt.Errorf("encode questions: %w", err)
	}
	if len(questions) == 0 {
		return exam.ErrExtractionEmpty
	}
	slog.Info("extracted questions", "path", args[0], "count", len(questions))
	return nil
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create an exam from a markup file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "texexam.db", "SQLite database path")
	f.String("name", "", "Exam name (defaults to the file name)")
	f.String("description", "", "Exam description")
	f.Int("time-limit", 60, "Time limit in minutes")
	f.StringSlice("class", nil, "Eligible class (repeatable; none means every class)")
	addLogFlags(cmd)
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	hash := sha256sum(data)
	storedHash, err := db.ImportedHash(ctx, path)
	if err != nil {
		return fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash {
		slog.Info("markup file unchanged, skipping", "path", path)
		return nil
	}

	name := v.GetString("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	e, err := exam.NewService(db).CreateExam(ctx, exam.CreateExamInput{
		Name:        name,
		Description: v.GetString("description"),
		TimeLimit:   v.GetInt("time-limit"),
		Classes:     v.GetStringSlice("class"),
		Markup:      string(data),
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}

	if err := db.MarkImported(ctx, path, hash); err != nil {
		return fmt.Errorf("record import for %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d questions\n", e.ID, e.Name, len(e.Questions))
	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the results of one exam",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "texexam.db", "SQLite database path")
	f.String("exam-id", "", "Exam identifier (required)")
	f.String("format", report.FormatCSV, "Output format (csv, xlsx, json)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("exam-id")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)

	format := strings.ToLower(v.GetString("format"))
	switch format {
	case report.FormatCSV, report.FormatXLSX, report.FormatJSON:
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	svc := exam.NewService(db)
	e, err := svc.GetExam(ctx, v.GetString("exam-id"))
	if err != nil {
		return err
	}
	results, err := svc.ResultsForExam(ctx, e.ID)
	if err != nil {
		return err
	}
	rep := report.Build(e, results, time.Now())

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := report.Write(w, rep, format); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	slog.Info("exported results", "exam_id", e.ID, "rows", len(rep.Rows), "format", format)
	return nil
}
