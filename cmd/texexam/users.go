package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/texexam/internal/legacy"
	"github.com/pavelanni/texexam/internal/model"
	"github.com/pavelanni/texexam/internal/store"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userAddCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add USERNAME",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE:  runUserAdd,
	}
	f := cmd.Flags()
	f.String("db", "texexam.db", "SQLite database path")
	f.String("name", "", "Display name (defaults to the username)")
	f.String("class", "", "Class label for students")
	f.String("role", string(model.UserRoleStudent), "Role (student, teacher, admin)")
	f.String("password", "", "Password (required)")
	addLogFlags(cmd)

	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)
	username := strings.TrimSpace(args[0])

	role := model.UserRole(v.GetString("role"))
	switch role {
	case model.UserRoleStudent, model.UserRoleTeacher, model.UserRoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte(v.GetString("password")), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	name := v.GetString("name")
	if name == "" {
		name = username
	}
	return db.CreateUser(ctx, model.User{
		Username:     username,
		DisplayName:  name,
		Class:        v.GetString("class"),
		Role:         role,
		PasswordHash: string(hash),
	})
}

func legacyImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy-import",
		Short: "Load users, exams and results from a legacy JSON data directory",
		RunE:  runLegacyImport,
	}
	f := cmd.Flags()
	f.String("db", "texexam.db", "SQLite database path")
	f.String("dir", "data", "Directory containing users.json, exams.json and results.json")
	addLogFlags(cmd)
	return cmd
}

func runLegacyImport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)

	data, err := legacy.Load(v.GetString("dir"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("load legacy data: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.ReplaceAll(ctx, data.Users, data.Exams, data.Results); err != nil {
		return fmt.Errorf("import legacy data: %w", err)
	}
	slog.Info("imported legacy data",
		"dir", v.GetString("dir"),
		"users", len(data.Users),
		"exams", len(data.Exams),
		"results", len(data.Results),
	)
	return nil
}
