package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Veraticus/noumi/internal/cli"
	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/storage"
	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(usersCreateCmd(), usersListCmd())
	return cmd
}

func usersCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")

			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := ensureEmailFree(cmd.Context(), a.store, email); err != nil {
				return err
			}
			user := &model.User{Email: email, Name: name}
			if err := a.store.CreateUser(cmd.Context(), user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created user %s (%s)", user.Email, user.ID)))
			return nil
		},
	}
	cmd.Flags().String("email", "", "email address (required)")
	cmd.Flags().String("name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			users, err := a.store.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No users yet. Create one with `noumi users create --email ...`"))
				return nil
			}

			rows, err := userRows(cmd.Context(), a.store, users)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.Table([]string{"ID", "Email", "Name", "Created", "Transactions"}, rows))
			return nil
		},
	}
}

// ensureEmailFree fails with a user-facing message when email is taken.
func ensureEmailFree(ctx context.Context, store *storage.SQLiteStorage, email string) error {
	existing, err := store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return common.NewUserError(
			fmt.Sprintf("A user with email %s already exists (%s)", existing.Email, existing.ID),
			common.ErrDuplicateEntry)
	case errors.Is(err, common.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to look up user: %w", err)
	}
}

func userRows(ctx context.Context, store *storage.SQLiteStorage, users []model.User) ([][]string, error) {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		count, err := store.GetTransactionCount(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count transactions for %s: %w", u.Email, err)
		}
		rows = append(rows, []string{u.ID, u.Email, u.Name, u.CreatedAt.Format(model.DateLayout), strconv.Itoa(count)})
	}
	return rows, nil
}
