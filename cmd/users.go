package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/facegate/facegate/internal/config"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage enrolled users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all enrolled users",
	RunE:  runUsersList,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an enrolled user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersDelete,
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersDeleteCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	users, err := store.Users().List(context.Background())
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users enrolled")
		return nil
	}

	fmt.Printf("%-6s %-30s %-30s %s\n", "ID", "NAME", "EMAIL", "ENROLLED")
	for _, u := range users {
		fmt.Printf("%-6d %-30s %-30s %s\n",
			u.ID, u.FullName(), u.Email, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d user(s)\n", len(users))
	return nil
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	user, err := store.Users().Delete(context.Background(), id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d not found", id)
	}

	fmt.Printf("Deleted user %d (%s)\n", user.ID, user.FullName())
	return nil
}
