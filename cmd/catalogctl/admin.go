package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminEmail    string
	adminPassword string
	adminOutput   string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage catalog administrators",
}

var adminUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create an admin or reset an existing one",
	Long: `Create an active admin user, or reset the email, password and flags of
the user with the same username. The password may be given with -p or in
CATALOG_ADMIN_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runAdminUpsert,
}

var adminListCmd = &cobra.Command{
	Use:   "list",
	Short: "List admin users",
	Args:  cobra.NoArgs,
	RunE:  runAdminList,
}

func init() {
	adminUpsertCmd.Flags().StringVarP(&adminUsername, "username", "u", "", "username (required)")
	adminUpsertCmd.Flags().StringVarP(&adminEmail, "email", "e", "", "email address")
	adminUpsertCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "password")
	_ = adminUpsertCmd.MarkFlagRequired("username")

	adminListCmd.Flags().StringVarP(&adminOutput, "output", "o", formatTable, "output format (table, json, yaml)")

	adminCmd.AddCommand(adminUpsertCmd, adminListCmd)
	rootCmd.AddCommand(adminCmd)
}

func runAdminUpsert(cmd *cobra.Command, args []string) error {
	password := adminPassword
	if password == "" {
		password = os.Getenv("CATALOG_ADMIN_PASSWORD")
	}

	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	id, created, err := svc.UpsertAdmin(commandContext(cmd), adminUsername, adminEmail, password)
	if err != nil {
		return err
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s admin %s (user_id %d)\n", verb, adminUsername, id)
	return nil
}

func runAdminList(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	admins, err := svc.ListAdmins(cmd.Context())
	if err != nil {
		return err
	}

	if adminOutput != formatTable {
		return render(cmd.OutOrStdout(), adminOutput, admins)
	}
	rows := make([][]string, 0, len(admins))
	for _, a := range admins {
		rows = append(rows, []string{strconv.FormatInt(a.UserID, 10), a.Username, orDash(a.Email)})
	}
	return table(cmd.OutOrStdout(), []string{"ID", "USERNAME", "EMAIL"}, rows)
}
