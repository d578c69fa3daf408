package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteDeviceCmd = &cobra.Command{
	Use:   "delete-device <id>",
	Short: "Delete a device with its parts and offers",
	Long: `Delete a device together with its specification, display, camera,
battery and every offer, in one transaction. Nothing is removed unless
--yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeleteDevice,
}

func init() {
	deleteDeviceCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "confirm the delete")
	rootCmd.AddCommand(deleteDeviceCmd)
}

func runDeleteDevice(cmd *cobra.Command, args []string) error {
	id, err := core.ParseKey(args[0])
	if err != nil {
		return &core.ValidationError{Field: "id", Value: args[0], Message: "malformed key"}
	}

	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := commandContext(cmd)
	detail, err := svc.DeviceDetail(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !deleteYes {
		fmt.Fprintf(out, "device %d (%v) has %d offer(s); rerun with --yes to delete it\n",
			id, detail.Device["model"], len(detail.Offers))
		return errors.New("delete not confirmed")
	}

	result, err := svc.DeleteDevice(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "deleted device %d (%d rows)\n", result.DeviceID, result.Total())
	tables := make([]string, 0, len(result.Deleted))
	for t := range result.Deleted {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		fmt.Fprintf(out, "  %-16s %d\n", t, result.Deleted[t])
	}
	return nil
}
