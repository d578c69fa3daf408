package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List catalog tables with row and column counts",
	RunE:  runTables,
}

var describeOutput string

var describeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Show the live columns and primary key of a table",
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

var statsCmd = &cobra.Command{
	Use:       "stats <dimension>",
	Short:     "Show device counts and prices grouped by a dimension",
	Args:      cobra.ExactArgs(1),
	ValidArgs: dimensionNames(core.StatDimensions()),
	RunE:      runStats,
}

var reportLimit int

var reportCmd = &cobra.Command{
	Use:   "report [name]",
	Short: "Run a named report, or list the available reports",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", formatYAML, "output format (yaml, json)")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "maximum rows (0 for the report default)")

	rootCmd.AddCommand(tablesCmd, describeCmd, statsCmd, reportCmd)
}

func runTables(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := svc.TableStatistics(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []string{st.Table, strconv.FormatInt(st.Rows, 10), strconv.Itoa(st.Columns)})
	}
	return table(cmd.OutOrStdout(), []string{"TABLE", "ROWS", "COLUMNS"}, rows)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	desc, err := svc.DescribeTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), describeOutput, desc)
}

func runStats(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := svc.StatsByDimension(cmd.Context(), core.Dimension(args[0]))
	if err != nil {
		return err
	}
	return table(cmd.OutOrStdout(), []string{"KEY", "LABEL", "DEVICES", "IN STOCK", "MIN", "AVG", "MAX"}, statRows(stats))
}

func statRows(stats []core.DimensionStat) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []string{
			strconv.FormatInt(st.Key, 10),
			st.Label,
			strconv.FormatInt(st.DeviceCount, 10),
			strconv.FormatInt(st.InStockCount, 10),
			money(st.MinPrice),
			money(st.AvgPrice),
			money(st.MaxPrice),
		})
	}
	return rows
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		names := core.ReportNames()
		sort.Strings(names)
		_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		return err
	}

	svc, closeFn, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := svc.RunReport(cmd.Context(), args[0], reportLimit)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Title)
	return table(cmd.OutOrStdout(), upper(report.Columns), reportRows(report.Rows))
}

func reportRows(rows [][]any) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = "-"
				continue
			}
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out
}

func upper(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToUpper(s)
	}
	return out
}

func dimensionNames(ds []core.Dimension) []string {
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = string(d)
	}
	return names
}
