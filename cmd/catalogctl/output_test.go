package main

import (
	"bytes"
	"testing"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_YAMLUsesSnakeCase(t *testing.T) {
	pk := "color_id"
	desc := core.TableDescriptor{
		Name: "color",
		Columns: []core.ColumnInfo{
			{Name: "color_id", DataType: "integer"},
			{Name: "name", DataType: "character varying", Nullable: true},
		},
		PrimaryKey: &pk,
	}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, "yaml", desc))

	out := buf.String()
	assert.Contains(t, out, "name: color\n")
	assert.Contains(t, out, "primary_key: color_id\n")
	assert.Contains(t, out, "data_type: character varying")
	assert.Contains(t, out, "key_generated: false")
	assert.NotContains(t, out, "is_identity")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, "JSON", []core.Admin{{UserID: 1, Username: "root"}}))
	assert.JSONEq(t, `[{"userId":1,"username":"root","email":null}]`, buf.String())
}

func TestRender_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := render(&buf, "xml", struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestTable_AlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, table(&buf, []string{"ID", "USERNAME"}, [][]string{{"1", "root"}, {"12", "ops"}}))
	assert.Equal(t, "ID  USERNAME\n1   root\n12  ops\n", buf.String())
}

func TestStatRows(t *testing.T) {
	avg := 732.3333
	rows := statRows([]core.DimensionStat{{Key: 2, Label: "Smartphone", DeviceCount: 3, InStockCount: 1, AvgPrice: &avg}})
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"2", "Smartphone", "3", "1", "-", "732.33", "-"}, rows[0])
}

func TestReportRows_NilCells(t *testing.T) {
	rows := reportRows([][]any{{int64(1), nil, "x"}})
	assert.Equal(t, [][]string{{"1", "-", "x"}}, rows)
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"tables"}, {"describe"}, {"stats"}, {"report"}, {"delete-device"},
		{"admin", "upsert"}, {"admin", "list"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
