package main

import (
	"bufio"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Columns whose Go model fields are pointers. The repositories bind
// them directly, so a nil field becomes SQL NULL and the schema must
// accept it.
var nullableColumns = []struct {
	table  string
	column string
}{
	{"customers", "email"},
	{"customers", "phone"},
	{"customers", "notes"},
	{"quotations", "notes"},
	{"quotations", "valid_until"},
	{"sales_orders", "notes"},
	{"sales_orders", "confirmed_at"},
	{"sales_orders", "confirmed_by"},
	{"invoices", "due_date"},
	{"inventory_reservations", "released_at"},
}

func TestNullableModelFieldsHaveNullableColumns(t *testing.T) {
	defs := columnDefinitions(t, "0001_init.sql")

	for _, c := range nullableColumns {
		def, ok := defs[c.table+"."+c.column]
		require.True(t, ok, "column %s.%s not found in schema", c.table, c.column)
		require.NotContains(t, strings.ToUpper(def), "NOT NULL",
			"column %s.%s must accept NULL: %s", c.table, c.column, def)
	}
}

// columnDefinitions maps "table.column" to its DDL line.
func columnDefinitions(t *testing.T, file string) map[string]string {
	t.Helper()
	f, err := os.Open(file)
	require.NoError(t, err)
	defer f.Close()

	defs := make(map[string]string)
	var table string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "CREATE TABLE IF NOT EXISTS "); ok {
			table = strings.TrimSuffix(strings.Fields(rest)[0], "(")
			continue
		}
		if table == "" || line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		if strings.HasPrefix(line, ");") {
			table = ""
			continue
		}
		fields := strings.Fields(line)
		name := strings.ToLower(fields[0])
		switch name {
		case "primary", "unique", "foreign", "check", "constraint":
			continue
		}
		defs[table+"."+name] = line
	}
	require.NoError(t, scanner.Err())
	return defs
}
