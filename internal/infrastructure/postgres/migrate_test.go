package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/migrations"
)

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/ledger?sslmode=disable", "pgx5://u:p@localhost:5432/ledger?sslmode=disable"},
		{"postgresql://u@db/ledger", "pgx5://u@db/ledger"},
		{"pgx5://u@db/ledger", "pgx5://u@db/ledger"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, migrateURL(tt.in))
	}
}

func TestMigraciones_ParesUpDown(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, ups)
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(migrations.FS, down)
		assert.NoError(t, err, "falta %s", down)
	}

	raw, err := fs.ReadFile(migrations.FS, "0001_ledger.up.sql")
	require.NoError(t, err)
	schema := string(raw)
	for _, table := range []string{"product_variants", "inventory_batches", "inventory_movements", "purchase_orders", "purchase_order_lines"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Contains(t, schema, "ux_inventory_movements_reference")
	assert.Contains(t, schema, "received_quantity <= ordered_quantity")
}
