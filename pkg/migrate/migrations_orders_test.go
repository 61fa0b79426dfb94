package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders_tables.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_order_number",
		"CREATE INDEX IF NOT EXISTS idx_orders_provider_session",
		"CREATE INDEX IF NOT EXISTS idx_orders_provider_payment",
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (quantity > 0)",
		"DROP TABLE IF EXISTS order_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
