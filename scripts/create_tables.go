package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Creates (or with --drop, removes) the node and share tables for the
// current environment. The table prefix follows ENVIRONMENT the same way
// the server does.
func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	prefix := os.Getenv("TABLE_PREFIX")
	if prefix == "" {
		prefix = env + "_"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	if len(os.Args) > 1 && os.Args[1] == "--drop" {
		dropSQL := fmt.Sprintf(`
			DROP TABLE IF EXISTS %sshares CASCADE;
			DROP TABLE IF EXISTS %snodes CASCADE;
		`, prefix, prefix)

		if _, err := db.Exec(dropSQL); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}

		fmt.Printf("All tables dropped successfully (prefix: %s)\n", prefix)
		return
	}

	// Sibling name uniqueness needs two indexes because PostgreSQL treats
	// NULLs as distinct: one over (owner_id, parent_id, name) for nested
	// nodes and a partial one over (owner_id, name) for root-level nodes.
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]snodes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL,
			parent_id UUID REFERENCES %[1]snodes(id),
			type TEXT NOT NULL CHECK (type IN ('folder', 'file')),
			name VARCHAR(255) NOT NULL,
			mime_type VARCHAR(255) NOT NULL DEFAULT '',
			storage_key TEXT NOT NULL DEFAULT '',
			encrypted_file_key TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS %[1]snodes_sibling_name_idx
			ON %[1]snodes (owner_id, parent_id, name)
			WHERE parent_id IS NOT NULL;

		CREATE UNIQUE INDEX IF NOT EXISTS %[1]snodes_root_name_idx
			ON %[1]snodes (owner_id, name)
			WHERE parent_id IS NULL;

		CREATE INDEX IF NOT EXISTS %[1]snodes_parent_idx
			ON %[1]snodes (owner_id, parent_id);

		CREATE TABLE IF NOT EXISTS %[1]sshares (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			token TEXT NOT NULL UNIQUE,
			node_id UUID NOT NULL REFERENCES %[1]snodes(id),
			owner_id UUID NOT NULL,
			recipient_email TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS %[1]sshares_node_idx
			ON %[1]sshares (node_id);
	`, prefix)

	if _, err := db.Exec(createSQL); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	fmt.Printf("All tables created successfully (prefix: %s)\n", prefix)
}
