package shared

import (
	"testing"
)

func TestMigrations(t *testing.T) {
	t.Run("RunMigrations creates the schema", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations: %v", err)
		}

		if _, err := db.Exec(`INSERT INTO play_history (id, track_name, artists) VALUES ('1', 'Song', 'A')`); err != nil {
			t.Errorf("expected play_history table to exist: %v", err)
		}
	})

	t.Run("RunMigrations is idempotent", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first RunMigrations: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second RunMigrations: %v", err)
		}
	})

	t.Run("RollbackMigration drops the schema", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase: %v", err)
		}
		defer db.Close()
		ConfigureDatabase(db, 1, 1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration: %v", err)
		}

		if _, err := db.Exec(`INSERT INTO play_history (id, track_name, artists) VALUES ('1', 'Song', 'A')`); err == nil {
			t.Error("expected play_history table to be gone")
		}
	})

	t.Run("rollback with nothing applied fails", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase: %v", err)
		}
		defer db.Close()

		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("createMigrationsTable: %v", err)
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error with no applied migrations")
		}
	})
}
