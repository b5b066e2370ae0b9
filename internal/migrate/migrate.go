package migrate

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/wb-go/wbf/zlog"
)

// Run applies or rolls back the schema migrations found at the root of migrationsFS.
// Supported commands: "up", "down", "version".
func Run(dsn string, migrationsFS fs.FS, command string) error {
	switch command {
	case "up", "down", "version":
	default:
		return fmt.Errorf("unknown migrate command: %s (use: up, down, version)", command)
	}

	sourceDriver, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()

	m.Log = migrateLogger{}

	switch command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate up: %w", err)
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migrate down: %w", err)
		}
	}

	ver, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate version: %w", err)
	}

	zlog.Logger.Info().
		Str("command", command).
		Uint("version", ver).
		Bool("dirty", dirty).
		Msg("migrations done")

	return nil
}

// migrateLogger routes migrate's output to zlog.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	zlog.Logger.Info().Msgf(format, v...)
}

func (migrateLogger) Verbose() bool {
	return false
}
