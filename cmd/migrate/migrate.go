package migrate

import (
	"net/url"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/internal/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
)

const (
	collectibleMigrationSource = "modules/collectible/database/postgresql/migrations"
	collectibleMigrationTable  = "collectible_schema_migrations"
)

var supportedDrivers = map[string]struct{}{
	"postgres":   {},
	"postgresql": {},
}

type migrateCmdOptions struct {
	DatabaseURL string
	Source      string
}

func (o *migrateCmdOptions) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.Source, "source", collectibleMigrationSource, "Path to collectible migrations directory")
	flags.StringVar(&o.DatabaseURL, "database", "", "Database url to run migration on. Defaults to the `collectible.postgres` config")
}

// databaseURL resolves the target database, falling back to the configured Postgres connection.
func (o *migrateCmdOptions) databaseURL() (*url.URL, error) {
	raw := o.DatabaseURL
	if raw == "" {
		raw = config.Load().Collectible.Postgres.MigrateURL()
	}
	databaseURL, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database URL")
	}
	if _, ok := supportedDrivers[databaseURL.Scheme]; !ok {
		return nil, errors.Errorf("unsupported database driver: %q", databaseURL.Scheme)
	}
	return cloneURLWithQuery(databaseURL, url.Values{"x-migrations-table": {collectibleMigrationTable}}), nil
}

func (o *migrateCmdOptions) newMigrate() (*migrate.Migrate, error) {
	databaseURL, err := o.databaseURL()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	m, err := migrate.New("file://"+o.Source, databaseURL.String())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Migrate instance")
	}
	m.Log = &consoleLogger{prefix: "[Collectible] "}
	return m, nil
}

// parseSteps parses the optional [N] argument. Zero means all.
func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse N")
	}
	if n < 0 {
		return 0, errors.New("N must be a positive integer")
	}
	return n, nil
}

func cloneURLWithQuery(u *url.URL, newQuery url.Values) *url.URL {
	clone := *u
	query := clone.Query()
	for key, values := range newQuery {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	clone.RawQuery = query.Encode()
	return &clone
}

func closeMigrate(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		m.Log.Printf("failed to close source: %v\n", srcErr)
	}
	if dbErr != nil {
		m.Log.Printf("failed to close database: %v\n", dbErr)
	}
}

