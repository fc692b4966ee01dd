package database

import (
	"database/sql"
	"embed"
	"time"

	"github.com/cenkalti/backoff/v4"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"

	"github.com/monetahq/moneta/config"

	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Datasource is the single handle to the relational store. It is passed
// into the ledger at construction rather than held as a process-wide
// singleton, so tests can substitute sqlmock or a throwaway database.
type Datasource struct {
	Conn *sql.DB
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	conn, err := ConnectDB(configuration.DataSource.Dns)
	if err != nil {
		return nil, err
	}
	return &Datasource{Conn: conn}, nil
}

// ConnectDB opens the postgres connection, retrying the initial ping with
// exponential backoff so the ledger survives a database that is still
// coming up.
func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second
	err = backoff.Retry(func() error {
		if pingErr := db.Ping(); pingErr != nil {
			logrus.Warnf("database not reachable yet: %v", pingErr)
			return pingErr
		}
		return nil
	}, policy)
	if err != nil {
		logrus.Errorf("database connection error: %v", err)
		return nil, err
	}

	return db, nil
}

// Migrate applies the embedded schema migrations.
func (d Datasource) Migrate() (int, error) {
	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
	applied, err := migrate.Exec(d.Conn, "postgres", source, migrate.Up)
	if err != nil {
		return 0, err
	}
	logrus.Infof("applied %d migrations", applied)
	return applied, nil
}
