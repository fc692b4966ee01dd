package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_STATEMENT_PAGE_SIZE  = 10
	MAX_STATEMENT_PAGE_SIZE      = 100
	DEFAULT_TRANSFER_DESCRIPTION = "Transfer"
)

var ConfigStore atomic.Value

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"MONETA_DATA_SOURCE_DNS"`
}

// RedisConfig is optional. When a DNS is set the ledger holds a per-account
// advisory lock in redis around every transaction, on top of the database
// row locks.
type RedisConfig struct {
	Dns string `json:"dns" envconfig:"MONETA_REDIS_DNS"`
}

type LedgerConfig struct {
	StatementPageSize    int `json:"statement_page_size" envconfig:"MONETA_STATEMENT_PAGE_SIZE"`
	MaxStatementPageSize int `json:"max_statement_page_size" envconfig:"MONETA_MAX_STATEMENT_PAGE_SIZE"`
}

type Configuration struct {
	ProjectName string           `json:"project_name" envconfig:"MONETA_PROJECT_NAME"`
	DataSource  DataSourceConfig `json:"data_source"`
	Redis       RedisConfig      `json:"redis"`
	Ledger      LedgerConfig     `json:"ledger"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(&cnf); err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	if err := envconfig.Process("moneta", &cnf); err != nil {
		return err
	}

	if err := cnf.validateAndAddDefaults(); err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called moneta.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Moneta Ledger"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.Ledger.StatementPageSize <= 0 {
		cnf.Ledger.StatementPageSize = DEFAULT_STATEMENT_PAGE_SIZE
	}
	if cnf.Ledger.MaxStatementPageSize <= 0 {
		cnf.Ledger.MaxStatementPageSize = MAX_STATEMENT_PAGE_SIZE
	}
	if cnf.Ledger.StatementPageSize > cnf.Ledger.MaxStatementPageSize {
		cnf.Ledger.StatementPageSize = cnf.Ledger.MaxStatementPageSize
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	mockConfig.applyTestDefaults()
	ConfigStore.Store(mockConfig)
}

func (cnf *Configuration) applyTestDefaults() {
	if cnf.Ledger.StatementPageSize <= 0 {
		cnf.Ledger.StatementPageSize = DEFAULT_STATEMENT_PAGE_SIZE
	}
	if cnf.Ledger.MaxStatementPageSize <= 0 {
		cnf.Ledger.MaxStatementPageSize = MAX_STATEMENT_PAGE_SIZE
	}
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
