package config

import "github.com/gaze-network/collectible-ledger/internal/postgres"

const (
	DatastoreMemory   = "memory"
	DatastorePostgres = "postgres"
)

type Config struct {
	Name          string `mapstructure:"name"`
	Symbol        string `mapstructure:"symbol"`
	CID           string `mapstructure:"cid"`
	ContractURI   string `mapstructure:"contract_uri"`
	Administrator string `mapstructure:"administrator"`

	// Datastore is either "memory" (default) or "postgres".
	Datastore string          `mapstructure:"datastore"`
	Postgres  postgres.Config `mapstructure:"postgres"`
}

func Default() Config {
	return Config{
		Name:      "EtherPapes",
		Symbol:    "PAPE",
		Datastore: DatastoreMemory,
	}
}
