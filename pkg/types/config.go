package types

// Config holds backend selection and parameters for opening a Store.
type Config struct {
	Backend     string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir     string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	DatabaseURL string `json:"database_url" yaml:"database_url" mapstructure:"database_url"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendPostgres: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendPostgres && c.DatabaseURL == "" {
		return ErrDatabaseURLEmpty
	}
	return nil
}
