package secrets

// Config holds the process-wide key material. It is read once at startup and
// never reloaded.
type Config struct {
	MasterKey  string `env:"MASTER_KEY,required"`
	Salt       string `env:"MASTER_KEY_SALT" envDefault:"777tech_salt_2024"`
	Iterations int    `env:"MASTER_KEY_ITERATIONS" envDefault:"100000"`
}

// Validate reports the first problem with the key material, if any.
func (c Config) Validate() error {
	if c.MasterKey == "" {
		return ErrMissingMasterKey
	}
	if c.Salt == "" {
		return ErrMissingSalt
	}
	if c.Iterations < MinIterations {
		return ErrTooFewIterations
	}
	return nil
}
