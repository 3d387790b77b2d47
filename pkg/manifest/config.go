package manifest

// Config is the sinkadmin service manifest.
type Config struct {
	Server  Server  `toml:"server"`
	Auth    Auth    `toml:"auth"`
	Policy  Policy  `toml:"policy"`
	Backend Backend `toml:"backend"`
	Store   Store   `toml:"store"`
	UI      UI      `toml:"ui"`
	Sinks   []Sink  `toml:"sink"` // seed entries, applied when absent from the catalog
}

// Validate normalizes defaults in place and reports the first problem found.
func (c *Config) Validate() error {
	if err := c.Server.normalize(); err != nil {
		return err
	}
	c.Auth.normalize()
	if err := c.Policy.normalize(); err != nil {
		return err
	}
	c.Backend.normalize()
	if err := c.Store.normalize(); err != nil {
		return err
	}
	c.UI.normalize()
	return c.validateSinks()
}
