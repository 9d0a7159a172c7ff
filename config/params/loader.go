package params

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// LoadConfigFile reads a YAML file over the default limits. Keys absent from
// the file keep their default values.
func LoadConfigFile(fileName string) (*LightClientConfig, error) {
	yamlFile, err := os.ReadFile(fileName) // #nosec G304
	if err != nil {
		return nil, errors.Wrap(err, "could not read light client config file")
	}
	conf := DefaultConfig()
	if err := yaml.UnmarshalStrict(yamlFile, conf); err != nil {
		return nil, errors.Wrap(err, "could not parse light client config file")
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	log.Debugf("Config file values: %+v", conf)
	return conf, nil
}

// LoadAndOverride loads fileName and makes it the active config.
func LoadAndOverride(fileName string) error {
	conf, err := LoadConfigFile(fileName)
	if err != nil {
		return err
	}
	OverrideLightClientConfig(conf)
	return nil
}

// Validate rejects limits that would make every message fail.
func (c *LightClientConfig) Validate() error {
	switch {
	case c.MaxAuthorities == 0:
		return errors.New("MAX_AUTHORITIES must be positive")
	case c.MaxMmrLeafCount == 0:
		return errors.New("MAX_MMR_LEAF_COUNT must be positive")
	case c.MaxProofNodes == 0:
		return errors.New("MAX_PROOF_NODES must be positive")
	case c.ClientStateCacheSize <= 0:
		return errors.New("CLIENT_STATE_CACHE_SIZE must be positive")
	}
	return nil
}
