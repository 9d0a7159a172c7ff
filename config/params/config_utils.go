package params

import (
	"sync"

	"github.com/mohae/deepcopy"
)

var lightClientConfig = DefaultConfig()
var lightClientConfigLock sync.RWMutex

// LightClient retrieves the active light-client config.
func LightClient() *LightClientConfig {
	lightClientConfigLock.RLock()
	defer lightClientConfigLock.RUnlock()
	return lightClientConfig
}

// OverrideLightClientConfig by replacing the config. The preferred pattern is
// to call LightClient(), copy it, change the specific parameters, and then
// call OverrideLightClientConfig(c).
func OverrideLightClientConfig(c *LightClientConfig) {
	lightClientConfigLock.Lock()
	defer lightClientConfigLock.Unlock()
	lightClientConfig = c
}

// Copy returns a copy of the config object.
func (c *LightClientConfig) Copy() *LightClientConfig {
	config, ok := deepcopy.Copy(*c).(LightClientConfig)
	if !ok {
		config = *c
	}
	return &config
}
