package messagebus

import (
	"flag"
	"time"

	"github.com/zachfi/zkit/pkg/util"
)

type Config struct {
	URL            string        `yaml:"url,omitempty"`
	ReconnectDelay time.Duration `yaml:"reconnect-delay,omitempty"`
	WriteTimeout   time.Duration `yaml:"write-timeout,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.URL, util.PrefixConfig(prefix, "url"), "", "Websocket url of the message bus, eg: ws://localhost:8181/core. Empty disables the bus.")
	f.DurationVar(&cfg.ReconnectDelay, util.PrefixConfig(prefix, "reconnect-delay"), 5*time.Second, "Delay before reconnecting to the bus.")
	f.DurationVar(&cfg.WriteTimeout, util.PrefixConfig(prefix, "write-timeout"), 5*time.Second, "Timeout for writing a message to the bus.")
}
