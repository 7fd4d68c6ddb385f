package player

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/zachfi/zkit/pkg/util"
)

type Config struct {
	Binary string   `yaml:"binary,omitempty"`
	Socket string   `yaml:"socket,omitempty"`
	Args   []string `yaml:"args,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.Binary, util.PrefixConfig(prefix, "binary"), "mpv", "mpv executable.")
	f.StringVar(&cfg.Socket, util.PrefixConfig(prefix, "socket"), filepath.Join(os.TempDir(), "tunego-mpv.sock"), "mpv IPC socket path.")
}
