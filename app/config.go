package app

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/grafana/dskit/flagext"
	"github.com/grafana/dskit/server"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/zachfi/zkit/pkg/tracing"

	"github.com/zachfi/tunego/modules/skill"
	"github.com/zachfi/tunego/pkg/messagebus"
	"github.com/zachfi/tunego/pkg/player"
)

type Config struct {
	Target   string            `yaml:"target"`
	LogLevel string            `yaml:"log-level,omitempty"`
	Tracing  tracing.Config    `yaml:"tracing,omitempty"`
	Server   server.Config     `yaml:"server,omitempty"`
	Bus      messagebus.Config `yaml:"bus,omitempty"`
	Skill    skill.Config      `yaml:"skill,omitempty"`
	Player   player.Config     `yaml:"player,omitempty"`
}

// LoadConfig returns the defaults overlaid with the YAML file at file.
func LoadConfig(file string) (Config, error) {
	filename, _ := filepath.Abs(file)

	config := Config{}
	config.RegisterFlagsAndApplyDefaults("", flag.NewFlagSet("", flag.ContinueOnError))

	err := loadYamlFile(filename, &config)
	if err != nil {
		return config, errors.Wrap(err, "failed to load yaml file")
	}

	return config, nil
}

// loadYamlFile strictly unmarshals a YAML file into d.
func loadYamlFile(filename string, d interface{}) error {
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.UnmarshalStrict(yamlFile, d)
}

func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&c.Target, "target", All, "Module to run.")
	f.StringVar(&c.LogLevel, "log.level", "info", "Log level: debug, info, warn or error.")

	flagext.DefaultValues(&c.Server)
	f.IntVar(&c.Server.HTTPListenPort, "server.http-listen-port", 3030, "HTTP server listen port.")
	f.IntVar(&c.Server.GRPCListenPort, "server.grpc-listen-port", 9090, "gRPC server listen port.")

	c.Tracing.RegisterFlagsAndApplyDefaults("tracing", f)
	c.Bus.RegisterFlagsAndApplyDefaults("bus", f)
	c.Skill.RegisterFlagsAndApplyDefaults("skill", f)
	c.Player.RegisterFlagsAndApplyDefaults("player", f)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	return level, nil
}
