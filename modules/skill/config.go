package skill

import (
	"flag"
	"fmt"
	"time"

	"github.com/zachfi/zkit/pkg/util"

	"github.com/zachfi/tunego/pkg/tunein"
)

const (
	MatchModeFirst = "first"
	MatchModeFuzzy = "fuzzy"

	AudioBackendBus = "bus"
	AudioBackendMpv = "mpv"

	defaultSkillID         = "tunein-skill"
	defaultLanguage        = "en-us"
	defaultLegacyAliasFile = "~/.tunein/aliases"
	defaultRequestTimeout  = 10 * time.Second
)

type Config struct {
	SkillID         string        `yaml:"skill-id,omitempty"`
	SearchURL       string        `yaml:"search-url,omitempty"`
	MatchMode       string        `yaml:"match-mode,omitempty"`
	Language        string        `yaml:"language,omitempty"`
	ResourceDir     string        `yaml:"resource-dir,omitempty"`
	SettingsFile    string        `yaml:"settings-file,omitempty"`
	LegacyAliasFile string        `yaml:"legacy-alias-file,omitempty"`
	AudioBackend    string        `yaml:"audio-backend,omitempty"`
	RequestTimeout  time.Duration `yaml:"request-timeout,omitempty"`
}

func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.SkillID, util.PrefixConfig(prefix, "id"), defaultSkillID, "Skill identifier used on the message bus.")
	f.StringVar(&cfg.SearchURL, util.PrefixConfig(prefix, "search-url"), tunein.DefaultSearchURL, "Directory search endpoint.")
	f.StringVar(&cfg.MatchMode, util.PrefixConfig(prefix, "match-mode"), MatchModeFuzzy, "Station selection: first or fuzzy.")
	f.StringVar(&cfg.Language, util.PrefixConfig(prefix, "language"), defaultLanguage, "Language of phrase and dialog resources.")
	f.StringVar(&cfg.ResourceDir, util.PrefixConfig(prefix, "resource-dir"), "", "Directory overriding the built in locale resources.")
	f.StringVar(&cfg.SettingsFile, util.PrefixConfig(prefix, "settings-file"), "", "JSON settings file holding station1..5/alias1..5 slots.")
	f.StringVar(&cfg.LegacyAliasFile, util.PrefixConfig(prefix, "legacy-alias-file"), defaultLegacyAliasFile, "Legacy alias=station file.")
	f.StringVar(&cfg.AudioBackend, util.PrefixConfig(prefix, "audio-backend"), AudioBackendBus, "Audio backend: bus or mpv.")
	f.DurationVar(&cfg.RequestTimeout, util.PrefixConfig(prefix, "request-timeout"), defaultRequestTimeout, "Timeout for directory and playlist requests.")
}

func (cfg *Config) Validate() error {
	switch cfg.MatchMode {
	case MatchModeFirst, MatchModeFuzzy:
	default:
		return fmt.Errorf("invalid match mode %q", cfg.MatchMode)
	}

	switch cfg.AudioBackend {
	case AudioBackendBus, AudioBackendMpv:
	default:
		return fmt.Errorf("invalid audio backend %q", cfg.AudioBackend)
	}

	return nil
}
