package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tablekit/internal/paths"
	"github.com/mesh-intelligence/tablekit/pkg/types"
)

// Config keys.
const (
	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeyServerAddr  = "server.addr"
	cfgKeyRangeColumn = "server.range_column"
	cfgKeyPageSize    = "table.page_size"
	cfgKeySortMode    = "table.sort_mode"
	cfgKeyLinkPrefix  = "table.link_prefix"
	cfgKeyScrollRows  = "browse.scroll_rows"
	cfgKeyBaseURL     = "remote.base_url"
	cfgKeyTimeout     = "remote.timeout"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend string       `yaml:"backend"`
	DataDir string       `yaml:"data_dir,omitempty"`
	Server  serverConfig `yaml:"server"`
	Table   tableConfig  `yaml:"table"`
	Browse  browseConfig `yaml:"browse"`
	Remote  remoteConfig `yaml:"remote"`
}

type serverConfig struct {
	Addr        string `yaml:"addr"`
	RangeColumn string `yaml:"range_column"`
}

type tableConfig struct {
	PageSize   int    `yaml:"page_size"`
	SortMode   string `yaml:"sort_mode"`
	LinkPrefix string `yaml:"link_prefix"`
}

type browseConfig struct {
	ScrollRows int `yaml:"scroll_rows"`
}

type remoteConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend: types.BackendSQLite,
		Server:  serverConfig{Addr: ":8080", RangeColumn: types.DefaultRangeColumn},
		Table: tableConfig{
			PageSize:   types.DefaultPageSize,
			SortMode:   types.ModeRemote.String(),
			LinkPrefix: types.DefaultLinkPrefix,
		},
		Browse: browseConfig{ScrollRows: 3},
		Remote: remoteConfig{BaseURL: "http://localhost:8080", Timeout: "10s"},
	}
}

// settings is the resolved configuration.
type settings struct {
	Backend     string
	DataDir     string
	ServerAddr  string
	RangeColumn string
	PageSize    int
	SortMode    string
	LinkPrefix  string
	ScrollRows  int
	BaseURL     string
	Timeout     time.Duration
}

func newViper() *viper.Viper {
	d := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, d.Backend)
	v.SetDefault(cfgKeyServerAddr, d.Server.Addr)
	v.SetDefault(cfgKeyRangeColumn, d.Server.RangeColumn)
	v.SetDefault(cfgKeyPageSize, d.Table.PageSize)
	v.SetDefault(cfgKeySortMode, d.Table.SortMode)
	v.SetDefault(cfgKeyLinkPrefix, d.Table.LinkPrefix)
	v.SetDefault(cfgKeyScrollRows, d.Browse.ScrollRows)
	v.SetDefault(cfgKeyBaseURL, d.Remote.BaseURL)
	v.SetDefault(cfgKeyTimeout, d.Remote.Timeout)

	// data_dir is left to the paths precedence chain.
	_ = v.BindEnv(cfgKeyServerAddr, "TABLEKIT_SERVER_ADDR")
	_ = v.BindEnv(cfgKeyBaseURL, "TABLEKIT_REMOTE_BASE_URL")
	return v
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error; every key has a default.
func loadConfig(configDir string) (settings, error) {
	v := newViper()
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		Backend:     v.GetString(cfgKeyBackend),
		DataDir:     v.GetString(cfgKeyDataDir),
		ServerAddr:  v.GetString(cfgKeyServerAddr),
		RangeColumn: v.GetString(cfgKeyRangeColumn),
		PageSize:    v.GetInt(cfgKeyPageSize),
		SortMode:    v.GetString(cfgKeySortMode),
		LinkPrefix:  v.GetString(cfgKeyLinkPrefix),
		ScrollRows:  v.GetInt(cfgKeyScrollRows),
		BaseURL:     v.GetString(cfgKeyBaseURL),
		Timeout:     v.GetDuration(cfgKeyTimeout),
	}
	if err := s.storeConfig("").Validate(); err != nil {
		return settings{}, fmt.Errorf("config %s: %w", cfgKeyBackend, err)
	}
	return s, nil
}

// storeConfig is the row store configuration for dataDir.
func (s settings) storeConfig(dataDir string) types.Config {
	return types.Config{Backend: s.Backend, DataDir: dataDir, RangeColumn: s.RangeColumn}
}

// tableOptions builds table options from the table.* keys.
func (s settings) tableOptions() (types.Options, error) {
	mode, err := types.ParseSortMode(s.SortMode)
	if err != nil {
		return types.Options{}, err
	}
	opts := types.Options{PageSize: s.PageSize, Mode: mode, LinkPrefix: s.LinkPrefix}
	if err := opts.Validate(); err != nil {
		return types.Options{}, err
	}
	return opts, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	cfg := defaultConfigFile()
	cfg.DataDir = dataDir
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
