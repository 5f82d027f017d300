// Package config loads and validates the euphony configuration, an INI file
// with sections for the server itself, the persistent database, the MPD
// connection and logging.
package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// CfgFilepath is the default path of the euphony configuration file
const CfgFilepath = "/etc/euphony/config.ini"

// Server configures the HTTP front end and how the server announces itself
type Server struct {
	Host string
	Port int
	// Name is the display name remotes show
	Name string
	// ID is the stable hex identifier used as mDNS instance and database id
	ID string
}

// DB locates the persistent key value store
type DB struct {
	Path string
}

// MPD addresses the MPD server to bridge
type MPD struct {
	Host     string
	Port     int
	Password string
}

// Logging configures the log file and level
type Logging struct {
	Filename string
	Level    string
}

// Cfg is the complete euphony configuration
type Cfg struct {
	Server  Server
	DB      DB
	MPD     MPD
	Logging Logging
}

// Load reads the configuration file and returns the euphony config as
// structure. Missing keys fall back to defaults; a missing server id is
// generated from a fresh UUID.
func Load(path string) (cfg Cfg, err error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 3689)
	v.SetDefault("server.name", "Euphony")
	v.SetDefault("mpd.host", "localhost")
	v.SetDefault("mpd.port", 6600)
	v.SetDefault("db.path", "/var/lib/euphony/euphony.db")
	v.SetDefault("logging.level", "info")

	if err = v.ReadInConfig(); err != nil {
		return Cfg{}, errors.Wrapf(err, "config file '%s' couldn't be read", path)
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return Cfg{}, errors.Wrapf(err, "config file '%s' couldn't be marshalled", path)
	}

	if cfg.Server.ID == "" {
		cfg.Server.ID = NewServerID()
	}
	return
}

// NewServerID generates a fresh 16 digit hex server id
func NewServerID() string {
	id := uuid.New()
	return strings.ToUpper(fmt.Sprintf("%x", id[:8]))
}

// Validate checks if the configuration is complete and correct. If it's
// not, an error is returned.
func (me *Cfg) Validate() (err error) {
	if me.Server.Port <= 0 || me.Server.Port > 65535 {
		err = fmt.Errorf("server port must be in (0,65535], got %d", me.Server.Port)
		return
	}
	if len(me.Server.Name) == 0 {
		err = fmt.Errorf("the server must have a name, but server name is empty")
		return
	}
	if len(me.Server.ID) != 16 || !isHex(me.Server.ID) {
		err = fmt.Errorf("server id '%s' must be 16 hex digits", me.Server.ID)
		return
	}
	if len(me.DB.Path) == 0 {
		err = fmt.Errorf("db path must not be empty")
		return
	}
	if len(me.MPD.Host) == 0 {
		err = fmt.Errorf("mpd host must not be empty")
		return
	}
	if me.MPD.Port <= 0 || me.MPD.Port > 65535 {
		err = fmt.Errorf("mpd port must be in (0,65535], got %d", me.MPD.Port)
		return
	}
	switch strings.ToLower(me.Logging.Level) {
	case "", "panic", "fatal", "error", "warn", "warning", "info", "debug", "trace":
	default:
		err = fmt.Errorf("unknown log level '%s'", me.Logging.Level)
		return
	}
	return
}

// Test reads the configuration file and checks it for completeness and
// consistency
func Test(path string) (err error) {
	cfg, err := Load(path)
	if err != nil {
		return
	}
	if err = cfg.Validate(); err != nil {
		return
	}
	fmt.Println("Congrats: The euphony configuration is complete and consistent :)")
	return
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
