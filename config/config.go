////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package config loads the parameters of a render session from TOML.
package config

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"gitlab.com/elixxir/offscreen-wasm/controller"
	"gitlab.com/elixxir/offscreen-wasm/session"
	"gitlab.com/elixxir/offscreen-wasm/worker"
)

// Config groups the parameters of every part of a render session.
type Config struct {
	// LogLevel is the jwalterweatherman threshold (0 TRACE to 6 FATAL).
	LogLevel int `toml:"logLevel"`

	// LogPath is the file the log is written to. Empty or "-" is stdout.
	LogPath string `toml:"logPath"`

	// MessageLogSize is the size, in bytes, of the visible message log.
	MessageLogSize int `toml:"messageLogSize"`

	Controller controller.Params `toml:"controller"`
	Session    session.Params    `toml:"session"`
	Worker     worker.Params     `toml:"worker"`
}

// Default returns the configuration of the demo page.
func Default() Config {
	return Config{
		LogLevel:       2,
		LogPath:        "-",
		MessageLogSize: 64 * 1024,
		Controller:     controller.DefaultParams(),
		Session:        session.DefaultParams(),
		Worker:         worker.DefaultParams(),
	}
}

// Load reads the TOML file at path over the default configuration. Keys
// missing from the file keep their default value. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "could not read config %q", path)
	}
	c, err := Parse(data)
	return c, errors.Wrapf(err, "invalid config %q", path)
}

// Parse decodes TOML over the default configuration and validates it.
func Parse(data []byte) (Config, error) {
	c := Default()

	// Arrays of tables are appended to, so the default targets are only
	// restored when the file has none
	defaultTargets := c.Controller.Targets
	c.Controller.Targets = nil

	d := toml.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	if err := d.Decode(&c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, errors.New(strict.String())
		}
		return Config{}, errors.Wrap(err, "could not decode TOML")
	}
	if c.Controller.Targets == nil {
		c.Controller.Targets = defaultTargets
	}
	return c, c.Validate()
}

// Validate returns an error if the configuration cannot run a session.
func (c Config) Validate() error {
	if c.LogLevel < 0 || c.LogLevel > 6 {
		return errors.Errorf("log level %d is not between 0 and 6", c.LogLevel)
	} else if c.MessageLogSize <= 0 {
		return errors.Errorf("message log size %d is not positive",
			c.MessageLogSize)
	} else if c.Session.MaxFrames == 0 {
		return errors.New("session.maxFrames must be positive")
	} else if c.Session.FrameInterval <= 0 {
		return errors.New("session.frameInterval must be positive")
	}
	return c.Controller.Validate()
}

// Marshal encodes the configuration as TOML.
func (c Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	return data, errors.Wrap(err, "could not encode TOML")
}
