////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

//go:build js && wasm

package host

import (
	"encoding/base64"
	"os"
	"strings"

	"github.com/hack-pad/safejs"
	"github.com/pkg/errors"
)

// settingsPrefix is prefixed to every key saved by Settings so that only keys
// created by this binary are listed or cleared.
const settingsPrefix = "offscreenSettings/"

// Settings stores values of the page in window.localStorage.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Window/localStorage
type Settings struct {
	v      safejs.Value
	prefix string
}

// NewSettings returns the local storage of the page.
func NewSettings() (*Settings, error) {
	v, err := safejs.Global().Get("localStorage")
	if err != nil {
		return nil, err
	} else if v.IsUndefined() || v.IsNull() {
		return nil, errors.New("localStorage is not available")
	}
	return &Settings{v: v, prefix: settingsPrefix}, nil
}

// Get returns the value saved for the key. Returns os.ErrNotExist if nothing
// was saved.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Storage/getItem
func (s *Settings) Get(key string) ([]byte, error) {
	v, err := s.v.Call("getItem", s.prefix+key)
	if err != nil {
		return nil, err
	} else if v.IsNull() {
		return nil, os.ErrNotExist
	}

	encoded, err := v.String()
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Set saves the value for the key.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Storage/setItem
func (s *Settings) Set(key string, value []byte) error {
	_, err := s.v.Call("setItem", s.prefix+key,
		base64.StdEncoding.EncodeToString(value))
	return err
}

// Remove deletes the key. Removing a missing key does nothing.
//
// Doc: https://developer.mozilla.org/en-US/docs/Web/API/Storage/removeItem
func (s *Settings) Remove(key string) error {
	_, err := s.v.Call("removeItem", s.prefix+key)
	return err
}

// Keys returns the name of every key saved by Settings.
func (s *Settings) Keys() ([]string, error) {
	length, err := intProperty(s.v, "length")
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, length)
	for i := 0; i < length; i++ {
		v, err := s.v.Call("key", i)
		if err != nil {
			return nil, err
		} else if v.IsNull() {
			continue
		}
		name, err := v.String()
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(name, s.prefix) {
			keys = append(keys, strings.TrimPrefix(name, s.prefix))
		}
	}
	return keys, nil
}

// Clear deletes every key saved by Settings.
func (s *Settings) Clear() error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err = s.Remove(key); err != nil {
			return errors.Wrapf(err, "failed to remove %q", key)
		}
	}
	return nil
}
