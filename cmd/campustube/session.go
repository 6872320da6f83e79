package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"campustube/pkg/client"
)

// sessionFile persists the signed-in session between invocations.
type sessionFile string

func (f sessionFile) Load() (client.Session, error) {
	var s client.Session
	data, err := os.ReadFile(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("read session %s: %w", f, err)
	}
	return s, nil
}

func (f sessionFile) Save(s client.Session) error {
	if err := os.MkdirAll(filepath.Dir(string(f)), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(string(f), data, 0o600)
}

func (f sessionFile) Clear() error {
	err := os.Remove(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
