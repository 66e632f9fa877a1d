// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/starguide/phdcore/internal/engine"
	"github.com/starguide/phdcore/internal/mount"
	"github.com/starguide/phdcore/internal/star"
)

// AppConfig bundles the finder/mount/calibration/engine tunables into one
// file the composition root loads at startup; no CLI flag overrides its
// fields.
type AppConfig struct {
	Finder star.FinderConfig      `json:"finder"`
	Mount  mount.Config           `json:"mount"`
	Cal    mount.CalibrationConfig `json:"calibration"`
	Engine engine.Config          `json:"engine"`
}

// DefaultAppConfig returns the built-in defaults for every tunable group.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Finder: star.DefaultFinderConfig(),
		Mount:  mount.DefaultConfig(),
		Cal:    mount.DefaultCalibrationConfig(),
		Engine: engine.DefaultConfig(),
	}
}

// LoadAppConfig reads path as JSON over DefaultAppConfig, so a file that
// only overrides a handful of fields still yields sane defaults for the
// rest. A missing file is not an error; it just yields the defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return AppConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveAppConfig writes cfg to path as indented JSON.
func SaveAppConfig(path string, cfg AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
