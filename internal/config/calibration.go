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

// Package config loads and saves the small on-disk records the composition
// root needs across restarts: the per-mount calibration file and the
// engine/mount/finder tunables, all plain JSON structs bound the way the
// teacher binds ops.OpSequence - encoding/json directly, no config framework.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/starguide/phdcore/internal/calibration"
)

// LoadCalibration reads a calibration.Record from path. A missing file is
// not an error - it returns the zero Record, which Record.Valid reports as
// invalid. A present file that json.Unmarshal rejects (bad syntax or wrong
// field types) is reported to the caller as a parse error; a file that
// parses but fails Record.Valid (e.g. a different format version) is
// instead returned as the zero Record with no error, so the guider falls
// back to an uncalibrated mount and recalibrates.
func LoadCalibration(path string) (calibration.Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return calibration.Record{}, nil
	}
	if err != nil {
		return calibration.Record{}, fmt.Errorf("config: read calibration %s: %w", path, err)
	}
	var rec calibration.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return calibration.Record{}, fmt.Errorf("config: parse calibration %s: %w", path, err)
	}
	if !rec.Valid() {
		return calibration.Record{}, nil
	}
	return rec, nil
}

// SaveCalibration writes rec to path as indented JSON, stamping
// CurrentSchemaVersion so a future LoadCalibration accepts it.
func SaveCalibration(path string, rec calibration.Record) error {
	rec.SchemaVersion = calibration.CurrentSchemaVersion
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal calibration: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write calibration %s: %w", path, err)
	}
	return nil
}
