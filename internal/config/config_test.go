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
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starguide/phdcore/internal/calibration"
)

func TestLoadCalibrationMissingFileIsInvalidNotError(t *testing.T) {
	rec, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if rec.Valid() {
		t.Errorf("Valid()=true for a missing file")
	}
}

func TestSaveThenLoadCalibrationRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	want := calibration.Record{RaAngle: 1.2, DecAngle: 0.3, RaRate: 0.02, DecRate: 0.015, CalDurationMs: 750}
	if err := SaveCalibration(path, want); err != nil {
		t.Fatalf("SaveCalibration: %v", err)
	}

	got, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if !got.Valid() {
		t.Fatalf("Valid()=false after round trip")
	}
	if got.RaAngle != want.RaAngle || got.RaRate != want.RaRate {
		t.Errorf("got=%+v; want=%+v", got, want)
	}
}

func TestLoadCalibrationRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	stale := fmt.Sprintf(`{"schema_version":%d,"ra_angle":0,"dec_angle":0,"ra_rate":0.02,"dec_rate":0.02,"cal_duration_ms":750}`,
		calibration.CurrentSchemaVersion+7)
	if err := os.WriteFile(path, []byte(stale), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if got.Valid() {
		t.Errorf("Valid()=true for a schema-mismatched file")
	}
}

func TestLoadAppConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadAppConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	want := DefaultAppConfig()
	if cfg.Engine.ExposureMs != want.Engine.ExposureMs || cfg.Finder.SearchRadius != want.Finder.SearchRadius {
		t.Errorf("cfg=%+v; want defaults %+v", cfg, want)
	}
}

func TestSaveThenLoadAppConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	cfg := DefaultAppConfig()
	cfg.Engine.ExposureMs = 3500
	cfg.Finder.SearchRadius = 20
	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig: %v", err)
	}

	got, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig: %v", err)
	}
	if got.Engine.ExposureMs != 3500 || got.Finder.SearchRadius != 20 {
		t.Errorf("got=%+v; want overridden fields preserved", got)
	}
}
