/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"testing"
)

func TestEnvOverridesDetectorURL(t *testing.T) {
	old := os.Getenv(EnvDetectorURL)
	_ = os.Setenv(EnvDetectorURL, "https://example.test:8443")
	t.Cleanup(func() { _ = os.Setenv(EnvDetectorURL, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Detector.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Detector.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	old := os.Getenv(EnvTelemetryOptIn)
	_ = os.Setenv(EnvTelemetryOptIn, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvTelemetryOptIn, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/rdl.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/rdl.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeIncludesInteractionThresholds(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Interaction.ClosingThresholdPx = 20
	src.Interaction.HitTolerancePx = 8
	mergeInto(&dst, &src)
	if dst.Interaction.ClosingThresholdPx != 20 || dst.Interaction.HitTolerancePx != 8 {
		t.Fatalf("interaction fields not merged correctly: %#v", dst.Interaction)
	}
	// zero values in the file must not clobber defaults
	src2 := AppConfig{}
	dst2 := Defaults()
	mergeInto(&dst2, &src2)
	if dst2.Interaction.ClosingThresholdPx != Defaults().Interaction.ClosingThresholdPx {
		t.Fatalf("zero interaction value overwrote default: %#v", dst2.Interaction)
	}
}

func TestMergeIncludesHistory(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.History.MaxEntries = 100
	mergeInto(&dst, &src)
	if dst.History.MaxEntries != 100 {
		t.Fatalf("history max_entries not merged: %#v", dst.History)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	oldLevel := os.Getenv(EnvLogLevel)
	oldFmt := os.Getenv(EnvLogFormat)
	oldSrc := os.Getenv(EnvLogSource)
	oldFile := os.Getenv(EnvLogFile)
	_ = os.Setenv(EnvLogLevel, "error")
	_ = os.Setenv(EnvLogFormat, "json")
	_ = os.Setenv(EnvLogSource, "1")
	_ = os.Setenv(EnvLogFile, "X:/rdl.log")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLogLevel, oldLevel)
		_ = os.Setenv(EnvLogFormat, oldFmt)
		_ = os.Setenv(EnvLogSource, oldSrc)
		_ = os.Setenv(EnvLogFile, oldFile)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/rdl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}
