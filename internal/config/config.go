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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal, which keeps older binaries tolerant of newer files.

type DetectorConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Author         string `yaml:"author"` // default author stamped onto new markups
	ConfirmDiscard bool   `yaml:"confirm_discard"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// HistoryConfig bounds the undo/redo snapshot stacks.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries"`
	CoalesceMs int `yaml:"coalesce_ms"`
}

// InteractionConfig carries the pointer-interaction thresholds. Pixel values
// are screen pixels, independent of zoom.
type InteractionConfig struct {
	HitTolerancePx     float64 `yaml:"hit_tolerance_px"`
	ClosingThresholdPx float64 `yaml:"closing_threshold_px"`
	MinDrawSizePx      float64 `yaml:"min_draw_size_px"`
	RotationSnapDeg    float64 `yaml:"rotation_snap_deg"`
}

type AppConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	General       GeneralConfig     `yaml:"general"`
	Detector      DetectorConfig    `yaml:"detector"`
	Logging       LoggingConfig     `yaml:"logging"`
	History       HistoryConfig     `yaml:"history"`
	Interaction   InteractionConfig `yaml:"interaction"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Author: "", ConfirmDiscard: true},
		Detector:      DetectorConfig{BaseURL: "http://localhost:5000", TimeoutMs: 15000, TLSInsecure: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		History:       HistoryConfig{MaxEntries: 50, CoalesceMs: 250},
		Interaction: InteractionConfig{
			HitTolerancePx:     6,
			ClosingThresholdPx: 15,
			MinDrawSizePx:      4,
			RotationSnapDeg:    15,
		},
	}
}

// Env var names used as overrides.
const (
	EnvDetectorURL       = "RDL_DETECTOR_URL"
	EnvDetectorTimeoutMs = "RDL_DETECTOR_TIMEOUT_MS"
	EnvDetectorTLSInsec  = "RDL_TLS_INSECURE"
	EnvTelemetryOptIn    = "RDL_TELEMETRY_OPT_IN"
	EnvAuthor            = "RDL_AUTHOR"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "RDL_LOG_LEVEL"
	EnvLogFormat = "RDL_LOG_FORMAT"
	EnvLogSource = "RDL_LOG_SOURCE"
	EnvLogFile   = "RDL_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "Redline"
	keyringToken   = "detector_token"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (k *osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (k *osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Redline")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Redline")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "redline")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the detector token from keyring (not kept inside the struct; returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	// token from keyring
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.General.Author) != "" {
		dst.General.Author = src.General.Author
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.ConfirmDiscard = src.General.ConfirmDiscard
	if src.Detector.BaseURL != "" {
		dst.Detector.BaseURL = src.Detector.BaseURL
	}
	if src.Detector.TimeoutMs != 0 {
		dst.Detector.TimeoutMs = src.Detector.TimeoutMs
	}
	dst.Detector.TLSInsecure = src.Detector.TLSInsecure
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	// history
	if src.History.MaxEntries > 0 {
		dst.History.MaxEntries = src.History.MaxEntries
	}
	if src.History.CoalesceMs > 0 {
		dst.History.CoalesceMs = src.History.CoalesceMs
	}
	// interaction thresholds
	if src.Interaction.HitTolerancePx > 0 {
		dst.Interaction.HitTolerancePx = src.Interaction.HitTolerancePx
	}
	if src.Interaction.ClosingThresholdPx > 0 {
		dst.Interaction.ClosingThresholdPx = src.Interaction.ClosingThresholdPx
	}
	if src.Interaction.MinDrawSizePx > 0 {
		dst.Interaction.MinDrawSizePx = src.Interaction.MinDrawSizePx
	}
	if src.Interaction.RotationSnapDeg > 0 {
		dst.Interaction.RotationSnapDeg = src.Interaction.RotationSnapDeg
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDetectorURL)); v != "" {
		cfg.Detector.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDetectorTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Detector.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvDetectorTLSInsec)); v != "" {
		cfg.Detector.TLSInsecure = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAuthor)); v != "" {
		cfg.General.Author = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "detector.base_url":
		if os.Getenv(EnvDetectorURL) != "" {
			return EnvDetectorURL, true
		}
	case "detector.timeout_ms":
		if os.Getenv(EnvDetectorTimeoutMs) != "" {
			return EnvDetectorTimeoutMs, true
		}
	case "detector.tls_insecure":
		if os.Getenv(EnvDetectorTLSInsec) != "" {
			return EnvDetectorTLSInsec, true
		}
	case "general.telemetry_opt_in":
		if os.Getenv(EnvTelemetryOptIn) != "" {
			return EnvTelemetryOptIn, true
		}
	case "general.author":
		if os.Getenv(EnvAuthor) != "" {
			return EnvAuthor, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}

// EffectiveTimeout returns the detector timeout as a milliseconds string for http.Client setup.
func (d DetectorConfig) EffectiveTimeout() string {
	if d.TimeoutMs <= 0 {
		return fmt.Sprintf("%dms", Defaults().Detector.TimeoutMs)
	}
	return fmt.Sprintf("%dms", d.TimeoutMs)
}
