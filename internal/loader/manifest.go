// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package loader discovers Lua plugin libraries on disk and exposes them to
// the dispatcher as NPAPI modules.
package loader

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.yaml"

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	MIMETypes   []string `yaml:"mime-types" json:"mime-types"`
	Entry       string   `yaml:"entry" json:"entry"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, oops.Code(CodeInvalidManifest).Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code(CodeInvalidManifest).Wrapf(err, "invalid YAML")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	errb := oops.Code(CodeInvalidManifest).With("plugin", m.Name)

	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return errb.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return errb.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return errb.Errorf("version is required")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return errb.With("version", m.Version).Wrapf(err, "version must be strict semver")
	}

	if m.Entry == "" {
		return errb.Errorf("entry is required")
	}
	if !strings.HasSuffix(m.Entry, ".lua") {
		return errb.With("entry", m.Entry).Errorf("entry must be a .lua file")
	}

	if len(m.MIMETypes) == 0 {
		return errb.Errorf("at least one mime type is required")
	}
	if _, err := compileMIMEPatterns(m.MIMETypes); err != nil {
		return errb.Wrap(err)
	}

	return nil
}

// SemVer returns the parsed manifest version.
func (m *Manifest) SemVer() (*semver.Version, error) {
	v, err := semver.StrictNewVersion(m.Version)
	if err != nil {
		return nil, oops.Code(CodeInvalidManifest).With("plugin", m.Name).Wrap(err)
	}
	return v, nil
}

func compileMIMEPatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			return nil, oops.Errorf("mime type pattern must not be empty")
		}
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, oops.With("pattern", p).Wrapf(err, "invalid mime type pattern")
		}
		globs = append(globs, g)
	}
	return globs, nil
}
