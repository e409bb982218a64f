// Package recipe loads conda recipes (meta.yaml files) into package specs.
package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/condamatrix/domain"
)

// FileName is the recipe file looked up inside each recipe directory.
const FileName = "meta.yaml"

// metaYAML mirrors the subset of the conda recipe format this tool reads.
// The exact grammar is conda-build's concern; unknown keys are ignored.
type metaYAML struct {
	Package struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"package"`
	Source struct {
		GitURL string `yaml:"git_url"`
		GitTag string `yaml:"git_tag"`
	} `yaml:"source"`
	Build struct {
		Number int `yaml:"number"`
	} `yaml:"build"`
	Requirements struct {
		Build []string `yaml:"build"`
		Run   []string `yaml:"run"`
	} `yaml:"requirements"`
	Test struct {
		Imports []string `yaml:"imports"`
	} `yaml:"test"`
	About struct {
		Home    string `yaml:"home"`
		License string `yaml:"license"`
		Summary string `yaml:"summary"`
	} `yaml:"about"`
}

// Load reads one meta.yaml into a package spec. It fails with
// *domain.UnreadableSourceError when the file cannot be read and with
// *domain.MalformedSpecError when required fields are absent.
func Load(path string) (*domain.PackageSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.UnreadableSourceError{Path: path, Err: err}
	}

	var meta metaYAML
	if unmarshalErr := yaml.Unmarshal(data, &meta); unmarshalErr != nil {
		return nil, &domain.MalformedSpecError{
			Path:   path,
			Reason: fmt.Sprintf("invalid YAML: %v", unmarshalErr),
		}
	}

	if meta.Package.Name == "" {
		return nil, &domain.MalformedSpecError{Path: path, Reason: "package.name is required"}
	}
	if meta.Package.Version == "" {
		return nil, &domain.MalformedSpecError{Path: path, Reason: "package.version is required"}
	}
	if meta.Source.GitURL == "" {
		return nil, &domain.MalformedSpecError{Path: path, Reason: "source.git_url is required"}
	}

	return &domain.PackageSpec{
		Name:              meta.Package.Name,
		Version:           meta.Package.Version,
		BuildNumber:       meta.Build.Number,
		Source:            domain.SourceSpec{GitURL: meta.Source.GitURL, GitTag: meta.Source.GitTag},
		BuildRequirements: meta.Requirements.Build,
		RunRequirements:   meta.Requirements.Run,
		TestImports:       meta.Test.Imports,
		About: domain.AboutSpec{
			Home:    meta.About.Home,
			License: meta.About.License,
			Summary: meta.About.Summary,
		},
		RecipeDir: filepath.Dir(path),
	}, nil
}

// Discover scans dir for <name>/meta.yaml recipes and loads each one.
// Subdirectories without a meta.yaml are skipped silently (the recipes
// directory commonly holds scripts and patches too). The result is sorted
// by package name.
func Discover(dir string) ([]*domain.PackageSpec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.UnreadableSourceError{Path: dir, Err: err}
	}

	var specs []*domain.PackageSpec
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), FileName)
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}

		spec, loadErr := Load(path)
		if loadErr != nil {
			return nil, loadErr
		}
		logger.Debugf("Loaded recipe %q (version %s, build %d)",
			spec.Name, spec.Version, spec.BuildNumber)
		specs = append(specs, spec)
	}

	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs, nil
}
