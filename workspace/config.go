// Package workspace loads the inputs of a graph build from a workspace
// directory: the project configuration, import aliases and the file list.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the workspace configuration file at the workspace root.
const ConfigFileName = "workgraph.yaml"

var validate = validator.New()

// Config is the parsed workspace configuration file.
type Config struct {
	NpmScope string                   `yaml:"npmScope" validate:"omitempty,excludesall=@/"`
	TSConfig string                   `yaml:"tsConfig"`
	Paths    map[string][]string      `yaml:"paths"`
	Projects map[string]ProjectConfig `yaml:"projects" validate:"required,min=1"`
}

// ProjectConfig is one entry of the projects section.
type ProjectConfig struct {
	Root                 string                         `yaml:"root" validate:"required"`
	ProjectType          string                         `yaml:"projectType" validate:"omitempty,oneof=application library e2e"`
	Tags                 []string                       `yaml:"tags" validate:"dive,required"`
	ImplicitDependencies []string                       `yaml:"implicitDependencies" validate:"dive,required"`
	ImportPath           string                         `yaml:"importPath"`
	Targets              map[string]projectgraph.Target `yaml:"targets"`
}

// LoadConfig reads and validates the configuration file of the workspace at root.
func LoadConfig(root string) (*Config, error) {
	configPath := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace configuration: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	if cfg.TSConfig != "" {
		aliases, err := readTSConfigPaths(root, cfg.TSConfig)
		if err != nil {
			return nil, err
		}
		cfg.Paths = mergePaths(aliases, cfg.Paths)
	}
	return cfg, nil
}

// ParseConfig parses and validates configuration file content.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &projectgraph.ConfigError{Reason: fmt.Sprintf("malformed %s: %v", ConfigFileName, err)}
	}
	if len(cfg.Projects) == 0 {
		return nil, projectgraph.ErrNoProjects
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.normalizeTargetOptions(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalizeTargetOptions rewrites target options into the value types JSON
// decoding produces, so a graph built here equals one read back from the
// daemon: numbers become float64, mappings map[string]any.
func (c *Config) normalizeTargetOptions() error {
	for name, project := range c.Projects {
		for targetName, target := range project.Targets {
			if target.Options == nil {
				continue
			}
			data, err := json.Marshal(target.Options)
			if err != nil {
				return &projectgraph.ConfigError{
					Project: name,
					Reason:  fmt.Sprintf("target %q has options that are not JSON compatible: %v", targetName, err),
				}
			}
			var options map[string]any
			if err := json.Unmarshal(data, &options); err != nil {
				return &projectgraph.ConfigError{Project: name, Reason: fmt.Sprintf("target %q: %v", targetName, err)}
			}
			target.Options = options
			project.Targets[targetName] = target
		}
	}
	return nil
}

// Validate checks field constraints and root layout. Failures are reported as
// *projectgraph.ConfigError naming the offending project when there is one.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	owners := make(map[string]string, len(c.Projects))
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return &projectgraph.ConfigError{Reason: "project name is empty"}
		}
		if err := validate.Struct(c.Projects[name]); err != nil {
			cfgErr := formatValidationError(err)
			cfgErr.Project = name
			return cfgErr
		}

		root, err := projectgraph.NormalizeRoot(c.Projects[name].Root)
		if err != nil {
			return &projectgraph.ConfigError{Project: name, Reason: err.Error()}
		}
		if owner, ok := owners[root]; ok {
			return &projectgraph.ConfigError{
				Project: name,
				Reason:  fmt.Sprintf("root %q is already used by project %q", c.Projects[name].Root, owner),
			}
		}
		owners[root] = name
	}
	return nil
}

func formatValidationError(err error) *projectgraph.ConfigError {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &projectgraph.ConfigError{Reason: err.Error()}
	}

	e := validationErrs[0]
	field := e.Field()
	switch e.Tag() {
	case "required":
		return &projectgraph.ConfigError{Reason: fmt.Sprintf("%s: field is required", field)}
	case "min":
		return &projectgraph.ConfigError{Reason: fmt.Sprintf("%s: must have at least %s entries", field, e.Param())}
	case "oneof":
		return &projectgraph.ConfigError{Reason: fmt.Sprintf("%s: must be one of %s", field, strings.ReplaceAll(e.Param(), " ", ", "))}
	case "excludesall":
		return &projectgraph.ConfigError{Reason: fmt.Sprintf("%s: must not contain any of %q", field, e.Param())}
	default:
		return &projectgraph.ConfigError{Reason: fmt.Sprintf("%s: validation failed (%s)", field, e.Tag())}
	}
}

// ProjectConfigurations converts the projects section into builder input.
func (c *Config) ProjectConfigurations() map[string]projectgraph.ProjectConfiguration {
	projects := make(map[string]projectgraph.ProjectConfiguration, len(c.Projects))
	for name, p := range c.Projects {
		projects[name] = projectgraph.ProjectConfiguration{
			Root:                 p.Root,
			ProjectType:          projectgraph.ProjectType(p.ProjectType),
			Tags:                 p.Tags,
			ImportPath:           p.ImportPath,
			ImplicitDependencies: p.ImplicitDependencies,
			Targets:              p.Targets,
		}
	}
	return projects
}

// Scope returns the workspace import metadata.
func (c *Config) Scope() projectgraph.WorkspaceScope {
	return projectgraph.WorkspaceScope{NpmScope: c.NpmScope, Paths: c.Paths}
}
