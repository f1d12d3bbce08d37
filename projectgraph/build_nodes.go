package projectgraph

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// BuildNodes creates one node per configured project and attributes files to
// nodes by longest-root-prefix. Files that match no root are left out.
func BuildNodes(projects map[string]ProjectConfiguration, files []FileData) (NodeRecords, error) {
	if len(projects) == 0 {
		return nil, ErrNoProjects
	}

	nodes := make(NodeRecords, len(projects))
	roots := make(map[string]string, len(projects))
	rootOwners := make(map[string]string, len(projects))

	for _, name := range sortedKeys(projects) {
		cfg := projects[name]
		if strings.TrimSpace(name) == "" {
			return nil, &ConfigError{Reason: "project name is empty"}
		}

		root, err := NormalizeRoot(cfg.Root)
		if err != nil {
			return nil, &ConfigError{Project: name, Reason: err.Error()}
		}
		if owner, exists := rootOwners[root]; exists {
			return nil, &ConfigError{
				Project: name,
				Reason:  fmt.Sprintf("root %q is already used by project %q", cfg.Root, owner),
			}
		}
		rootOwners[root] = name
		roots[name] = root

		projectType, err := resolveProjectType(name, cfg.ProjectType)
		if err != nil {
			return nil, &ConfigError{Project: name, Reason: err.Error()}
		}

		nodes[name] = ProjectNode{
			Name:                 name,
			Type:                 projectType,
			Root:                 root,
			Tags:                 cloneStrings(cfg.Tags),
			ImportPath:           cfg.ImportPath,
			ImplicitDependencies: slices.Clone(cfg.ImplicitDependencies),
			Targets:              cloneTargets(cfg.Targets),
			Files:                []FileData{},
		}
	}

	sortedFiles := slices.Clone(files)
	sort.SliceStable(sortedFiles, func(i, j int) bool {
		return sortedFiles[i].File < sortedFiles[j].File
	})

	index := NewRootIndex(roots)
	for _, file := range sortedFiles {
		owner, ok := index.ProjectForPath(file.File)
		if !ok {
			continue
		}
		node := nodes[owner]
		node.Files = append(node.Files, FileData{
			File: NormalizePath(file.File),
			Ext:  file.Ext,
			Hash: file.Hash,
		})
		nodes[owner] = node
	}

	return nodes, nil
}

func resolveProjectType(name string, configured ProjectType) (ProjectType, error) {
	switch configured {
	case ProjectTypeApplication:
		if strings.HasSuffix(name, "-e2e") {
			return ProjectTypeE2E, nil
		}
		return ProjectTypeApplication, nil
	case ProjectTypeLibrary, "":
		return ProjectTypeLibrary, nil
	case ProjectTypeE2E:
		return ProjectTypeE2E, nil
	default:
		return "", fmt.Errorf("unknown project type %q", configured)
	}
}

// FileMapFromNodes returns the project name to files mapping plugins consume.
func FileMapFromNodes(nodes NodeRecords) map[string][]FileData {
	fileMap := make(map[string][]FileData, len(nodes))
	for name, node := range nodes {
		fileMap[name] = slices.Clone(node.Files)
	}
	return fileMap
}

func cloneStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}
