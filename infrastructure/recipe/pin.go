package recipe

import (
	"fmt"
	"os"
	"path/filepath"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/condamatrix/domain"
)

const recipeFileMode = 0o644

// PinBranch rewrites source.git_tag of the named recipe to the given branch,
// preserving the rest of the document. Recipes without a meta.yaml are left
// untouched; a missing source section is a malformed recipe.
func PinBranch(dir, name, branch string) error {
	path := filepath.Join(dir, name, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("Recipe %q has no %s, skipping branch pin", name, FileName)
			return nil
		}
		return &domain.UnreadableSourceError{Path: path, Err: err}
	}

	var doc yaml.Node
	if unmarshalErr := yaml.Unmarshal(data, &doc); unmarshalErr != nil {
		return &domain.MalformedSpecError{
			Path:   path,
			Reason: fmt.Sprintf("invalid YAML: %v", unmarshalErr),
		}
	}

	tag := findMappingValue(findMappingValue(documentRoot(&doc), "source"), "git_tag")
	if tag == nil {
		return &domain.MalformedSpecError{Path: path, Reason: "source.git_tag not found"}
	}
	if tag.Value == branch {
		return nil
	}

	logger.Infof("Pinning %s source.git_tag: %s -> %s", name, tag.Value, branch)
	tag.SetString(branch)

	updated, marshalErr := yaml.Marshal(&doc)
	if marshalErr != nil {
		return fmt.Errorf("failed to re-encode %q: %w", path, marshalErr)
	}

	if writeErr := os.WriteFile(path, updated, recipeFileMode); writeErr != nil {
		return fmt.Errorf("failed to write %q: %w", path, writeErr)
	}
	return nil
}

// documentRoot unwraps the yaml document node to its top-level mapping.
func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

// findMappingValue returns the value node for the given key of a mapping
// node, or nil.
func findMappingValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
