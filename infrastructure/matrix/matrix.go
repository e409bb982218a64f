// Package matrix reads the optional build-matrix overlay file (matrix.hcl)
// with per-package overrides layered over the discovered recipe set.
package matrix

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	logger "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"

	"github.com/rios0rios0/condamatrix/domain"
)

// Overlay holds the parsed matrix file.
type Overlay struct {
	// Defaults apply to the whole run unless the run options already set them.
	Defaults Defaults
	// Packages maps package name to its overrides.
	Packages map[string]PackageOverride
}

// Defaults are run-wide fallbacks.
type Defaults struct {
	NumPy string
}

// PackageOverride adjusts one package of the matrix.
type PackageOverride struct {
	// Branch overrides the recipe's source.git_tag for this run.
	Branch string
	// NumPy pins the numpy version for this package only.
	NumPy string
	// Skip removes the package from the run entirely.
	Skip bool
	// ExtraFlags are passed to the builder verbatim.
	ExtraFlags []string
}

// Load parses a matrix.hcl file. A missing file is not an error: builds
// without a matrix run on the recipe set as discovered.
func Load(path string) (*Overlay, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Overlay{Packages: map[string]PackageOverride{}}, nil
		}
		return nil, fmt.Errorf("failed to read matrix file %q: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse matrix file: %s", diags.Error())
	}

	bodyContent, _, partialDiags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "defaults"},
			{Type: "package", LabelNames: []string{"name"}},
		},
	})
	if partialDiags.HasErrors() {
		return nil, fmt.Errorf("invalid matrix file: %s", partialDiags.Error())
	}

	overlay := &Overlay{Packages: map[string]PackageOverride{}}
	for _, block := range bodyContent.Blocks {
		switch block.Type {
		case "defaults":
			attrs, _ := block.Body.JustAttributes()
			overlay.Defaults.NumPy = stringAttr(attrs, "numpy")
		case "package":
			if len(block.Labels) == 0 {
				continue
			}
			name := block.Labels[0]
			attrs, _ := block.Body.JustAttributes()
			overlay.Packages[name] = PackageOverride{
				Branch:     stringAttr(attrs, "branch"),
				NumPy:      stringAttr(attrs, "numpy"),
				Skip:       boolAttr(attrs, "skip"),
				ExtraFlags: stringListAttr(attrs, "extra_flags"),
			}
		}
	}
	return overlay, nil
}

// Apply layers the overlay onto the discovered specs and returns the
// effective set. Skipped packages are removed; their dependents then treat
// them as external requirements satisfied by the channel.
func (o *Overlay) Apply(specs []*domain.PackageSpec) []*domain.PackageSpec {
	result := make([]*domain.PackageSpec, 0, len(specs))
	for _, spec := range specs {
		override, ok := o.Packages[spec.Name]
		if !ok {
			result = append(result, spec)
			continue
		}
		if override.Skip {
			logger.Infof("Matrix overlay skips %q", spec.Name)
			continue
		}
		if override.Branch != "" {
			spec.Source.GitTag = override.Branch
		}
		if override.NumPy != "" {
			spec.ExtraFlags = append(spec.ExtraFlags, "--numpy", override.NumPy)
		}
		spec.ExtraFlags = append(spec.ExtraFlags, override.ExtraFlags...)
		result = append(result, spec)
	}
	return result
}

func stringAttr(attrs hcl.Attributes, name string) string {
	attr, ok := attrs[name]
	if !ok {
		return ""
	}
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() || val.Type() != cty.String {
		return ""
	}
	return val.AsString()
}

func boolAttr(attrs hcl.Attributes, name string) bool {
	attr, ok := attrs[name]
	if !ok {
		return false
	}
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() || val.Type() != cty.Bool {
		return false
	}
	return val.True()
}

func stringListAttr(attrs hcl.Attributes, name string) []string {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	val, diags := attr.Expr.Value(&hcl.EvalContext{})
	if diags.HasErrors() || !val.CanIterateElements() {
		return nil
	}
	var result []string
	for it := val.ElementIterator(); it.Next(); {
		_, element := it.Element()
		if element.Type() == cty.String {
			result = append(result, element.AsString())
		}
	}
	return result
}
