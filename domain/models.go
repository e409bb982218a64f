package domain

// PackageSpec is one conda recipe, loaded from a meta.yaml file.
type PackageSpec struct {
	Name        string
	Version     string
	BuildNumber int
	Source      SourceSpec
	// Requirement lists as written in the recipe. Names that also appear in
	// the loaded recipe set become in-graph edges; everything else is an
	// external dependency satisfied by the channel.
	BuildRequirements []string
	RunRequirements   []string
	TestImports       []string
	About             AboutSpec
	// ExtraFlags are passed through to the builder verbatim (e.g. a
	// per-package pin from the matrix overlay).
	ExtraFlags []string
	// RecipeDir is the directory containing the recipe's meta.yaml,
	// passed to the builder as the build target.
	RecipeDir string
}

// SourceSpec identifies where the package sources come from.
type SourceSpec struct {
	GitURL string
	GitTag string
}

// AboutSpec holds the recipe's descriptive metadata.
type AboutSpec struct {
	Home    string
	License string
	Summary string
}

// Requirements returns the union of build and run requirement names,
// preserving order and dropping duplicates.
func (s *PackageSpec) Requirements() []string {
	seen := make(map[string]bool, len(s.BuildRequirements)+len(s.RunRequirements))
	var result []string
	for _, list := range [][]string{s.BuildRequirements, s.RunRequirements} {
		for _, name := range list {
			if seen[name] {
				continue
			}
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}

// Status is the lifecycle state of a package within one run.
type Status int

const (
	StatusPending Status = iota
	StatusBuilding
	StatusSucceeded
	StatusFailed
	StatusUploading
	StatusUploaded
	StatusUploadFailed
	StatusSkipped
)

// String returns the lower-case status name used in logs and summaries.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusBuilding:
		return "building"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusUploading:
		return "uploading"
	case StatusUploaded:
		return "uploaded"
	case StatusUploadFailed:
		return "upload-failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// BuildResult is the per-package outcome of a run.
type BuildResult struct {
	Name   string
	Status Status
	// Log is the combined stdout/stderr of the build (and upload) commands.
	Log string
	// ArtifactPath is the built artifact location, set once the build succeeds.
	ArtifactPath string
	// Err holds the failure cause for failed, upload-failed, and skipped packages.
	Err error
}

// Failed reports whether the result should make the whole run exit non-zero.
func (r *BuildResult) Failed() bool {
	switch r.Status {
	case StatusFailed, StatusUploadFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// FlagSet is the effective option set for one run, derived from the
// configuration and the triggering branch. It is immutable after selection.
type FlagSet struct {
	Upload  bool
	Token   string
	Channel string
	NumPy   string
	DryRun  bool
}
