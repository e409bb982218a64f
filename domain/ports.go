package domain

import "context"

// Builder abstracts the external build tool (conda build). A single
// implementation is shared by all workers; implementations must be safe
// for concurrent use.
type Builder interface {
	// Name returns the builder identifier (e.g. "conda").
	Name() string

	// Execute builds one recipe and returns the captured command output.
	// A non-zero exit from the underlying tool is reported as *BuildError.
	Execute(ctx context.Context, spec *PackageSpec, flags FlagSet) (*BuildOutput, error)

	// OutputPath resolves the artifact path the build will produce,
	// without building (conda build --output).
	OutputPath(ctx context.Context, spec *PackageSpec) (string, error)

	// EnsureChannels registers the given channels with the build tool so
	// external requirements resolve during builds.
	EnsureChannels(ctx context.Context, channels []string) error
}

// BuildOutput is the captured outcome of one builder invocation.
type BuildOutput struct {
	// Log is the combined stdout/stderr of the command.
	Log string
	// ArtifactPath is where the built package landed.
	ArtifactPath string
}

// Uploader abstracts the artifact distribution channel (anaconda/binstar).
// Implementations must never log or echo the credential.
type Uploader interface {
	// Upload pushes one built artifact to the channel in flags.
	Upload(ctx context.Context, spec *PackageSpec, artifactPath string, flags FlagSet) error
}

// SourceResolver answers questions about a recipe's upstream git source
// without cloning it.
type SourceResolver interface {
	// HasRef reports whether the remote has the given branch or tag.
	HasRef(ctx context.Context, url, ref string) (bool, error)

	// LatestTag returns the highest semantic-version tag on the remote.
	LatestTag(ctx context.Context, url string) (string, error)
}
