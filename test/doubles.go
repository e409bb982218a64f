// Package testdoubles provides test doubles (spies, stubs, dummies) for domain
// interfaces. These are hand-crafted implementations, no mock frameworks.
package testdoubles

import (
	"context"
	"sync"

	"github.com/rios0rios0/condamatrix/domain"
)

// ---------------------------------------------------------------------------
// SpyBuilder
// ---------------------------------------------------------------------------

// SpyBuilder implements domain.Builder as a configurable spy.
// Configure the response fields for the packages your test exercises,
// then inspect the call-tracking fields to verify behavior.
type SpyBuilder struct {
	mu sync.Mutex

	// --- identity ---
	BuilderName string

	// --- Execute ---
	FailPackages map[string]error // package name -> error to return
	Delay        map[string]func() // package name -> hook run while "building"
	// spy: packages built, in dispatch order
	Built []string
	// spy: package name -> flag set it was built with
	FlagsSeen map[string]domain.FlagSet

	// --- OutputPath ---
	OutputPaths   map[string]string // package name -> artifact path
	OutputPathErr error

	// --- EnsureChannels ---
	EnsureChannelsErr error
	// spy: channels that were registered
	Channels []string
}

// NewSpyBuilder creates a spy that succeeds for every package.
func NewSpyBuilder() *SpyBuilder {
	return &SpyBuilder{
		BuilderName:  "spy",
		FailPackages: make(map[string]error),
		Delay:        make(map[string]func()),
		FlagsSeen:    make(map[string]domain.FlagSet),
		OutputPaths:  make(map[string]string),
	}
}

var _ domain.Builder = (*SpyBuilder)(nil)

func (s *SpyBuilder) Name() string { return s.BuilderName }

func (s *SpyBuilder) Execute(
	ctx context.Context,
	spec *domain.PackageSpec,
	flags domain.FlagSet,
) (*domain.BuildOutput, error) {
	s.mu.Lock()
	hook := s.Delay[spec.Name]
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Built = append(s.Built, spec.Name)
	s.FlagsSeen[spec.Name] = flags

	if err := s.FailPackages[spec.Name]; err != nil {
		return nil, err
	}
	path := s.OutputPaths[spec.Name]
	if path == "" {
		path = "/tmp/artifacts/" + spec.Name + ".tar.bz2"
	}
	return &domain.BuildOutput{
		Log:          "built " + spec.Name,
		ArtifactPath: path,
	}, nil
}

func (s *SpyBuilder) OutputPath(_ context.Context, spec *domain.PackageSpec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OutputPathErr != nil {
		return "", s.OutputPathErr
	}
	if path, ok := s.OutputPaths[spec.Name]; ok {
		return path, nil
	}
	return "/tmp/artifacts/" + spec.Name + ".tar.bz2", nil
}

func (s *SpyBuilder) EnsureChannels(_ context.Context, channels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Channels = append(s.Channels, channels...)
	return s.EnsureChannelsErr
}

// BuiltPackages returns a copy of the build order seen so far.
func (s *SpyBuilder) BuiltPackages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Built...)
}

// ---------------------------------------------------------------------------
// SpyUploader
// ---------------------------------------------------------------------------

// SpyUploader implements domain.Uploader as a configurable spy.
type SpyUploader struct {
	mu sync.Mutex

	FailPackages map[string]error // package name -> error to return
	// spy: packages uploaded, in order
	Uploaded []string
	// spy: artifact paths received
	ArtifactPaths map[string]string
}

// NewSpyUploader creates a spy that succeeds for every package.
func NewSpyUploader() *SpyUploader {
	return &SpyUploader{
		FailPackages:  make(map[string]error),
		ArtifactPaths: make(map[string]string),
	}
}

var _ domain.Uploader = (*SpyUploader)(nil)

func (s *SpyUploader) Upload(
	_ context.Context,
	spec *domain.PackageSpec,
	artifactPath string,
	_ domain.FlagSet,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Uploaded = append(s.Uploaded, spec.Name)
	s.ArtifactPaths[spec.Name] = artifactPath
	return s.FailPackages[spec.Name]
}

// UploadedPackages returns a copy of the upload order seen so far.
func (s *SpyUploader) UploadedPackages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Uploaded...)
}

// ---------------------------------------------------------------------------
// StubSourceResolver
// ---------------------------------------------------------------------------

// StubSourceResolver implements domain.SourceResolver with canned answers.
type StubSourceResolver struct {
	// Refs maps "url ref" to existence; unset keys report true so tests
	// that don't care about source validation pass through.
	Refs       map[string]bool
	RefErr     error
	LatestTags map[string]string // url -> tag
	LatestErr  error
}

var _ domain.SourceResolver = (*StubSourceResolver)(nil)

func (s *StubSourceResolver) HasRef(_ context.Context, url, ref string) (bool, error) {
	if s.RefErr != nil {
		return false, s.RefErr
	}
	if s.Refs == nil {
		return true, nil
	}
	exists, ok := s.Refs[url+" "+ref]
	if !ok {
		return true, nil
	}
	return exists, nil
}

func (s *StubSourceResolver) LatestTag(_ context.Context, url string) (string, error) {
	if s.LatestErr != nil {
		return "", s.LatestErr
	}
	return s.LatestTags[url], nil
}
