// Package source answers questions about recipe upstreams without cloning.
package source

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"

	"github.com/rios0rios0/condamatrix/domain"
)

// Git implements domain.SourceResolver by listing remote references
// in memory (the equivalent of `git ls-remote`).
type Git struct{}

// NewGit creates the go-git backed source resolver.
func NewGit() *Git {
	return &Git{}
}

var _ domain.SourceResolver = (*Git)(nil)

// HasRef reports whether the remote has the given branch or tag.
func (g *Git) HasRef(ctx context.Context, url, ref string) (bool, error) {
	refs, err := listRemote(ctx, url)
	if err != nil {
		return false, err
	}

	for _, remoteRef := range refs {
		if refMatches(remoteRef, ref) {
			return true, nil
		}
	}
	return false, nil
}

// LatestTag returns the highest semantic-version tag on the remote.
func (g *Git) LatestTag(ctx context.Context, url string) (string, error) {
	refs, err := listRemote(ctx, url)
	if err != nil {
		return "", err
	}

	var tags []string
	for _, name := range refs {
		if tag, ok := strings.CutPrefix(name, "refs/tags/"); ok {
			// Skip peeled annotated-tag entries.
			if !strings.HasSuffix(tag, "^{}") {
				tags = append(tags, tag)
			}
		}
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("remote %q has no tags", url)
	}

	SortTagsDesc(tags)
	return tags[0], nil
}

func listRemote(ctx context.Context, url string) ([]string, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})

	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list remote %q: %w", url, err)
	}

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name().String())
	}
	logger.Debugf("Remote %q has %d refs", url, len(names))
	return names, nil
}

// refMatches reports whether the fully qualified remote ref name refers to
// the short branch or tag name the recipe pins.
func refMatches(remoteRef, ref string) bool {
	return remoteRef == plumbing.NewBranchReferenceName(ref).String() ||
		remoteRef == plumbing.NewTagReferenceName(ref).String()
}

// SortTagsDesc orders tags by semantic version descending; tags that are
// not valid semver sort after the valid ones, lexicographically descending.
func SortTagsDesc(tags []string) {
	sort.Slice(tags, func(i, j int) bool {
		v1 := normalizeVersion(tags[i])
		v2 := normalizeVersion(tags[j])
		if semver.IsValid(v1) && semver.IsValid(v2) {
			return semver.Compare(v1, v2) > 0
		}
		if semver.IsValid(v1) != semver.IsValid(v2) {
			return semver.IsValid(v1)
		}
		return tags[i] > tags[j]
	})
}

func normalizeVersion(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}
