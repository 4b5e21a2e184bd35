// Package source models where a run's media files come from: a remote public
// share, a local directory tree, or one local file. The choice is made once
// from the user's inputs and dispatched as a tagged value.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wb-content-manager/internal/model"
)

// Kind tags the enumeration backend.
type Kind int

const (
	RemoteShare Kind = iota
	LocalDir
	SingleFile
)

func (k Kind) String() string {
	switch k {
	case RemoteShare:
		return "remote-share"
	case LocalDir:
		return "local-dir"
	case SingleFile:
		return "single-file"
	}
	return "unknown"
}

// shareHostMarker must appear in every remote root locator.
const shareHostMarker = "disk.yandex.ru/d/"

// Source is the validated origin of a run's files.
type Source struct {
	Kind  Kind
	Roots []string // RemoteShare only
	Path  string   // LocalDir / SingleFile only
}

// FromInputs validates the raw user inputs and builds the tagged source.
// Remote roots come comma-separated and must all point at the public share
// host; a local path must be absolute. Exactly one of the two inputs is used,
// selected by useLocal.
func FromInputs(rootsCSV, localPath string, useLocal bool) (Source, error) {
	if useLocal {
		localPath = strings.TrimSpace(localPath)
		if localPath == "" {
			return Source{}, fmt.Errorf("%w: local source path is empty", model.ErrValidation)
		}
		if !filepath.IsAbs(localPath) {
			return Source{}, fmt.Errorf("%w: local source path %q is not absolute", model.ErrValidation, localPath)
		}
		kind := LocalDir
		if info, err := os.Stat(localPath); err == nil && !info.IsDir() {
			kind = SingleFile
		}
		return Source{Kind: kind, Path: localPath}, nil
	}

	var roots []string
	for _, part := range strings.Split(rootsCSV, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, shareHostMarker) {
			return Source{}, fmt.Errorf("%w: %q is not a public share link", model.ErrValidation, part)
		}
		roots = append(roots, part)
	}
	if len(roots) == 0 {
		return Source{}, fmt.Errorf("%w: no remote share links given", model.ErrValidation)
	}
	return Source{Kind: RemoteShare, Roots: roots}, nil
}
