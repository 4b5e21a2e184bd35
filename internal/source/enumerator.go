package source

import (
	"context"
	"fmt"

	"wb-content-manager/internal/model"
	"wb-content-manager/internal/share"
)

// Enumerator produces the matched file descriptors for a set of vendor codes.
type Enumerator interface {
	Enumerate(ctx context.Context, targetCodes []string) ([]model.FileDescriptor, error)
}

// Options configure the backend built for a source.
type Options struct {
	// StagingDir receives copies of matched local files. Empty disables
	// staging; descriptors then point at the originals.
	StagingDir string
	// Share configures the remote listing client.
	Share share.Options
	Logf  func(format string, args ...any)
}

// NewEnumerator dispatches the tagged source to its backend once, at run
// start.
func NewEnumerator(src Source, opts Options) (Enumerator, error) {
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	switch src.Kind {
	case RemoteShare:
		shareOpts := opts.Share
		if shareOpts.Logf == nil {
			shareOpts.Logf = logf
		}
		return share.New(src.Roots, shareOpts), nil
	case LocalDir:
		return &localWalker{root: src.Path, stagingDir: opts.StagingDir, logf: logf}, nil
	case SingleFile:
		return &singleFile{path: src.Path, logf: logf}, nil
	}
	return nil, fmt.Errorf("unknown source kind %d", src.Kind)
}
