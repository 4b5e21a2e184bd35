package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"wb-content-manager/internal/media"
	"wb-content-manager/internal/model"
)

// localWalker enumerates a local directory tree. Local walks are cheap, so
// there is no early termination: the whole tree is visited and every match
// returned. Matched files are copied into the run's staging directory so the
// uploads read from a stable snapshot.
type localWalker struct {
	root       string
	stagingDir string
	logf       func(format string, args ...any)
}

func (w *localWalker) Enumerate(ctx context.Context, targetCodes []string) ([]model.FileDescriptor, error) {
	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrEnumeration, w.root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", model.ErrEnumeration, w.root)
	}
	if w.stagingDir != "" {
		if err := os.MkdirAll(w.stagingDir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: staging dir: %v", model.ErrEnumeration, err)
		}
	}

	var files []model.FileDescriptor
	err = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if !media.IsMedia(name) {
			return nil
		}
		match, result := media.Classify(name, targetCodes)
		switch result {
		case media.Matched:
			staged := w.stage(path, name)
			files = append(files, model.FileDescriptor{
				Name:        name,
				TreePath:    path,
				StagingPath: staged,
				VendorCode:  match.VendorCode,
				PhotoNumber: match.PhotoNumber,
			})
			w.logf("matched %s (code %s, photo %d)", name, match.VendorCode, match.PhotoNumber)
		case media.PatternMismatch:
			w.logf("file %s matches code %s but not the filename pattern", name, match.VendorCode)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk %s: %v", model.ErrEnumeration, w.root, err)
	}
	return files, nil
}

// stage copies one matched file into the staging directory. A failed copy is
// logged and the original path used instead, so a read-only staging problem
// does not lose the file.
func (w *localWalker) stage(path, name string) string {
	if w.stagingDir == "" {
		return path
	}
	dst := filepath.Join(w.stagingDir, name)
	if err := copyFile(path, dst); err != nil {
		w.logf("staging %s failed, using original path: %v", name, err)
		return path
	}
	return dst
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// singleFile enumerates exactly one local file.
type singleFile struct {
	path string
	logf func(format string, args ...any)
}

func (s *singleFile) Enumerate(ctx context.Context, targetCodes []string) ([]model.FileDescriptor, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrEnumeration, s.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory, not a file", model.ErrEnumeration, s.path)
	}
	name := filepath.Base(s.path)
	if !media.IsMedia(name) {
		return nil, fmt.Errorf("%w: %s is not a supported media file", model.ErrEnumeration, s.path)
	}
	match, result := media.Classify(name, targetCodes)
	if result != media.Matched {
		s.logf("file %s does not match any requested vendor code", name)
		return nil, nil
	}
	return []model.FileDescriptor{{
		Name:        name,
		TreePath:    s.path,
		StagingPath: s.path,
		VendorCode:  match.VendorCode,
		PhotoNumber: match.PhotoNumber,
	}}, nil
}
