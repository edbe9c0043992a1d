// Package artifact saves scenario screenshots to the verification directory
// and, when configured, mirrors them into an S3-compatible bucket.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/obs"
)

const contentTypePNG = "image/png"

// Artifact describes one saved screenshot.
type Artifact struct {
	Name      string
	Path      string
	ObjectKey string
	URL       string
}

// Store writes screenshots under a fixed directory. Names are fixed per
// step, so a rerun overwrites the previous run's files.
type Store struct {
	dir    string
	mirror *S3Sink
}

// NewStore creates a store rooted at dir. mirror may be nil.
func NewStore(dir string, mirror *S3Sink) *Store {
	return &Store{dir: dir, mirror: mirror}
}

// Dir returns the local verification directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the local path a screenshot name is written to.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save writes png to <dir>/<name> and mirrors it if a sink is configured.
func (s *Store) Save(ctx context.Context, name string, png []byte) (Artifact, error) {
	if err := validateName(name); err != nil {
		return Artifact{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Artifact{}, errs.Wrap(errs.Artifact, "create verification directory", err)
	}

	art := Artifact{Name: name, Path: s.Path(name)}
	if err := os.WriteFile(art.Path, png, 0o644); err != nil {
		return Artifact{}, errs.Wrap(errs.Artifact, "write "+art.Path, err)
	}

	if s.mirror != nil {
		key, err := s.mirror.Put(ctx, name, png, contentTypePNG)
		if err != nil {
			return Artifact{}, errs.Wrap(errs.Artifact, "mirror "+name, err)
		}
		art.ObjectKey = key
		art.URL = s.mirror.PublicURL(key)
		obs.From(ctx).Debug("screenshot_mirrored", "bucket", s.mirror.Bucket(), "object_key", key)
	}

	obs.From(ctx).Info("screenshot_saved", "name", name, "path", art.Path, "object_key", art.ObjectKey, "bytes", len(png))
	return art, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.New(errs.InvalidArgument, "empty screenshot name")
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return errs.New(errs.InvalidArgument, fmt.Sprintf("screenshot name %q must be a bare file name", name))
	}
	return nil
}
