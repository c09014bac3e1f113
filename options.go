package feather

import (
	"path/filepath"

	"github.com/jward/feather/internal/config"
	"github.com/jward/feather/internal/extract"
)

// ConfigOptions returns the engine options a project configuration asks
// for. root is the directory the configuration was loaded from; relative
// paths in cfg resolve against it.
func ConfigOptions(root string, cfg *config.Config) []Option {
	opts := []Option{
		WithFilter(cfg.Match),
		WithAssetKindResolver(func(path string) extract.AssetKind {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return DefaultAssetKind(path)
			}
			return extract.AssetKind(cfg.AssetKind(rel))
		}),
		WithDebounce(cfg.Watch.Debounce),
	}
	if cfg.Parallel > 0 {
		opts = append(opts, WithParallel(cfg.Parallel))
	}
	if cfg.Spec != "" {
		spec := cfg.Spec
		if !filepath.IsAbs(spec) {
			spec = filepath.Join(root, spec)
		}
		opts = append(opts, WithSpecFile(spec))
	}
	return opts
}
