package catalog

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// FileSource reads a catalog from a YAML or JSON file.
type FileSource struct {
	Path string
}

func (f FileSource) Name() string { return "file:" + f.Path }

func (f FileSource) Load(context.Context) (*Catalog, error) {
	return LoadFile(f.Path)
}

// LoadFile reads a catalog file; the format follows the file extension.
func LoadFile(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Catalog, error) {
	c := &Catalog{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return c, nil
}

// Watch reloads the store whenever the catalog file changes. Invalid files
// are logged and ignored so the last good catalog keeps serving.
func Watch(path string, store *Store, logger zerolog.Logger) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("catalog watch: initial read failed")
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		// Re-read from disk: viper keeps its previous settings when the new
		// content fails to parse.
		c, err := store.Reload(context.Background(), FileSource{Path: path})
		if err != nil {
			logger.Error().Err(err).Str("path", e.Name).Msg("catalog reload rejected")
			return
		}
		logger.Info().Str("path", e.Name).Str("version", c.Version).Msg("catalog reloaded")
	})
	v.WatchConfig()
}
