package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

// DefaultConfigName is the base name of configuration files.
const DefaultConfigName = "blockstate"

// Loader allows to load configuration files from a file system.
type Loader struct {
	// configRootPath is a root path for the configuration file.
	// Typically, it's the current working directory.
	configRootPath fs.FS

	// configName is a name of the configuration file without extension.
	configName string

	// configTypes are tried in order; together with configName each forms
	// a candidate file name.
	configTypes []string

	logger *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithConfigTypes overrides the extensions tried, by default yaml, yml
// and toml.
func WithConfigTypes(types ...string) LoaderOption {
	return func(l *Loader) {
		l.configTypes = types
	}
}

func NewLoader(configName string, configRootPath fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		configRootPath: configRootPath,
		configName:     configName,
		configTypes:    []string{"yaml", "yml", "toml"},
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l
}

// configFullName returns the first existing config file name in dir.
func (l *Loader) configFullName(dir string) (string, error) {
	for _, typ := range l.configTypes {
		name := path.Join(dir, l.configName+"."+typ)
		_, err := fs.Stat(l.configRootPath, name)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", errors.WithStack(err)
		}
	}
	return "", nil
}

// RootConfig returns the configuration file found in the root directory.
func (l *Loader) RootConfig() (name string, data []byte, _ error) {
	name, err := l.configFullName(".")
	if err != nil {
		return "", nil, err
	}
	if name == "" {
		return "", nil, ErrRootConfigNotFound
	}
	data, err = fs.ReadFile(l.configRootPath, name)
	if err != nil {
		return "", nil, errors.WithStack(err)
	}
	return name, data, nil
}

// FindConfigChain returns the configuration files from the root directory
// down to the directory of target, outermost first.
func (l *Loader) FindConfigChain(target string) ([]string, error) {
	name, err := l.parsePath(target)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("finding config files on path", zap.String("name", name))

	var result []string

	rootName, err := l.configFullName(".")
	if err != nil {
		l.logger.Debug("failed to look up root configuration file", zap.Error(err))
		return nil, err
	}
	if rootName != "" {
		result = append(result, rootName)
	}

	// Split the path and iterate over the fragments to find nested configuration files.
	fragments := strings.Split(name, string(filepath.Separator))
	if len(fragments) > 0 && fragments[0] == "." {
		fragments = fragments[1:]
	}

	curDir := ""
	for _, fragment := range fragments {
		// Use [path.Join] instead of [filepath.Join] to support Windows paths.
		// It works well with [fs.FS].
		curDir = path.Join(curDir, fragment)

		configPath, err := l.configFullName(curDir)
		if err != nil {
			l.logger.Debug("failed to look up nested configuration file", zap.String("dir", curDir), zap.Error(err))
			return nil, err
		}
		if configPath != "" {
			result = append(result, configPath)
		}
	}

	l.logger.Debug("found config files on path", zap.String("name", name), zap.Strings("files", result))

	return result, nil
}

// Load parses the configuration chain of target on top of the defaults.
// Nested files override the keys they set. Without any file the defaults
// are returned.
func (l *Loader) Load(target string) (*Config, error) {
	files, err := l.FindConfigChain(target)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	for _, name := range files {
		format, err := FormatFromPath(name)
		if err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(l.configRootPath, name)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := ParseInto(cfg, data, format); err != nil {
			return nil, errors.WithMessagef(err, "config file %s", name)
		}
	}
	return cfg, nil
}

func (l *Loader) parsePath(name string) (string, error) {
	if name == "" {
		name = "."
	}

	info, err := fs.Stat(l.configRootPath, name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", name)
	}

	if info.IsDir() {
		return filepath.Clean(name), nil
	}
	return filepath.Dir(name), nil
}
