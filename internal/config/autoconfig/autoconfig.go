// autoconfig provides a way to create various instances from the [config.Config] like
// [zap.Logger], [ulid.Generator], [metrics.Collector].
//
// For example, to instantiate [zap.Logger], you can write:
//
//	autoconfig.NewBuilder().Invoke(func(l *zap.Logger) error {
//	    ...
//	})
//
// Treat it as a dependency injection mechanism.
package autoconfig

import (
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/internal/config"
	"github.com/stateful/blockstate/internal/log"
	"github.com/stateful/blockstate/internal/metrics"
	"github.com/stateful/blockstate/internal/ulid"
	"github.com/stateful/blockstate/pkg/delta"
)

// Builder owns a dig container with the default providers registered.
// Any of them can be replaced with Decorate.
type Builder struct {
	container *dig.Container
}

func NewBuilder() *Builder {
	b := &Builder{container: dig.New()}

	mustProvide(b.container.Provide(getConfigLoader))
	mustProvide(b.container.Provide(getConfig))
	mustProvide(b.container.Provide(getLengthUnit))
	mustProvide(b.container.Provide(getLogger))
	mustProvide(b.container.Provide(getIDGenerator))
	mustProvide(b.container.Provide(getRegistry))
	mustProvide(b.container.Provide(getCollector))

	return b
}

// Decorate replaces a provided type with what decorator returns.
func (b *Builder) Decorate(decorator interface{}, opts ...dig.DecorateOption) error {
	return errors.WithStack(b.container.Decorate(decorator, opts...))
}

// Invoke is used to invoke the function with the given dependencies.
// The package will automatically figure out how to instantiate them
// using the available configuration.
func (b *Builder) Invoke(function interface{}, opts ...dig.InvokeOption) error {
	err := b.container.Invoke(function, opts...)
	return dig.RootCause(err)
}

func mustProvide(err error) {
	if err != nil {
		panic("failed to provide: " + err.Error())
	}
}

func getConfigLoader() (*config.Loader, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return config.NewLoader(config.DefaultConfigName, os.DirFS(cwd)), nil
}

func getConfig(loader *config.Loader) (*config.Config, error) {
	return loader.Load("")
}

func getLengthUnit(c *config.Config) (delta.Unit, error) {
	return delta.ParseUnit(c.Engine.LengthUnit)
}

// getLogger also installs the logger as the process-wide one.
func getLogger(c *config.Config) (*zap.Logger, error) {
	if c == nil {
		return zap.NewNop(), nil
	}
	if err := log.Set(c.Log); err != nil {
		return nil, err
	}
	return log.Get(), nil
}

func getIDGenerator(c *config.Config) (ulid.Generator, error) {
	return ulid.NewGenerator(c.Engine.IDStrategy)
}

func getRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// getCollector returns nil when metrics are disabled.
func getCollector(c *config.Config, reg *prometheus.Registry) *metrics.Collector {
	if !c.Metrics.Enabled {
		return nil
	}
	return metrics.NewCollector(reg, c.Metrics.Namespace)
}
