package autoconfig

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stateful/blockstate/internal/config"
	"github.com/stateful/blockstate/internal/metrics"
	"github.com/stateful/blockstate/internal/ulid"
	"github.com/stateful/blockstate/pkg/delta"
)

func decorateLoader(t *testing.T, builder *Builder, rawConfig string) {
	t.Helper()

	configRootFS := fstest.MapFS{
		"blockstate.yaml": {Data: []byte(rawConfig)},
	}
	err := builder.Decorate(
		func() (*config.Loader, error) {
			return config.NewLoader(config.DefaultConfigName, configRootFS), nil
		},
	)
	require.NoError(t, err)
}

func TestInvoke_Config(t *testing.T) {
	builder := NewBuilder()
	decorateLoader(t, builder, "engine:\n  length_unit: grapheme\n  id_strategy: uuid\n")

	err := builder.Invoke(func(cfg *config.Config, unit delta.Unit, gen ulid.Generator) error {
		assert.Equal(t, "grapheme", cfg.Engine.LengthUnit)
		assert.Equal(t, delta.UnitGrapheme, unit)
		assert.Len(t, gen(4), 36)
		return nil
	})
	require.NoError(t, err)
}

func TestInvoke_InvalidConfig(t *testing.T) {
	builder := NewBuilder()
	decorateLoader(t, builder, "engine:\n  id_strategy: random\n")

	err := builder.Invoke(func(*config.Config) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to validate config")
}

func TestInvoke_Metrics(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		builder := NewBuilder()
		decorateLoader(t, builder, "")

		err := builder.Invoke(func(c *metrics.Collector, logger *zap.Logger) error {
			assert.Nil(t, c)
			assert.NotNil(t, logger)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("enabled", func(t *testing.T) {
		builder := NewBuilder()
		decorateLoader(t, builder, "metrics:\n  enabled: true\n  namespace: test\n")

		err := builder.Invoke(func(c *metrics.Collector) error {
			require.NotNil(t, c)
			c.RecordFailure("")
			return nil
		})
		require.NoError(t, err)
	})
}

func TestInvoke_DecorateConfig(t *testing.T) {
	builder := NewBuilder()
	err := builder.Decorate(func(cfg *config.Config) *config.Config {
		c := *cfg
		c.Log.Enabled = true
		c.Log.Level = "debug"
		return &c
	})
	require.NoError(t, err)

	decorateLoader(t, builder, "")

	err = builder.Invoke(func(logger *zap.Logger) error {
		assert.True(t, logger.Core().Enabled(zap.DebugLevel))
		return nil
	})
	require.NoError(t, err)
}
