package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Run_ReturnsRunError(t *testing.T) {
	app := New()

	err := app.Run(context.Background(), func(ctx context.Context) error {
		return errors.New("listen failed")
	})
	assert.ErrorContains(t, err, "listen failed")
}

func TestApp_Run_NilErrorCompletes(t *testing.T) {
	app := New()

	err := app.Run(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestApp_ShutdownHooksRunInReverseOrder(t *testing.T) {
	app := New()

	var order []string
	app.AddShutdownHook("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	app.AddShutdownHook("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := app.Run(ctx, func(ctx context.Context) error {
		// never returns, shutdown is driven by the cancelled context
		select {}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestApp_ShutdownCollectsHookErrors(t *testing.T) {
	app := New()

	hookErr := errors.New("close failed")
	app.AddShutdownHook("db", func(ctx context.Context) error { return hookErr })
	app.AddShutdownHook("server", func(ctx context.Context) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := app.Run(ctx, func(ctx context.Context) error { select {} })
	assert.ErrorIs(t, err, hookErr)
}
