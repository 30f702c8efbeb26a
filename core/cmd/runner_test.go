package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/kitbot/core/config"
	coretelegram "github.com/m3rciful/kitbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct{ opts coretelegram.RunOptions }

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestRunRequiresLoaders(t *testing.T) {
	assert.Error(t, Run(Options{}))
	assert.Error(t, Run(Options{LoadConfig: func(string) (ConfigCarrier, error) { return nil, nil }}))
}

func TestRunUsesConfigPathFromEnv(t *testing.T) {
	t.Setenv("KITBOT_TEST_CONFIG", "/etc/kitbot.yaml")

	var gotPath string
	var started, stopped bool
	err := Run(Options{
		ConfigEnvVar:      "KITBOT_TEST_CONFIG",
		DefaultConfigPath: "config.yaml",
		EnvFile:           "-",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) {
			return app{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/etc/kitbot.yaml", gotPath)
	assert.True(t, started)
	assert.True(t, stopped)
}

func TestRunPropagatesBootstrapError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return nil, boom },
	})
	require.ErrorIs(t, err, boom)
}

func TestRunLoadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "bot.env")
	require.NoError(t, os.WriteFile(envFile, []byte("KITBOT_TEST_ENV_CONFIG=/from/dotenv.yaml\n"), 0o600))
	t.Setenv("KITBOT_TEST_ENV_CONFIG", "")
	require.NoError(t, os.Unsetenv("KITBOT_TEST_ENV_CONFIG"))

	var gotPath string
	err := Run(Options{
		ConfigEnvVar: "KITBOT_TEST_ENV_CONFIG",
		EnvFile:      envFile,
		LoadConfig: func(path string) (ConfigCarrier, error) {
			gotPath = path
			return nil, errors.New("stop")
		},
		Bootstrap: func(ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	require.Error(t, err)
	assert.Equal(t, "/from/dotenv.yaml", gotPath)
}
