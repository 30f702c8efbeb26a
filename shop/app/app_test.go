package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/kitbot/core/telegram"
	"github.com/m3rciful/kitbot/core/telegram/teletest"
	"github.com/m3rciful/kitbot/shop/catalog"
	"github.com/m3rciful/kitbot/shop/conversation"
	"github.com/m3rciful/kitbot/shop/menu"
)

func testConfig(t *testing.T, source, path string) *Config {
	t.Helper()
	var cfg Config
	cfg.Telegram.Token = "test-token"
	cfg.Catalog.Source = source
	cfg.Catalog.Path = path
	require.NoError(t, Normalize(&cfg))
	return &cfg
}

func TestNewWithStaticCatalog(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, SourceStatic, ""), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, a.Catalog.Len())
	assert.Equal(t, 3, a.Catalog.VariantCount())
	assert.True(t, a.Catalog.Sealed())
	assert.Equal(t, []string{"Foo", "Product #1", menu.ActionShowSelections, menu.ActionConfirm},
		a.Registry.Screen(conversation.Main()).Menu.Actions())
	assert.Same(t, a.Registry, a.Machine.Registry())
}

func TestNewWithYAMLCatalog(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
products:
  - name: Tea
    variants:
      - name: Green
        description: Sencha
        price: 350
`)
	a, err := New(context.Background(), testConfig(t, SourceYAML, path), nil)
	require.NoError(t, err)
	v, err := a.Catalog.Variant("Tea", "Green")
	require.NoError(t, err)
	assert.EqualValues(t, 350, v.Price())
}

func TestNewPostgresRequiresDB(t *testing.T) {
	cfg := testConfig(t, SourceStatic, "")
	cfg.Catalog.Source = SourcePostgres
	_, err := New(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrNoDatabase)
}

func TestBuildStopsOnLoaderError(t *testing.T) {
	boom := errors.New("catalog source unavailable")
	loader := catalog.LoaderFunc(func(ctx context.Context, dst *catalog.Catalog) error {
		return boom
	})
	_, err := build(context.Background(), testConfig(t, SourceStatic, ""), nil, loader)
	require.ErrorIs(t, err, boom)
}

func TestBuildUsesLoader(t *testing.T) {
	loader := catalog.LoaderFunc(func(ctx context.Context, dst *catalog.Catalog) error {
		return catalog.StaticLoader{Products: []catalog.ProductSpec{
			{Name: "Tea", Variants: []catalog.VariantSpec{{Name: "Green", Price: 300}}},
		}}.Load(ctx, dst)
	})
	a, err := build(context.Background(), testConfig(t, SourceStatic, ""), nil, loader)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Catalog.Len())
	assert.True(t, a.Catalog.Sealed())
}

func TestNewRejectsBrokenCatalog(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
products:
  - name: "Bad~Name"
`)
	_, err := New(context.Background(), testConfig(t, SourceYAML, path), nil)
	require.Error(t, err)
}

func TestTelegramRunOptions(t *testing.T) {
	a, err := New(context.Background(), testConfig(t, SourceStatic, ""), nil)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	// five commands, free text, button presses
	require.Len(t, opts.Routes, 7)
	assert.Same(t, &a.cfg.Config, opts.Config)
	assert.Len(t, opts.Registry.ListCommands(true), 4)

	var text, press tele.HandlerFunc
	for _, r := range opts.Routes {
		switch r.Endpoint {
		case tele.OnText:
			text = r.Handler
		case tele.OnCallback:
			press = r.Handler
		}
	}
	require.NotNil(t, text)
	require.NotNil(t, press)

	msg := teletest.NewMessage(5, "hello")
	require.NoError(t, text(msg))
	last, ok := msg.Last()
	require.True(t, ok)
	assert.Equal(t, menu.MainTitle, last.Text)

	cb := teletest.NewCallback(5, "Foo")
	require.NoError(t, press(cb))
	sent := cb.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "respond", sent[0].Method)
	assert.Equal(t, "Foo", sent[1].Text)

	require.NoError(t, opts.OnStop(context.Background(), coretelegram.Runtime{}))
}

func TestExampleCatalogMatchesStatic(t *testing.T) {
	fromFile, err := New(context.Background(), testConfig(t, SourceYAML, "../../catalog.example.yaml"), nil)
	require.NoError(t, err)
	static, err := New(context.Background(), testConfig(t, SourceStatic, ""), nil)
	require.NoError(t, err)

	assert.Equal(t, static.Registry.Entries(), fromFile.Registry.Entries())
}
