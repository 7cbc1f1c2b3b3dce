package warp10

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
	"github.com/dropDatabas3/warp10-fixture/internal/instance"
	"github.com/dropDatabas3/warp10-fixture/internal/instance/instancetest"
	"github.com/dropDatabas3/warp10-fixture/internal/mint"
)

func TestRenderTokenScript(t *testing.T) {
	script, err := RenderTokenScript("test", DefaultTokenValidity)
	require.NoError(t, err)

	s := string(script)
	assert.Contains(t, s, "'test' 'app' STORE")
	assert.Contains(t, s, "$issuance 31536000000 +")
	assert.Contains(t, s, "'id' 'ReadToken'")
	assert.Contains(t, s, "'id' 'WriteToken'")
	assert.Equal(t, 2, strings.Count(s, "TOKENGEN"))
	assert.NotContains(t, s, "{{")

	for _, bad := range []string{"", "it's", "a b", "-lead", "x\ny"} {
		_, err := RenderTokenScript(bad, time.Hour)
		assert.Error(t, err, "%q", bad)
	}
	_, err = RenderTokenScript("test", 0)
	assert.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	o := defaultOptions()
	require.NoError(t, o.validate())
	assert.Equal(t, "warp10io/warp10:3.4.1-ubuntu-ci", o.imageRef())

	for name, opt := range map[string]Option{
		"empty tag":      WithTag(""),
		"bad app":        WithAppName("no'quotes"),
		"zero validity":  WithTokenValidity(0),
		"zero timeout":   WithStartupTimeout(0),
		"missing macros": WithMacros(filepath.Join(t.TempDir(), "nope")),
		"no user":        WithServiceUser(" "),
	} {
		o := defaultOptions()
		opt(o)
		assert.Error(t, o.validate(), name)
	}

	file := filepath.Join(t.TempDir(), "f.conf")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	o = defaultOptions()
	WithConfigOverrides(file)(o)
	assert.ErrorContains(t, o.validate(), "not a directory")
}

func TestOptions_ResolveProfile(t *testing.T) {
	o := defaultOptions()
	assert.Equal(t, "current", o.resolveProfile().Name)

	WithTag("2.7.5")(o)
	assert.Equal(t, "legacy", o.resolveProfile().Name)

	WithProfile(CurrentProfile())(o)
	assert.Equal(t, "current", o.resolveProfile().Name)
}

func TestBootstrapConfig(t *testing.T) {
	o := defaultOptions()
	WithServiceUser("svc")(o)

	c := &Container{profile: o.resolveProfile(), id: "x"}
	cfg, err := c.bootstrapConfig(o)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Script, "default script rendered for the current profile")
	assert.Equal(t, "svc", cfg.Invoker.User)
	assert.Equal(t, "x", cfg.InstanceID)

	WithTokenScript([]byte("custom"))(o)
	cfg, err = c.bootstrapConfig(o)
	require.NoError(t, err)
	assert.Equal(t, "custom", string(cfg.Script))

	legacy := &Container{profile: LegacyProfile()}
	cfg, err = legacy.bootstrapConfig(o)
	require.NoError(t, err)
	assert.Empty(t, cfg.Script, "flag shape ships no script")
	assert.Equal(t, mint.ShapeFlags, cfg.Profile.Shape)
}

func TestContainerFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "me"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "me", "test.mc2"), []byte("<% %>"), 0o644))

	o := defaultOptions()
	WithMacros(dir)(o)
	files, err := o.containerFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, MacrosPath+"/me/test.mc2", files[0].ContainerFilePath)
	assert.Equal(t, int64(0o644), files[0].FileMode)
}

func TestBootstrapThroughFakeInstance(t *testing.T) {
	f := instancetest.New()
	f.Files[cryptokeys.ConfigPath] = []byte(`
warp.aes.token = hex:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef
warp.hash.app = hex:00112233445566778899aabbccddeeff
warp.hash.token = hex:ffeeddccbbaa99887766554433221100
`)
	f.Result = instance.ExecResult{Stdout: []byte(`[{"id":"ReadToken","token":"R"},{"id":"WriteToken","token":"W"}]`)}

	o := defaultOptions()
	c := &Container{id: "fx", profile: o.resolveProfile()}
	cfg, err := c.bootstrapConfig(o)
	require.NoError(t, err)
	require.NoError(t, c.bootstrap(context.Background(), f, cfg))

	assert.Equal(t, TokensGenerated, c.State())
	r, ok := c.ReadToken()
	assert.True(t, ok)
	assert.Equal(t, "R", r)
	aes, ok := c.AESTokenKey()
	assert.True(t, ok)
	assert.Len(t, aes, 64)

	require.Len(t, f.Writes, 1)
	assert.Contains(t, string(f.Writes[0].Blob), "TOKENGEN")

	// Sin contenedor real no hay dirección.
	_, err = c.Credentials(context.Background())
	assert.True(t, errors.Is(err, ErrNotReady))
}

func TestZeroContainer(t *testing.T) {
	c := &Container{}
	assert.Equal(t, NotStarted, c.State())
	_, ok := c.ReadToken()
	assert.False(t, ok)
	_, ok = c.SipHashTokenKey()
	assert.False(t, ok)
	_, err := c.Credentials(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
	assert.NoError(t, c.Terminate(context.Background()))
	assert.Equal(t, "http", c.Protocol())
}

func TestCredentialsEnv(t *testing.T) {
	cr := Credentials{
		ID: "fx", Address: "localhost:1", URL: "http://localhost:1", Protocol: "http",
		ReadToken: "R", WriteToken: "W",
		Keys:    cryptokeys.New("aa", "", "cc"),
		HasKeys: true,
	}
	env := cr.Env()
	assert.Equal(t, "R", env["WARP10_READ_TOKEN"])
	assert.Equal(t, "W", env["WARP10_WRITE_TOKEN"])
	assert.Equal(t, "aa", env["WARP10_AES_TOKEN_KEY"])
	assert.Equal(t, "cc", env["WARP10_SIPHASH_TOKEN_KEY"])
	assert.NotContains(t, env, "WARP10_SIPHASH_APP_KEY")

	cr.HasKeys = false
	assert.NotContains(t, cr.Env(), "WARP10_AES_TOKEN_KEY")
}
