package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
	"github.com/dropDatabas3/warp10-fixture/internal/instance"
	"github.com/dropDatabas3/warp10-fixture/internal/instance/instancetest"
	"github.com/dropDatabas3/warp10-fixture/internal/mint"
	"github.com/dropDatabas3/warp10-fixture/internal/observability/logger"
	"github.com/dropDatabas3/warp10-fixture/internal/tokens"
)

const (
	validConf = `
warp.aes.token = hex:0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef
warp.hash.app = hex:00112233445566778899aabbccddeeff
warp.hash.token = hex:ffeeddccbbaa99887766554433221100
`
	currentPayload = `[{"id":"ReadToken","token":"R2","ident":"r"},{"id":"WriteToken","token":"W2","ident":"w"}]`
	legacyPayload  = `{"read":{"token":"R1"},"write":{"token":"W1"}}`
)

func currentFake() *instancetest.Fake {
	f := instancetest.New()
	f.Files[cryptokeys.ConfigPath] = []byte(validConf)
	f.Result = instance.ExecResult{Stdout: []byte(currentPayload)}
	return f
}

func currentConfig() Config {
	return Config{Profile: CurrentProfile(), Script: []byte("'ReadToken' TOKENGEN"), InstanceID: "t-1"}
}

func assertNoCredentials(t *testing.T, c *Coordinator) {
	t.Helper()
	_, ok := c.ReadToken()
	assert.False(t, ok, "read token must be absent")
	_, ok = c.WriteToken()
	assert.False(t, ok, "write token must be absent")
	_, ok = c.CryptoKeys()
	assert.False(t, ok, "crypto keys must be absent")
	_, ok = c.Tokens()
	assert.False(t, ok, "token set must be absent")
}

func TestOnReady_CurrentProfile(t *testing.T) {
	f := currentFake()
	c := New(f, currentConfig())

	assertNoCredentials(t, c)
	require.NoError(t, c.OnReady(context.Background()))

	assert.Equal(t, TokensGenerated, c.State())
	assert.Equal(t, []State{NotStarted, KeysExtracted, ScriptDeployed, TokensGenerated}, c.Transitions())
	assert.NoError(t, c.Err())

	r, ok := c.ReadToken()
	require.True(t, ok)
	assert.Equal(t, "R2", r)
	w, ok := c.WriteToken()
	require.True(t, ok)
	assert.Equal(t, "W2", w)

	keys, ok := c.CryptoKeys()
	require.True(t, ok)
	assert.True(t, keys.IsValid())

	set, ok := c.Tokens()
	require.True(t, ok)
	assert.Equal(t, 2, set.Len())

	// Orden: leer config, desplegar, ejecutar.
	assert.Equal(t, []string{cryptokeys.ConfigPath}, f.Reads)
	require.Len(t, f.Writes, 1)
	assert.Equal(t, mint.DefaultScriptPath, f.Writes[0].Path)
	require.Len(t, f.Execs, 1)
	assert.Equal(t, mint.DefaultServiceUser, f.Execs[0].User)
}

func TestOnReady_LegacyProfileSkipsKeysAndScript(t *testing.T) {
	f := instancetest.New()
	f.Result = instance.ExecResult{Stdout: []byte(legacyPayload)}

	c := New(f, Config{Profile: LegacyProfile(), AppName: "test", Validity: 24 * time.Hour})
	require.NoError(t, c.OnReady(context.Background()))

	assert.Equal(t, []State{NotStarted, TokensGenerated}, c.Transitions())
	assert.Empty(t, f.Reads)
	assert.Empty(t, f.Writes)

	r, ok := c.ReadToken()
	require.True(t, ok)
	assert.Equal(t, "R1", r)
	w, ok := c.TokenForRole("write")
	require.True(t, ok)
	assert.Equal(t, "W1", w)

	_, ok = c.CryptoKeys()
	assert.False(t, ok, "legacy images never expose keys")
}

func TestOnReady_InvalidKeysAreLenient(t *testing.T) {
	f := currentFake()
	f.Files[cryptokeys.ConfigPath] = []byte("warp.aes.token = hex:abcd\n")

	c := New(f, currentConfig())
	require.NoError(t, c.OnReady(context.Background()))
	assert.Equal(t, TokensGenerated, c.State())

	keys, ok := c.CryptoKeys()
	require.True(t, ok, "invalid key sets are retained")
	assert.False(t, keys.IsValid())
	aes, ok := keys.AESTokenKey()
	assert.True(t, ok)
	assert.Equal(t, "abcd", aes)
}

func TestOnReady_MintExitCodeIsFatal(t *testing.T) {
	f := currentFake()
	f.Result = instance.ExecResult{ExitCode: 1, Stdout: []byte(currentPayload), Stderr: []byte("boom")}

	c := New(f, currentConfig())
	err := c.OnReady(context.Background())
	require.Error(t, err)

	var xerr *mint.ExitError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, 1, xerr.ExitCode)
	assert.Equal(t, "boom", xerr.Stderr)

	assert.Equal(t, Failed, c.State())
	assert.Equal(t, err, c.Err())
	assertNoCredentials(t, c)
}

func TestOnReady_FailuresAtEachStep(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *instancetest.Fake, cfg *Config)
		want  []State
		check func(t *testing.T, err error)
	}{
		{
			name:  "config unreadable",
			setup: func(f *instancetest.Fake, _ *Config) { delete(f.Files, cryptokeys.ConfigPath) },
			want:  []State{NotStarted, Failed},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, instance.ErrIO) },
		},
		{
			name:  "deploy fails",
			setup: func(f *instancetest.Fake, _ *Config) { f.WriteErr = errors.New("read-only fs") },
			want:  []State{NotStarted, KeysExtracted, Failed},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, instance.ErrIO) },
		},
		{
			name:  "missing script",
			setup: func(_ *instancetest.Fake, cfg *Config) { cfg.Script = nil },
			want:  []State{NotStarted, KeysExtracted, Failed},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, mint.ErrScriptRequired) },
		},
		{
			name:  "exec cannot launch",
			setup: func(f *instancetest.Fake, _ *Config) { f.ExecErr = errors.New("no such container") },
			want:  []State{NotStarted, KeysExtracted, ScriptDeployed, Failed},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, instance.ErrIO) },
		},
		{
			name: "payload is not json",
			setup: func(f *instancetest.Fake, _ *Config) {
				f.Result = instance.ExecResult{Stdout: []byte("Exception in thread \"main\"")}
			},
			want: []State{NotStarted, KeysExtracted, ScriptDeployed, Failed},
			check: func(t *testing.T, err error) {
				var pe *tokens.ParseError
				assert.True(t, errors.As(err, &pe))
			},
		},
		{
			name: "legacy payload on script path is not sniffed",
			setup: func(f *instancetest.Fake, _ *Config) {
				f.Result = instance.ExecResult{Stdout: []byte(legacyPayload)}
			},
			want: []State{NotStarted, KeysExtracted, ScriptDeployed, Failed},
			check: func(t *testing.T, err error) {
				var pe *tokens.ParseError
				require.True(t, errors.As(err, &pe))
				assert.Equal(t, tokens.SchemaCurrent, pe.Schema)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := currentFake()
			cfg := currentConfig()
			tc.setup(f, &cfg)

			c := New(f, cfg)
			err := c.OnReady(context.Background())
			require.Error(t, err)
			tc.check(t, err)

			assert.Equal(t, Failed, c.State())
			assert.Equal(t, tc.want, c.Transitions())
			assertNoCredentials(t, c)
		})
	}
}

func TestOnReady_RunsOnce(t *testing.T) {
	f := currentFake()
	c := New(f, currentConfig())
	require.NoError(t, c.OnReady(context.Background()))

	err := c.OnReady(context.Background())
	require.ErrorIs(t, err, ErrAlreadyStarted)
	assert.Equal(t, TokensGenerated, c.State())
	assert.Len(t, f.Execs, 1, "second call must not mint again")

	failed := New(instancetest.New(), currentConfig())
	require.Error(t, failed.OnReady(context.Background()))
	require.ErrorIs(t, failed.OnReady(context.Background()), ErrAlreadyStarted)
	assert.Equal(t, Failed, failed.State())
}

func TestOnReady_ReportsMissingRoleWithoutFailing(t *testing.T) {
	f := currentFake()
	f.Result = instance.ExecResult{Stdout: []byte(`[{"id":"ReadToken","token":"R"}]`)}

	c := New(f, currentConfig())
	require.NoError(t, c.OnReady(context.Background()))
	_, ok := c.WriteToken()
	assert.False(t, ok)
	r, ok := c.ReadToken()
	assert.True(t, ok)
	assert.Equal(t, "R", r)
}

func TestOnReady_LogsEachStep(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core))

	f := currentFake()
	f.Result = instance.ExecResult{Stdout: []byte("not json")}
	require.Error(t, New(f, currentConfig()).OnReady(ctx))

	var started, finished []string
	okByStep := map[string]bool{}
	for _, e := range logs.All() {
		fields := e.ContextMap()
		step, _ := fields["step"].(string)
		switch e.Message {
		case "step started":
			started = append(started, step)
		case "step finished":
			finished = append(finished, step)
			okByStep[step], _ = fields["ok"].(bool)
			assert.Contains(t, fields, "duration")
		}
	}
	want := []string{"extract_keys", "deploy_script", "mint", "parse"}
	assert.Equal(t, want, started)
	assert.Equal(t, want, finished)
	assert.True(t, okByStep["mint"])
	assert.False(t, okByStep["parse"])
}
