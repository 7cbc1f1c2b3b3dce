package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/warp10-fixture/internal/bootstrap"
	"github.com/dropDatabas3/warp10-fixture/internal/cryptokeys"
)

type fakeFixture struct {
	state   bootstrap.State
	read    string
	write   string
	keys    *cryptokeys.CryptoKeySet
	addrErr error
}

func (f *fakeFixture) ID() string             { return "fx-1" }
func (f *fakeFixture) State() bootstrap.State { return f.state }
func (f *fakeFixture) Protocol() string       { return "http" }

func (f *fakeFixture) ReadToken() (string, bool)  { return f.read, f.read != "" }
func (f *fakeFixture) WriteToken() (string, bool) { return f.write, f.write != "" }

func (f *fakeFixture) CryptoKeys() (cryptokeys.CryptoKeySet, bool) {
	if f.keys == nil {
		return cryptokeys.CryptoKeySet{}, false
	}
	return *f.keys, true
}

func (f *fakeFixture) HTTPHostAddress(context.Context) (string, error) {
	if f.addrErr != nil {
		return "", f.addrErr
	}
	return "localhost:32768", nil
}

func (f *fakeFixture) URL(ctx context.Context) (string, error) {
	addr, err := f.HTTPHostAddress(ctx)
	if err != nil {
		return "", err
	}
	return "http://" + addr, nil
}

func ready() *fakeFixture {
	keys := cryptokeys.New(
		"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		"00112233445566778899aabbccddeeff",
		"ffeeddccbbaa99887766554433221100",
	)
	return &fakeFixture{state: bootstrap.TokensGenerated, read: "R", write: "W", keys: &keys}
}

func do(t *testing.T, h stdhttp.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	return rec
}

func TestCredentials_Ready(t *testing.T) {
	rec := do(t, NewRouter(RouterConfig{Fixture: ready()}), "/v1/credentials")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var resp CredentialsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "fx-1", resp.ID)
	assert.Equal(t, "TokensGenerated", resp.State)
	assert.Equal(t, "localhost:32768", resp.Address)
	assert.Equal(t, "http://localhost:32768", resp.URL)
	assert.Equal(t, TokensDTO{Read: "R", Write: "W"}, resp.Tokens)
	require.NotNil(t, resp.CryptoKeys)
	assert.True(t, resp.CryptoKeys.Valid)
	assert.Len(t, resp.CryptoKeys.AESTokenKey, 64)
}

func TestCredentials_LegacyHasNoKeys(t *testing.T) {
	fx := ready()
	fx.keys = nil
	rec := do(t, NewRouter(RouterConfig{Fixture: fx}), "/v1/credentials")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "crypto_keys")
}

func TestCredentials_NotReady(t *testing.T) {
	for _, st := range []bootstrap.State{bootstrap.NotStarted, bootstrap.ScriptDeployed, bootstrap.Failed} {
		fx := &fakeFixture{state: st}
		h := NewRouter(RouterConfig{Fixture: fx})

		rec := do(t, h, "/v1/credentials")
		assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code, st.String())
		assert.Contains(t, rec.Body.String(), "not_ready")

		rec = do(t, h, "/readyz")
		assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code, st.String())
	}
}

func TestCredentials_AddressError(t *testing.T) {
	fx := ready()
	fx.addrErr = errors.New("container gone")
	rec := do(t, NewRouter(RouterConfig{Fixture: fx}), "/v1/credentials")
	assert.Equal(t, stdhttp.StatusBadGateway, rec.Code)
}

func TestHealthAndRequestID(t *testing.T) {
	h := NewRouter(RouterConfig{Fixture: ready()})

	rec := do(t, h, "/readyz")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	req := httptest.NewRequest(stdhttp.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "given-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "given-id", rec.Header().Get(HeaderRequestID))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	mh, err := RegisterMetrics(reg, reg)
	require.NoError(t, err)

	h := NewRouter(RouterConfig{Fixture: ready(), Metrics: mh})
	do(t, h, "/v1/credentials")

	rec := do(t, h, "/metrics")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warp10_fixture_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="/v1/credentials"`)
}

func TestRegisterMetrics_EachRegistry(t *testing.T) {
	first, second := prometheus.NewRegistry(), prometheus.NewRegistry()
	_, err := RegisterMetrics(first, first)
	require.NoError(t, err)
	mh, err := RegisterMetrics(second, second)
	require.NoError(t, err)
	_, err = RegisterMetrics(second, second)
	require.NoError(t, err, "registering twice is a no-op")

	h := NewRouter(RouterConfig{Fixture: ready(), Metrics: mh})
	do(t, h, "/v1/credentials")

	for name, reg := range map[string]*prometheus.Registry{"first": first, "second": second} {
		mfs, err := reg.Gather()
		require.NoError(t, err)
		var found bool
		for _, mf := range mfs {
			if mf.GetName() == "warp10_fixture_http_requests_total" {
				found = true
			}
		}
		assert.True(t, found, name)
	}
}

func TestRegisterMetrics_ConflictIsReported(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "warp10_fixture_http_requests_total",
		Help: "otro collector con el mismo nombre",
	}))

	_, err := RegisterMetrics(reg, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register http metrics")
}

func TestServer_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(ln.Addr().String(), NewRouter(RouterConfig{Fixture: ready()})).Serve(ctx, ln) }()

	var resp *stdhttp.Response
	require.Eventually(t, func() bool {
		resp, err = stdhttp.Get("http://" + ln.Addr().String() + "/readyz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ready", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

type fakeProvider struct {
	fx     Fixture
	err    error
	gets   []string
	closed []string
}

func (p *fakeProvider) Get(_ context.Context, tag string) (Fixture, error) {
	p.gets = append(p.gets, tag)
	if p.err != nil {
		return nil, p.err
	}
	return p.fx, nil
}

func (p *fakeProvider) Close(_ context.Context, tag string) error {
	p.closed = append(p.closed, tag)
	return nil
}

func TestFixtures_OnDemand(t *testing.T) {
	p := &fakeProvider{fx: ready()}
	h := NewRouter(RouterConfig{Provider: p})

	rec := do(t, h, "/v1/fixtures/2.7.5/credentials")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, []string{"2.7.5"}, p.gets)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodDelete, "/v1/fixtures/2.7.5", nil))
	assert.Equal(t, stdhttp.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"2.7.5"}, p.closed)

	rec = do(t, h, "/v1/fixtures/..bad/credentials")
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = do(t, h, "/v1/credentials")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code, "single-fixture routes need a Fixture")
}

func TestFixtures_StartFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("pull access denied")}
	rec := do(t, NewRouter(RouterConfig{Provider: p}), "/v1/fixtures/nope/credentials")
	assert.Equal(t, stdhttp.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "pull access denied")
}
