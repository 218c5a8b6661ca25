package webhook

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scinfra-pro/tg-webhook/internal/stop"
)

func unixClient(path string) *http.Client {
	return &http.Client{
		Timeout: 2 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", path)
			},
		},
	}
}

func serveAsync(t *testing.T, srv *Server, ln net.Listener, shutdown chan struct{}, token stop.Token) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln, shutdown, token)
	}()
	require.Eventually(t, func() bool { return srv.State() == StateServing }, 2*time.Second, 10*time.Millisecond)
	return errCh
}

func waitServe(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
		return nil
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func TestServer_TCP(t *testing.T) {
	srv := NewServer(TCP("127.0.0.1:0"), okHandler())
	assert.Equal(t, StateUnbound, srv.State())

	ln, err := srv.Bind()
	require.NoError(t, err)

	token, _ := stop.New()
	shutdown := make(chan struct{})
	errCh := serveAsync(t, srv, ln, shutdown, token)

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	close(shutdown)
	require.NoError(t, waitServe(t, errCh))
	assert.Equal(t, StateStopped, srv.State())
	assert.False(t, token.IsStopped())
}

func TestServer_UnixRemovesStaleSocketAndCreatesParents(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "stale.sock")
	require.NoError(t, os.WriteFile(stale, []byte("leftover"), 0o600))

	srv := NewServer(Unix(stale), okHandler())
	ln, err := srv.Bind()
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	nested := filepath.Join(dir, "a", "b", "bot.sock")
	srv = NewServer(Unix(nested), okHandler())
	ln, err = srv.Bind()
	require.NoError(t, err)
	defer ln.Close()

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSocket, info.Mode()&os.ModeSocket)
}

func TestServer_UnixBindFailsWhenParentIsFile(t *testing.T) {
	dir := t.TempDir()
	parent := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o600))

	srv := NewServer(Unix(filepath.Join(parent, "bot.sock")), okHandler())
	_, err := srv.Bind()
	assert.Error(t, err)
}

func TestServer_UnixConnInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.sock")

	got := make(chan ConnInfo, 1)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ := ConnInfoFromContext(r.Context())
		got <- info
	})

	srv := NewServer(Unix(path), h)
	ln, err := srv.Bind()
	require.NoError(t, err)

	token, _ := stop.New()
	shutdown := make(chan struct{})
	errCh := serveAsync(t, srv, ln, shutdown, token)

	resp, err := unixClient(path).Get("http://unix/")
	require.NoError(t, err)
	resp.Body.Close()

	info := <-got
	assert.Equal(t, "unix", info.Network)
	if runtime.GOOS == "linux" {
		require.NotNil(t, info.PeerCred)
		assert.Equal(t, int32(os.Getpid()), info.PeerCred.PID)
		assert.Equal(t, uint32(os.Getuid()), info.PeerCred.UID)
	}

	close(shutdown)
	require.NoError(t, waitServe(t, errCh))
}

func TestServer_FatalErrorStopsToken(t *testing.T) {
	srv := NewServer(TCP("127.0.0.1:0"), okHandler())
	ln, err := srv.Bind()
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	token, flag := stop.New()
	err = srv.Serve(ln, make(chan struct{}), token)

	assert.Error(t, err)
	assert.True(t, flag.IsStopped())
	assert.Equal(t, StateStopped, srv.State())
}

func TestServer_ShutdownWaitsForInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(entered)
		<-release
		_, _ = io.WriteString(w, "late")
	})

	srv := NewServer(TCP("127.0.0.1:0"), h, WithShutdownTimeout(3*time.Second))
	ln, err := srv.Bind()
	require.NoError(t, err)

	token, _ := stop.New()
	shutdown := make(chan struct{})
	errCh := serveAsync(t, srv, ln, shutdown, token)

	respCh := make(chan string, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			respCh <- err.Error()
			return
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		respCh <- string(b)
	}()

	<-entered
	close(shutdown)
	require.Eventually(t, func() bool { return srv.State() == StateDraining }, 2*time.Second, 10*time.Millisecond)

	close(release)
	assert.Equal(t, "late", <-respCh)
	require.NoError(t, waitServe(t, errCh))
	assert.Equal(t, StateStopped, srv.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unbound", StateUnbound.String())
	assert.Equal(t, "serving", StateServing.String())
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "stopped", StateStopped.String())
	assert.Equal(t, "unknown", State(42).String())
}
