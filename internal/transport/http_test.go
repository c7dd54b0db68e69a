package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/console"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/rpggio/taskdesk/internal/mcp"
	"github.com/rpggio/taskdesk/internal/metrics"
	"github.com/rpggio/taskdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

type bearer struct {
	token string
	next  http.RoundTripper
}

func (b bearer) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("Authorization", "Bearer "+b.token)
	return b.next.RoundTrip(r)
}

func newRouter(t *testing.T, token string) (*httptest.Server, *metrics.Metrics) {
	t.Helper()
	ts := testserver.New(t)
	ts.AddUser("Ada Admin", "ada@example.com", "pw", "Admin")

	client, err := api.New(ts.URL())
	require.NoError(t, err)
	c := console.New(client, session.NewStore(client.Auth, session.NewMemoryStorage(), nil))
	require.NoError(t, c.Restore(context.Background()))

	m := metrics.New()
	server := httptest.NewServer(NewServer(mcp.NewServer(mcp.Config{Console: c, Metrics: m}), Options{
		Metrics:        m,
		AuthToken:      token,
		SessionTimeout: time.Minute,
	}))
	t.Cleanup(server.Close)
	return server, m
}

func TestHTTPServer_Health(t *testing.T) {
	server, _ := newRouter(t, "")

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `taskdesk_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestHTTPServer_MCPRequiresToken(t *testing.T) {
	server, _ := newRouter(t, "s3cret")

	resp, err := http.Post(server.URL+"/mcp", "application/json", strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_MCP(t *testing.T) {
	server, m := newRouter(t, "s3cret")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearer{token: "s3cret", next: http.DefaultTransport}},
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	defer session.Close()

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "login",
		Arguments: map[string]any{"email": "ada@example.com", "password": "pw"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "layout", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(*sdkmcp.TextContent).Text
	require.Contains(t, text, `"role":"Admin"`)
	require.Contains(t, text, `"users"`)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `taskdesk_mcp_tool_calls_total{outcome="ok",tool="login"} 1`)
	require.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls().WithLabelValues("layout", "ok")))
}
