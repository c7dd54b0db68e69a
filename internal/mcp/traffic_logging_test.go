package mcp

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/console"
	"github.com/rpggio/taskdesk/internal/domain/session"
	"github.com/rpggio/taskdesk/internal/testserver"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFormatPayloadRedactsPasswords(t *testing.T) {
	out := formatPayload(map[string]any{
		"name":      "login",
		"arguments": map[string]any{"email": "ada@example.com", "password": "hunter2"},
	})
	require.Contains(t, out, "ada@example.com")
	require.Contains(t, out, `"password":"***"`)
	require.NotContains(t, out, "hunter2")

	require.Equal(t, `{"name":"layout"}`, formatPayload(map[string]any{"name": "layout"}))
	require.Equal(t, "<nil>", formatPayload(nil))
	require.Equal(t, "chan int", formatPayload(make(chan int)))
}

func TestTrafficLoggingAtDebug(t *testing.T) {
	ts := testserver.New(t)
	ts.AddUser("Ada Admin", "ada@example.com", "hunter2", "Admin")

	client, err := api.New(ts.URL())
	require.NoError(t, err)
	c := console.New(client, session.NewStore(client.Auth, session.NewMemoryStorage(), nil))

	var logs syncBuffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	server := NewServer(Config{Console: c, Logger: logger})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ctx := context.Background()
	_, err = server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	cs, err := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil).Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	res, err := cs.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "login",
		Arguments: map[string]any{"email": "ada@example.com", "password": "hunter2"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	out := logs.String()
	require.Contains(t, out, "mcp traffic")
	require.Contains(t, out, "method=tools/call")
	require.NotContains(t, out, "hunter2")
}
