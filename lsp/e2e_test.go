// Copyright © 2024 The ELPS authors

package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcClient speaks JSON-RPC over LSP base-protocol framing.
type rpcClient struct {
	t      *testing.T
	conn   net.Conn
	r      *textproto.Reader
	nextID int

	// notifications received while waiting for responses
	notifications []map[string]any
}

// dialServer starts a server on a free loopback port and connects to it.
func dialServer(t *testing.T) *rpcClient {
	t.Helper()
	srv, err := New()
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	go srv.RunTCP(addr) //nolint:errcheck // ends with the test process

	var conn net.Conn
	for attempt := 0; attempt < 50; attempt++ {
		if conn, err = net.Dial("tcp", addr); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err, "dial %s", addr)
	t.Cleanup(func() { _ = conn.Close() })
	return &rpcClient{t: t, conn: conn, r: textproto.NewReader(bufio.NewReader(conn))}
}

func (c *rpcClient) write(msg map[string]any) {
	c.t.Helper()
	msg["jsonrpc"] = "2.0"
	body, err := json.Marshal(msg)
	require.NoError(c.t, err)
	_, err = fmt.Fprintf(c.conn, "Content-Length: %d\r\n\r\n%s", len(body), body)
	require.NoError(c.t, err)
}

func (c *rpcClient) notify(method string, params any) {
	c.t.Helper()
	c.write(map[string]any{"method": method, "params": params})
}

// call sends a request and waits for its response.
func (c *rpcClient) call(method string, params any) map[string]any {
	c.t.Helper()
	c.nextID++
	id := c.nextID
	c.write(map[string]any{"id": id, "method": method, "params": params})

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		msg := c.read()
		if n, ok := msg["id"].(float64); ok && int(n) == id {
			return msg
		}
		c.notifications = append(c.notifications, msg)
	}
	c.t.Fatalf("no response to %s", method)
	return nil
}

// read reads one framed message.
func (c *rpcClient) read() map[string]any {
	c.t.Helper()
	hdr, err := c.r.ReadMIMEHeader()
	require.NoError(c.t, err, "reading header")
	n, err := strconv.Atoi(hdr.Get("Content-Length"))
	require.NoError(c.t, err, "Content-Length")
	require.Positive(c.t, n)

	body := make([]byte, n)
	_, err = io.ReadFull(c.r.R, body)
	require.NoError(c.t, err, "reading body")
	var msg map[string]any
	require.NoError(c.t, json.Unmarshal(body, &msg))
	return msg
}

// published returns the params of the last diagnostics notification seen.
func (c *rpcClient) published() map[string]any {
	var last map[string]any
	for _, n := range c.notifications {
		if n["method"] == "textDocument/publishDiagnostics" {
			last = n["params"].(map[string]any)
		}
	}
	return last
}

func TestE2E_FullLifecycle(t *testing.T) {
	c := dialServer(t)

	uri := "file:///tmp/e2e-test/test.csx"
	content := `var xs = new List<int>();
int total = xs.Count;
var evens = from x in xs where x % 2 == 0 select x;
total + fnord;
`

	resp := c.call("initialize", map[string]any{
		"capabilities": map[string]any{},
		"rootUri":      "file:///tmp/e2e-test",
	})
	result := resp["result"].(map[string]any)
	caps := result["capabilities"].(map[string]any)
	assert.NotNil(t, caps["hoverProvider"], "should have hover")
	assert.NotNil(t, caps["definitionProvider"], "should have definition")
	assert.NotNil(t, caps["completionProvider"], "should have completion")
	assert.NotNil(t, caps["referencesProvider"], "should have references")
	assert.NotNil(t, caps["documentSymbolProvider"], "should have document symbols")
	assert.NotNil(t, caps["renameProvider"], "should have rename")
	serverInfo := result["serverInfo"].(map[string]any)
	assert.Equal(t, serverName, serverInfo["name"])

	c.notify("initialized", map[string]any{})
	c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": "csharp",
			"version":    1,
			"text":       content,
		},
	})

	// Give the server a moment to analyze and publish.
	time.Sleep(200 * time.Millisecond)

	hoverResp := c.call("textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 3, "character": 2},
	})
	require.NotNil(t, hoverResp["result"], "hover should return a result")
	hoverValue := hoverResp["result"].(map[string]any)["contents"].(map[string]any)["value"].(string)
	assert.Contains(t, hoverValue, "(local) int total")

	published := c.published()
	require.NotNil(t, published, "didOpen should publish diagnostics")
	diags := published["diagnostics"].([]any)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].(map[string]any)["message"], "fnord")

	defResp := c.call("textDocument/definition", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 3, "character": 2},
	})
	require.NotNil(t, defResp["result"], "definition should return a result")
	defStart := defResp["result"].(map[string]any)["range"].(map[string]any)["start"].(map[string]any)
	assert.Equal(t, float64(1), defStart["line"])
	assert.Equal(t, float64(4), defStart["character"])

	symResp := c.call("textDocument/documentSymbol", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	})
	syms := symResp["result"].([]any)
	var names []string
	for _, s := range syms {
		names = append(names, s.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"xs", "total", "evens"}, names)

	// Closing clears the document's diagnostics.
	c.notify("textDocument/didClose", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	})
	time.Sleep(200 * time.Millisecond)
	c.call("textDocument/documentSymbol", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	})
	published = c.published()
	require.NotNil(t, published)
	assert.Empty(t, published["diagnostics"])

	resp = c.call("shutdown", nil)
	assert.Nil(t, resp["error"])
}
