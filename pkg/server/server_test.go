package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikufans/bvc-server/pkg/proto"
	"github.com/mikufans/bvc-server/pkg/resource"
	"github.com/mikufans/bvc-server/pkg/server/config"
)

func writeTestMedia(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := mediaBytes(size)
	path := filepath.Join(t.TempDir(), "video.m4s")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func testConfig(resourcePath string) config.Config {
	return config.Config{
		MaxIdle:     5 * time.Second,
		CopyBuffer:  32 << 10,
		Resource:    resourcePath,
		AllowOrigin: "https://www.bilibili.com",
	}
}

// startServer serves on an ephemeral port and returns its address.
func startServer(t *testing.T, cfg config.Config) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go New(cfg, resource.NewFileResolver(cfg.Resource)).Serve(ctx, ln)

	return ln.Addr().String()
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, bufio.NewReader(conn)
}

// readResponse reads one response off a keep-alive connection. The body is
// read only when readBody is set, since HEAD responses carry a
// Content-Length with no body bytes behind it.
func readResponse(t *testing.T, br *bufio.Reader, readBody bool) parsedResponse {
	t.Helper()

	statusLine, err := br.ReadString('\n')
	require.NoError(t, err)
	parts := strings.Fields(strings.TrimSpace(statusLine))
	require.Len(t, parts, 2, "status line %q", statusLine)
	require.Equal(t, "HTTP/1.1", parts[0])
	status, err := strconv.Atoi(parts[1])
	require.NoError(t, err)

	headers := map[string]string{}
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ": ")
		require.True(t, ok, "header line %q", line)
		headers[strings.ToLower(name)] = value
	}

	var body []byte
	if readBody {
		n, _ := strconv.Atoi(headers["content-length"])
		body = make([]byte, n)
		_, err := io.ReadFull(br, body)
		require.NoError(t, err)
	}

	return parsedResponse{status: status, headers: headers, body: body}
}

func TestServeWholeResource(t *testing.T) {
	path, data := writeTestMedia(t, 1000)
	addr := startServer(t, testConfig(path))

	conn, br := dial(t, addr)
	_, err := conn.Write([]byte("GET /resource/mikufans/x HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, br, true)
	assert.Equal(t, 200, resp.status)
	assert.Equal(t, "1000", resp.headers["content-length"])
	assert.Equal(t, "keep-alive", resp.headers["connection"])
	assert.Equal(t, data, resp.body)
}

func TestServePartialContent(t *testing.T) {
	path, data := writeTestMedia(t, 1000)
	addr := startServer(t, testConfig(path))

	conn, br := dial(t, addr)
	_, err := conn.Write([]byte(
		"GET /resource/mikufans/x HTTP/1.1\r\nHost: localhost\r\nRange: bytes=100-199\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, br, true)
	assert.Equal(t, 206, resp.status)
	assert.Equal(t, "bytes 100-199/1000", resp.headers["content-range"])
	assert.Equal(t, "100", resp.headers["content-length"])
	assert.Equal(t, "bytes", resp.headers["accept-ranges"])
	assert.Equal(t, data[100:200], resp.body)
}

func TestServeHeadThenKeepAlive(t *testing.T) {
	path, _ := writeTestMedia(t, 1000)
	addr := startServer(t, testConfig(path))

	conn, br := dial(t, addr)
	_, err := conn.Write([]byte(
		"HEAD /resource/mikufans/x HTTP/1.1\r\nHost: localhost\r\nRange: bytes=0-9\r\n\r\n"))
	require.NoError(t, err)

	head := readResponse(t, br, false)
	assert.Equal(t, 206, head.status)
	assert.Equal(t, "bytes 0-9/1000", head.headers["content-range"])
	assert.Equal(t, "10", head.headers["content-length"])

	// the connection must be positioned exactly at the next response: HEAD
	// promised 10 bytes but transferred none
	_, err = conn.Write([]byte("GET /whoami HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	next := readResponse(t, br, true)
	assert.Equal(t, 200, next.status)
	assert.Equal(t, "text/plain", next.headers["content-type"])
	assert.Equal(t, proto.ServerName, string(next.body))
}

func TestServeDefaultRoute(t *testing.T) {
	path, _ := writeTestMedia(t, 1000)
	addr := startServer(t, testConfig(path))

	conn, br := dial(t, addr)
	_, err := conn.Write([]byte("GET /not-a-real-path HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, br, true)
	assert.Equal(t, 200, resp.status)
	assert.Equal(t, "text/plain", resp.headers["content-type"])
	assert.Equal(t, proto.ServerName, string(resp.body))
}

func TestServeNotFound(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "missing.m4s"))
	addr := startServer(t, cfg)

	conn, br := dial(t, addr)
	_, err := conn.Write([]byte("GET /resource/mikufans/x HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, br, true)
	assert.Equal(t, 404, resp.status)
	assert.Equal(t, "0", resp.headers["content-length"])
}

func TestBadRequestThenRecovers(t *testing.T) {
	path, _ := writeTestMedia(t, 1000)
	addr := startServer(t, testConfig(path))

	conn, br := dial(t, addr)
	_, err := conn.Write([]byte("GARBAGE\r\n"))
	require.NoError(t, err)

	bad := readResponse(t, br, true)
	assert.Equal(t, 400, bad.status)
	assert.NotContains(t, bad.headers, "content-length", "bare 400, no body")

	_, err = conn.Write([]byte("GET /favicon.ico HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	next := readResponse(t, br, true)
	assert.Equal(t, 200, next.status)
	assert.Equal(t, "image/icon", next.headers["content-type"])
	assert.Equal(t, "0", next.headers["content-length"])
}

func TestIdleConnectionIsClosed(t *testing.T) {
	path, _ := writeTestMedia(t, 1000)
	cfg := testConfig(path)
	cfg.MaxIdle = time.Second
	addr := startServer(t, cfg)

	conn, br := dial(t, addr)
	_, err := conn.Write([]byte("GET /resource/mikufans/x HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.NoError(t, err)

	resp := readResponse(t, br, true)
	require.Equal(t, 200, resp.status)

	// send nothing further; the watchdog must close the connection without
	// emitting another response
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = br.ReadByte()
	assert.ErrorIs(t, err, io.EOF)
}
