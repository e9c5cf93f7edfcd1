package uds

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/stfd/internal/logging"
)

// shortSockPath keeps socket paths under the 104-byte sun_path limit of macOS.
func shortSockPath(t *testing.T, name string) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "stfd-uds-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, name)
}

func startServer(t *testing.T, register func(s *Server)) (*Server, *Client) {
	t.Helper()
	path := shortSockPath(t, "t.sock")
	server := NewServer(path, logging.Discard())
	if register != nil {
		register(server)
	}
	require.NoError(t, server.Start())
	t.Cleanup(func() { server.Stop() })

	client := NewClient(path)
	client.SetTimeout(5 * time.Second)
	return server, client
}

func TestFramingRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	req, err := NewRequest(CmdScan, map[string]string{"reason": "manual"})
	require.NoError(t, err)

	go func() { _ = WriteFrame(a, req) }()

	var got Request
	require.NoError(t, ReadFrame(b, &got))
	assert.Equal(t, ProtocolVersion, got.ProtocolVersion)
	assert.Equal(t, CmdScan, got.Command)
	assert.JSONEq(t, `{"reason":"manual"}`, string(got.Params))
}

func TestReadFrameRejectsOversize(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	go func() { _, _ = a.Write([]byte{0xff, 0xff, 0xff, 0xff}) }()

	var v map[string]any
	err := ReadFrame(b, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame too large")
}

func TestServerProtocolVersionMismatch(t *testing.T) {
	_, client := startServer(t, func(s *Server) {
		s.Handle(CmdPing, func(*Request) *Response { return SuccessResponse(nil) })
	})

	resp, err := client.Send(&Request{ProtocolVersion: 999, Command: CmdPing})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeProtocolMismatch, resp.Error.Code)
}

func TestServerUnknownCommand(t *testing.T) {
	_, client := startServer(t, nil)

	err := client.Call("nonexistent", nil, nil)
	var detail *ErrorDetail
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, ErrCodeUnknownCommand, detail.Code)
}

func TestServerHandlers(t *testing.T) {
	_, client := startServer(t, func(s *Server) {
		s.Handle(CmdPing, func(*Request) *Response {
			return SuccessResponse(map[string]string{"status": "ok"})
		})
		s.Handle(CmdScan, func(req *Request) *Response {
			var params map[string]string
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return ErrorResponse(ErrCodeInternal, err.Error())
			}
			return SuccessResponse(map[string]string{"status": "started", "reason": params["reason"]})
		})
		s.Handle(CmdStatus, func(*Request) *Response {
			return ErrorResponse(ErrCodeBusy, "pass in progress")
		})
	})

	var ping map[string]string
	require.NoError(t, client.Call(CmdPing, nil, &ping))
	assert.Equal(t, "ok", ping["status"])

	var scan map[string]string
	require.NoError(t, client.Call(CmdScan, map[string]string{"reason": "cli"}, &scan))
	assert.Equal(t, "cli", scan["reason"])

	err := client.Call(CmdStatus, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "BUSY: pass in progress", err.Error())
}

func TestServerMultipleClients(t *testing.T) {
	server, _ := startServer(t, func(s *Server) {
		s.Handle(CmdPing, func(*Request) *Response { return SuccessResponse(map[string]string{"status": "ok"}) })
	})

	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			c := NewClient(server.Path())
			c.SetTimeout(5 * time.Second)
			errs <- c.Call(CmdPing, nil, nil)
		}()
	}
	for i := 0; i < 10; i++ {
		assert.NoError(t, <-errs)
	}
}

func TestServerRecoversFromHandlerPanic(t *testing.T) {
	_, client := startServer(t, func(s *Server) {
		s.Handle("boom", func(*Request) *Response { panic("handler bug") })
		s.Handle(CmdPing, func(*Request) *Response { return SuccessResponse(nil) })
	})

	_, err := client.SendCommand("boom", nil)
	assert.Error(t, err, "connection is closed without a response")
	assert.NoError(t, client.Call(CmdPing, nil, nil))
}

func TestClientServiceNotRunning(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "none.sock"))
	client.SetTimeout(time.Second)

	_, err := client.SendCommand(CmdPing, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "stfd run"), err.Error())
}

func TestServerConnectionTimeout(t *testing.T) {
	server, client := startServer(t, func(s *Server) {
		s.SetConnTimeout(300 * time.Millisecond)
		s.Handle(CmdPing, func(*Request) *Response { return SuccessResponse(nil) })
	})

	conn, err := net.Dial("unix", server.Path())
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(600 * time.Millisecond)
	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	_, readErr := conn.Read(make([]byte, 1))
	assert.Error(t, readErr, "idle connection is closed by the server")

	assert.NoError(t, client.Call(CmdPing, nil, nil))
}

func TestServerSocketLifecycle(t *testing.T) {
	path := shortSockPath(t, "l.sock")
	server := NewServer(path, logging.Discard())
	require.NoError(t, server.Start())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, server.Stop())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestResponses(t *testing.T) {
	resp := SuccessResponse(map[string]int{"files": 3})
	var data map[string]int
	require.NoError(t, resp.Decode(&data))
	assert.Equal(t, 3, data["files"])

	assert.Nil(t, SuccessResponse(nil).Data)
	assert.NoError(t, SuccessResponse(nil).Decode(&data))

	failed := ErrorResponse(ErrCodeShuttingDown, "stopping")
	assert.False(t, failed.Success)
	assert.EqualError(t, failed.Decode(nil), "SHUTTING_DOWN: stopping")
	assert.Error(t, (&Response{}).Decode(nil))
}
