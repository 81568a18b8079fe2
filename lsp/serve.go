package lsp

import (
	"context"
	"io"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// Serve runs a server over in and out until the connection closes.
func Serve(ctx context.Context, logger *zap.Logger, in io.Reader, out io.Writer, opts ...Option) error {
	// JSON-RPC stream over the pair
	stream := jsonrpc2.NewStream(&readWriteCloser{in, out})
	conn := jsonrpc2.NewConn(stream)

	// Client for notifications to the editor
	client := protocol.ClientDispatcher(conn, logger)
	server := NewServer(client, logger, opts...)

	conn.Go(ctx, protocol.ServerHandler(server, nil))

	select {
	case <-conn.Done():
	case <-ctx.Done():
		_ = conn.Close()
		<-conn.Done()
	}

	return conn.Err()
}

// readWriteCloser wraps separate reader/writer into io.ReadWriteCloser.
type readWriteCloser struct {
	io.Reader
	io.Writer
}

func (rwc *readWriteCloser) Close() error {
	if c, ok := rwc.Writer.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
