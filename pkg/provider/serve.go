package provider

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/graftlabs/graft/pkg/bridgerpc"
	"github.com/graftlabs/graft/pkg/tasks"
)

// maxRPCMessageSize bounds request and response sizes. Property bags for large
// components can be far bigger than gRPC's 4 MB default.
const maxRPCMessageSize = 1024 * 1024 * 400

// ServeOptions configures the serving loop.
type ServeOptions struct {
	// Address is the listen address. Defaults to an ephemeral loopback port,
	// which is what the engine handshake expects.
	Address string

	// Handshake is where the bound port is announced. The engine reads it from
	// the process's stdout, so nothing else may write there first.
	Handshake io.Writer
}

// Serve listens for engine connections and serves the component provider
// until ctx is canceled. The bound port is printed on the handshake writer as
// the first line of output; the engine parses it to find the server.
func Serve(ctx context.Context, srv *Server, opts ServeOptions) error {
	addr := opts.Address
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	handshake := opts.Handshake
	if handshake == nil {
		handshake = os.Stdout
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(bridgerpc.Codec{}),
		grpc.MaxRecvMsgSize(maxRPCMessageSize),
		grpc.MaxSendMsgSize(maxRPCMessageSize),
	)
	bridgerpc.RegisterComponentProviderServer(grpcServer, srv)

	port := lis.Addr().(*net.TCPAddr).Port
	srv.tel.Logger.Info().Int("port", port).Msg("component provider listening")
	fmt.Fprintf(handshake, "%d\n", port)

	// The accept loop is server-scoped: it has no completion of its own and
	// must never be waited on by a request drain.
	serveErr := make(chan error, 1)
	srv.tasks.Go(tasks.ScopeServer, func() {
		serveErr <- grpcServer.Serve(lis)
	})

	select {
	case <-ctx.Done():
		grpcServer.GracefulStop()
		<-serveErr
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	}
}
