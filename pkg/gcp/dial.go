package gcp

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	gtransport "google.golang.org/api/transport/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Target describes the remote service a connection is dialed for.
type Target struct {
	// Service labels metrics, e.g. "bigtable_admin".
	Service string
	// DefaultEndpoint is used when the config does not override it.
	DefaultEndpoint string
	Scopes          []string
	// DefaultLibName names the library in the user agent.
	DefaultLibName string
}

// ClientOptions converts cfg into options understood by google.golang.org/api.
func ClientOptions(cfg ClientConfig, target Target, m *Metrics) []option.ClientOption {
	unary, stream := interceptors(cfg, target.Service, m)
	endpoint := target.DefaultEndpoint
	if cfg.Endpoint != "" {
		endpoint = cfg.Endpoint
	}
	opts := []option.ClientOption{
		option.WithUserAgent(cfg.UserAgent(target.DefaultLibName)),
		option.WithGRPCDialOption(grpc.WithChainUnaryInterceptor(unary...)),
		option.WithGRPCDialOption(grpc.WithChainStreamInterceptor(stream...)),
	}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if len(target.Scopes) > 0 {
		opts = append(opts, option.WithScopes(target.Scopes...))
	}
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.Credentials.String() != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Credentials.String())))
	}
	return opts
}

// Dial opens a connection to target. When cfg names an emulator the
// connection is plaintext and unauthenticated. Extra options are applied last
// and win over the ones derived from cfg.
func Dial(ctx context.Context, cfg ClientConfig, target Target, m *Metrics, extra ...option.ClientOption) (*grpc.ClientConn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.EmulatorHost != "" {
		unary, stream := interceptors(cfg, target.Service, m)
		conn, err := grpc.NewClient(cfg.EmulatorHost,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithChainUnaryInterceptor(unary...),
			grpc.WithChainStreamInterceptor(stream...),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "dialing emulator %s", cfg.EmulatorHost)
		}
		return conn, nil
	}

	opts := append(ClientOptions(cfg, target, m), extra...)
	conn, err := gtransport.Dial(ctx, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", target.Service)
	}
	return conn, nil
}
