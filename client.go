package sports

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var (
	ErrNoTemporalHost      = errors.New("TEMPORAL_HOST is not set")
	ErrNoTemporalNamespace = errors.New("TEMPORAL_NAMESPACE is not set")
	ErrNoTemporalAPIKey    = errors.New("TEMPORAL_API_KEY is not set")
)

// IsLocalTemporal reports whether host is a local dev server, which runs
// without TLS or an API key.
func IsLocalTemporal(host string) bool {
	return host == "localhost:7233" || host == "host.docker.internal:7233"
}

// ClientOptions builds Temporal client options for a local server or a
// Temporal Cloud namespace.
func ClientOptions(tc TemporalConfig, logger *slog.Logger) (client.Options, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tc.Host == "" {
		return client.Options{}, ErrNoTemporalHost
	}
	if tc.Namespace == "" {
		return client.Options{}, ErrNoTemporalNamespace
	}

	clientOptions := client.Options{
		HostPort:  tc.Host,
		Namespace: tc.Namespace,
		Logger:    tlog.NewStructuredLogger(logger),
	}

	if IsLocalTemporal(tc.Host) {
		return clientOptions, nil
	}
	if tc.APIKey == "" {
		return client.Options{}, ErrNoTemporalAPIKey
	}

	namespace := tc.Namespace
	clientOptions.Credentials = client.NewAPIKeyStaticCredentials(tc.APIKey)
	clientOptions.ConnectionOptions = client.ConnectionOptions{
		TLS: &tls.Config{},
		DialOptions: []grpc.DialOption{
			grpc.WithUnaryInterceptor(
				func(ctx context.Context, method string, req any, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
					return invoker(
						metadata.AppendToOutgoingContext(ctx, "temporal-namespace", namespace),
						method,
						req,
						reply,
						cc,
						opts...,
					)
				},
			),
		},
	}
	return clientOptions, nil
}

// Dial connects to Temporal using the configuration.
func Dial(cfg Config, logger *slog.Logger) (client.Client, error) {
	opts, err := ClientOptions(cfg.Temporal, logger)
	if err != nil {
		return nil, err
	}
	return client.Dial(opts)
}
