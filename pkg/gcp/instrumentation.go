package gcp

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/grafana/dskit/grpcclient"
	"github.com/grafana/dskit/instrument"
	otgrpc "github.com/opentracing-contrib/go-grpc"
	"github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/grafana/gcpclients/pkg/util/constants"
)

// Metrics holds the request metrics shared by every client dialed with Dial.
// Create it once per registerer.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the client metrics with r.
func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		requestDuration: promauto.With(r).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: constants.Namespace,
			Name:      "grpc_request_duration_seconds",
			Help:      "Time spent doing Google Cloud gRPC requests.",

			// Admin latency ranges from a few ms to several seconds.
			// 8 buckets from 128us to 2s.
			Buckets: prometheus.ExponentialBuckets(0.000128, 4, 8),
		}, []string{"service", "operation", "status_code"}),
	}
}

// interceptors builds the unary and stream client chains for cfg.
func interceptors(cfg ClientConfig, service string, m *Metrics) ([]grpc.UnaryClientInterceptor, []grpc.StreamClientInterceptor) {
	tracer := opentracing.GlobalTracer()
	unary := []grpc.UnaryClientInterceptor{
		otgrpc.OpenTracingClientInterceptor(tracer),
	}
	stream := []grpc.StreamClientInterceptor{
		otgrpc.OpenTracingStreamClientInterceptor(tracer),
	}
	if m != nil {
		unary = append(unary, m.unaryInstrumentation(service))
		stream = append(stream, m.streamInstrumentation(service))
	}
	if len(cfg.Metadata) > 0 {
		unary = append(unary, metadataInterceptor(cfg.Metadata))
		stream = append(stream, metadataStreamInterceptor(cfg.Metadata))
	}
	if cfg.Timeout > 0 {
		unary = append(unary, timeoutInterceptor(cfg.Timeout))
	}
	if cfg.BackoffOnRatelimits {
		unary = append(unary, grpcclient.NewRateLimitRetrier(cfg.BackoffConfig))
	}
	unary = append(unary, cfg.Interceptors...)
	return unary, stream
}

func (m *Metrics) unaryInstrumentation(service string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context, method string, req, resp interface{},
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
	) error {
		start := time.Now()
		err := invoker(ctx, method, req, resp, cc, opts...)
		m.requestDuration.WithLabelValues(service, method, instrument.ErrorCode(err)).Observe(time.Since(start).Seconds())
		return err
	}
}

func (m *Metrics) streamInstrumentation(service string) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string,
		streamer grpc.Streamer, opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		start := time.Now()
		stream, err := streamer(ctx, desc, cc, method, opts...)
		if err != nil {
			m.requestDuration.WithLabelValues(service, method, instrument.ErrorCode(err)).Observe(time.Since(start).Seconds())
			return nil, err
		}
		return &instrumentedClientStream{
			start:        start,
			service:      service,
			method:       method,
			metrics:      m,
			ClientStream: stream,
		}, nil
	}
}

type instrumentedClientStream struct {
	start   time.Time
	service string
	method  string
	metrics *Metrics
	grpc.ClientStream
}

func (s *instrumentedClientStream) RecvMsg(m interface{}) error {
	err := s.ClientStream.RecvMsg(m)
	if err == nil {
		return err
	}

	if err == io.EOF {
		s.metrics.requestDuration.WithLabelValues(s.service, s.method, instrument.ErrorCode(nil)).Observe(time.Since(s.start).Seconds())
	} else {
		s.metrics.requestDuration.WithLabelValues(s.service, s.method, instrument.ErrorCode(err)).Observe(time.Since(s.start).Seconds())
	}

	return err
}

func metadataPairs(md map[string]string) []string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, md[k])
	}
	return kv
}

func metadataInterceptor(md map[string]string) grpc.UnaryClientInterceptor {
	kv := metadataPairs(md)
	return func(
		ctx context.Context, method string, req, resp interface{},
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
	) error {
		return invoker(metadata.AppendToOutgoingContext(ctx, kv...), method, req, resp, cc, opts...)
	}
}

func metadataStreamInterceptor(md map[string]string) grpc.StreamClientInterceptor {
	kv := metadataPairs(md)
	return func(
		ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string,
		streamer grpc.Streamer, opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		return streamer(metadata.AppendToOutgoingContext(ctx, kv...), desc, cc, method, opts...)
	}
}

func timeoutInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context, method string, req, resp interface{},
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
	) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return invoker(ctx, method, req, resp, cc, opts...)
	}
}
