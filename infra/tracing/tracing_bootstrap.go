package tracing

import (
	"io"
	"wetlands/common"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Bootstrap builds a jaeger tracer from JAEGER_* environment variables and
// installs it as the opentracing global tracer. When reporting is not
// configured the tracer stays a local no-op.
func Bootstrap() io.Closer {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logrus.Warnf("failed to load tracing config: %v\n", err)
		return nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = common.GetServiceName()
	}

	tracer, closer, err := cfg.NewTracer()
	if err != nil {
		logrus.Warnf("failed to build tracer: %v\n", err)
		return nil
	}
	opentracing.SetGlobalTracer(tracer)
	return closer
}
