package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestInitNoneIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Exporter: "none"}, nil)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
}

func TestInitRejectsUnknownExporter(t *testing.T) {
	if _, err := Init(context.Background(), Config{Exporter: "jaeger"}, nil); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{Exporter: "stdout", ServiceName: "test", SampleRatio: 1}, &buf)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, span := Tracer().Start(context.Background(), "tool.call")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "tool.call") {
		t.Fatalf("span not exported: %s", buf.String())
	}
}
