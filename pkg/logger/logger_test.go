package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, Config{})
	t.Cleanup(func() { Init() })

	log.Debug().Msg("hidden")
	log.Info().Str("tool", "lowStock").Msg("visible")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "visible" || entry["tool"] != "lowStock" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if _, ok := entry["caller"]; !ok {
		t.Fatalf("expected caller field: %#v", entry)
	}
}

func TestConfigLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		conf Config
		want zerolog.Level
	}{
		{Config{}, zerolog.InfoLevel},
		{Config{Debug: true}, zerolog.DebugLevel},
		{Config{Level: "warn"}, zerolog.WarnLevel},
		{Config{Level: "bogus"}, zerolog.InfoLevel},
		{Config{Debug: true, Level: "error"}, zerolog.DebugLevel},
	}
	for _, tc := range cases {
		if got := tc.conf.level(); got != tc.want {
			t.Fatalf("level(%#v) = %s, want %s", tc.conf, got, tc.want)
		}
	}
}
