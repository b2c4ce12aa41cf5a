package capture

import (
	"context"
	"testing"
)

func TestOptionsDefaults(t *testing.T) {
	o := Options{URL: "http://127.0.0.1:8080/agenda", OutputPath: "out.png"}
	if err := o.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout == 0 {
		t.Fatalf("defaults not applied: %+v", o)
	}
}

func TestAgendaPNGRequiresURLAndOutput(t *testing.T) {
	if err := AgendaPNG(context.Background(), Options{OutputPath: "x.png"}); err == nil {
		t.Fatalf("expected error without URL")
	}
	if err := AgendaPNG(context.Background(), Options{URL: "http://x"}); err == nil {
		t.Fatalf("expected error without output path")
	}
}
