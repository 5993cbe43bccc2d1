package theme

import (
	"bytes"
	"strings"
	"testing"
)

func TestBannerPlain(t *testing.T) {
	b := Banner(false)
	if strings.Contains(b, "\033[") {
		t.Fatalf("plain banner contains ANSI codes: %q", b)
	}
	if !strings.Contains(b, "SPREADSCOPE") {
		t.Fatalf("banner missing name: %q", b)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	if !strings.Contains(buf.String(), cyan) {
		t.Fatalf("colored banner missing ANSI codes")
	}
}
