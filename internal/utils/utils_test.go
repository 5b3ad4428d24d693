package utils

import (
	"strings"
	"testing"
	"time"
)

func TestParseID(t *testing.T) {
	cases := []struct {
		in      string
		want    uint
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseID(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseID(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseID(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}

	if id, err := ParseOptionalID(""); id != nil || err != nil {
		t.Errorf("ParseOptionalID(\"\") = %v, %v", id, err)
	}
	if id, err := ParseOptionalID("7"); err != nil || id == nil || *id != 7 {
		t.Errorf("ParseOptionalID(\"7\") = %v, %v", id, err)
	}
}

func TestExtractFirstImage(t *testing.T) {
	src, alt := ExtractFirstImage(`<p>hi</p><img src="https://example.com/a.png" alt=" A cat "><img src="https://example.com/b.png">`)
	if src != "https://example.com/a.png" || alt != "A cat" {
		t.Errorf("got %q %q", src, alt)
	}
	if src, _ := ExtractFirstImage(`<img src="/relative.png">`); src != "" {
		t.Errorf("relative image should be ignored, got %q", src)
	}
	if src, _ := ExtractFirstImage("no images here"); src != "" {
		t.Errorf("got %q", src)
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText("<p>Hello   <b>world</b></p>"); got != "Hello world" {
		t.Errorf("PlainText = %q", got)
	}
	if got := PlainText("  plain\n title "); got != "plain title" {
		t.Errorf("PlainText = %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := string(RenderMarkdown("**bold** <script>alert(1)</script> [link](https://example.com)"))
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("missing bold: %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("script not stripped: %s", out)
	}
	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("external link should open in new tab: %s", out)
	}
}

func TestEnhanceHTMLContent(t *testing.T) {
	out := string(EnhanceHTMLContent(`<p>https://youtu.be/abc123?t=1</p><img src="https://example.com/x.png">`))
	if !strings.Contains(out, "youtube-nocookie.com/embed/abc123") {
		t.Errorf("video not embedded: %s", out)
	}
	if !strings.Contains(out, `loading="lazy"`) {
		t.Errorf("image not lazy: %s", out)
	}
}

func TestGetUserLevel(t *testing.T) {
	if name, _ := GetUserLevel(0); name != "Newcomer" {
		t.Errorf("got %s", name)
	}
	if name, _ := GetUserLevel(1000); name != "Veteran" {
		t.Errorf("got %s", name)
	}
	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if d := GetDaysSinceJoined(joined, joined.Add(72*time.Hour)); d != 3 {
		t.Errorf("days = %d", d)
	}
}
