package gmail

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestReceivedAt(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"Fri, 15 Mar 2024 09:30:00 +0800":       "2024-03-15T01:30:00Z",
		"Fri, 1 Mar 2024 09:30:00 +0000":        "2024-03-01T09:30:00Z",
		"Fri, 15 Mar 2024 09:30:00 -0700 (PDT)": "2024-03-15T16:30:00Z",
		"whenever":                              "2026-01-01T00:00:00Z",
		"":                                      "2026-01-01T00:00:00Z",
	}
	for in, want := range cases {
		if got := receivedAt(in, fallback); got != want {
			t.Fatalf("receivedAt(%q)=%s want %s", in, got, want)
		}
	}
}

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("Subject: hi\r\n\r\n??>>")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString(raw))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(raw) {
			t.Fatalf("got %q", got)
		}
	}
	if _, err := decodeBase64URL("***"); err == nil {
		t.Fatalf("expected decode error")
	}
}
