package qrcode

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
)

func TestEncodeProducesPNGDataURL(t *testing.T) {
	enc := NewEncoder()
	url, err := enc.Encode("DB-0042")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.40s", url)
	}

	raw, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Fatalf("width = %d, want 256", img.Bounds().Dx())
	}

	again, _ := enc.Encode("DB-0042")
	if again != url {
		t.Fatal("encoding is not deterministic")
	}
}

func TestEncodeRejectsEmpty(t *testing.T) {
	if _, err := NewEncoder().Encode(""); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestDecodeDataURLVariants(t *testing.T) {
	got, err := DecodeDataURL("aGVsbG8=")
	if err != nil || string(got) != "hello" {
		t.Fatalf("raw base64 = %q, %v", got, err)
	}
	if _, err := DecodeDataURL("data:image/png,hello"); !errors.Is(err, ErrNotBase64) {
		t.Fatalf("plain data url err = %v", err)
	}
	if _, err := DecodeDataURL("data:image/png;base64,@@@"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}
