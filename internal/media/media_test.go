package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"testing"
	"time"

	"github.com/consecrate/autocard/internal/extract"
)

type fakeFetcher struct {
	blobs map[string][]byte
	types map[string]string
	seen  []string
}

func (f *fakeFetcher) GetAsset(_ context.Context, assetURL string) ([]byte, string, error) {
	f.seen = append(f.seen, assetURL)
	data, ok := f.blobs[assetURL]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return data, f.types[assetURL], nil
}

type fakeStore struct {
	files map[string][]byte
	fail  bool
}

func (s *fakeStore) StoreMediaFile(_ context.Context, filename string, data []byte) error {
	if s.fail {
		return errors.New("store unavailable")
	}
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[filename] = data
	return nil
}

func fixedClock() time.Time {
	return time.UnixMilli(1700000000000)
}

func TestMaterialize_FailureIsolatedPerImage(t *testing.T) {
	fetch := &fakeFetcher{
		blobs: map[string][]byte{
			"https://x.test/a.png": {1},
			"https://x.test/c.png": {3},
		},
		types: map[string]string{
			"https://x.test/a.png": "image/png",
			"https://x.test/c.png": "image/png",
		},
	}
	store := &fakeStore{}
	m := &Materializer{Fetch: fetch, Store: store, Now: fixedClock}

	text := "{{IMG_0}} and {{IMG_1}} and {{IMG_2}}"
	images := []extract.ImageRef{
		{Placeholder: "{{IMG_0}}", SourceURL: "https://x.test/a.png"},
		{Placeholder: "{{IMG_1}}", SourceURL: "https://x.test/b.png"},
		{Placeholder: "{{IMG_2}}", SourceURL: "https://x.test/c.png"},
	}
	out, err := m.Materialize(context.Background(), text, images)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	want := `<img src="autocard-1700000000000-0.png"> and [missing image] and <img src="autocard-1700000000000-2.png">`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
	if len(store.files) != 2 {
		t.Fatalf("stored %d files, want 2", len(store.files))
	}
}

func TestMaterialize_StoreFailureAlsoDegrades(t *testing.T) {
	fetch := &fakeFetcher{
		blobs: map[string][]byte{"https://x.test/a.png": {1}},
		types: map[string]string{"https://x.test/a.png": "image/png"},
	}
	m := &Materializer{Fetch: fetch, Store: &fakeStore{fail: true}, Now: fixedClock}

	out, err := m.Materialize(context.Background(), "{{IMG_0}}", []extract.ImageRef{
		{Placeholder: "{{IMG_0}}", SourceURL: "https://x.test/a.png"},
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if out != "[missing image]" {
		t.Fatalf("got %q", out)
	}
}

func TestMaterialize_RelativeURLResolvesAgainstBase(t *testing.T) {
	fetch := &fakeFetcher{
		blobs: map[string][]byte{"https://lessons.test/unit/img/fig.gif": {1}},
		types: map[string]string{"https://lessons.test/unit/img/fig.gif": "image/gif"},
	}
	base, _ := url.Parse("https://lessons.test/unit/lesson-3")
	m := &Materializer{Fetch: fetch, Store: &fakeStore{}, Base: base, Now: fixedClock}

	out, err := m.Materialize(context.Background(), "{{IMG_0}}", []extract.ImageRef{
		{Placeholder: "{{IMG_0}}", SourceURL: "img/fig.gif"},
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(fetch.seen) != 1 || fetch.seen[0] != "https://lessons.test/unit/img/fig.gif" {
		t.Fatalf("fetched %v", fetch.seen)
	}
	if out != `<img src="autocard-1700000000000-0.gif">` {
		t.Fatalf("got %q", out)
	}
}

func TestMaterialize_NoImagesLeavesTextUntouched(t *testing.T) {
	m := &Materializer{}
	out, err := m.Materialize(context.Background(), "plain text", nil)
	if err != nil || out != "plain text" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestAddOpaqueBackground_TransparentBecomesWhite(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{}) // fully transparent
	src.SetRGBA(1, 0, color.RGBA{R: 255, A: 255})

	out, err := AddOpaqueBackground(encodePNG(t, src))
	if err != nil {
		t.Fatalf("AddOpaqueBackground: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, g, b, a := decoded.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Fatalf("transparent pixel = %d,%d,%d,%d, want opaque white", r, g, b, a)
	}
	r, _, _, a = decoded.At(1, 0).RGBA()
	if r != 0xffff || a != 0xffff {
		t.Fatalf("opaque pixel changed: r=%d a=%d", r, a)
	}
}

func TestAddOpaqueBackground_RejectsNonImage(t *testing.T) {
	if _, err := AddOpaqueBackground([]byte("<svg></svg>")); err == nil {
		t.Fatalf("expected decode error for non-raster data")
	}
}

func TestMaterialize_OpaqueBackgroundForcesPNGName(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1, 1))
	fetch := &fakeFetcher{
		blobs: map[string][]byte{"https://x.test/fig.gif": nil},
		types: map[string]string{"https://x.test/fig.gif": "image/gif"},
	}
	// A real PNG served under a gif name: compositing re-encodes to PNG
	// and the stored name must follow the bytes, not the URL.
	fetch.blobs["https://x.test/fig.gif"] = encodePNG(t, src)
	store := &fakeStore{}
	m := &Materializer{Fetch: fetch, Store: store, OpaqueBackground: true, Now: fixedClock}

	out, err := m.Materialize(context.Background(), "{{IMG_0}}", []extract.ImageRef{
		{Placeholder: "{{IMG_0}}", SourceURL: "https://x.test/fig.gif"},
	})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if out != `<img src="autocard-1700000000000-0.png">` {
		t.Fatalf("got %q", out)
	}
	if _, ok := store.files["autocard-1700000000000-0.png"]; !ok {
		t.Fatalf("stored files: %v", store.files)
	}
}

func TestFileExt(t *testing.T) {
	cases := []struct {
		contentType string
		url         string
		want        string
	}{
		{"image/png", "https://x.test/a", ".png"},
		{"image/jpeg; charset=binary", "https://x.test/a", ".jpg"},
		{"image/svg+xml", "https://x.test/a", ".svg"},
		{"", "https://x.test/fig.webp?v=2", ".webp"},
		{"application/octet-stream", "https://x.test/noext", ".png"},
	}
	for _, tc := range cases {
		if got := fileExt(tc.contentType, tc.url); got != tc.want {
			t.Fatalf("fileExt(%q, %q) = %q, want %q", tc.contentType, tc.url, got, tc.want)
		}
	}
}
