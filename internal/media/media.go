// Package media turns the image references discovered during extraction
// into stored media files, substituting each placeholder in the card text
// with a reference to the stored file.
package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/consecrate/autocard/internal/extract"
)

// missingImageMarker replaces a placeholder whose image could not be
// fetched or stored. One broken image must never abort the whole card.
const missingImageMarker = "[missing image]"

// BlobStore is the note-storage capability the materializer needs: saving
// a named binary blob into the shared media namespace.
type BlobStore interface {
	StoreMediaFile(ctx context.Context, filename string, data []byte) error
}

// Fetcher resolves an asset URL to bytes and a content type.
type Fetcher interface {
	GetAsset(ctx context.Context, assetURL string) ([]byte, string, error)
}

// Materializer fetches, optionally recolors, and stores card images.
type Materializer struct {
	Fetch Fetcher
	Store BlobStore
	// Base is the page location relative image URLs resolve against.
	Base *url.URL
	// OpaqueBackground composites each image onto an opaque backdrop so
	// transparent line art stays readable on dark card themes.
	OpaqueBackground bool
	// Now is the clock used for stored filenames; nil means time.Now.
	// Filenames combine this timestamp with a per-call counter so one
	// card's images never collide in the shared blob namespace.
	Now func() time.Time
}

// Materialize processes images strictly in discovery order, sequentially:
// later placeholders must not be renamed by earlier failures, and the
// local storage endpoint is easy to overwhelm with parallel uploads. Each
// image degrades independently to a textual marker on failure.
func (m *Materializer) Materialize(ctx context.Context, text string, images []extract.ImageRef) (string, error) {
	if len(images) == 0 {
		return text, nil
	}
	stamp := time.Now
	if m.Now != nil {
		stamp = m.Now
	}
	batch := stamp().UnixMilli()
	for i, ref := range images {
		filename, err := m.materializeOne(ctx, ref, batch, i)
		if err != nil {
			log.Warn().Err(err).Str("url", ref.SourceURL).Msg("image degraded to marker")
			text = strings.Replace(text, ref.Placeholder, missingImageMarker, 1)
			continue
		}
		text = strings.Replace(text, ref.Placeholder, `<img src="`+filename+`">`, 1)
	}
	return text, nil
}

func (m *Materializer) materializeOne(ctx context.Context, ref extract.ImageRef, batch int64, n int) (string, error) {
	resolved, err := m.resolveURL(ref.SourceURL)
	if err != nil {
		return "", fmt.Errorf("resolve url: %w", err)
	}
	data, contentType, err := m.Fetch.GetAsset(ctx, resolved)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	ext := fileExt(contentType, resolved)
	if m.OpaqueBackground {
		if composited, err := AddOpaqueBackground(data); err == nil {
			data = composited
			ext = ".png"
		} else {
			// Non-raster formats keep their original bytes.
			log.Debug().Err(err).Str("url", resolved).Msg("background compositing skipped")
		}
	}
	filename := fmt.Sprintf("autocard-%d-%d%s", batch, n, ext)
	if err := m.Store.StoreMediaFile(ctx, filename, data); err != nil {
		return "", fmt.Errorf("store: %w", err)
	}
	return filename, nil
}

func (m *Materializer) resolveURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || m.Base == nil {
		return raw, nil
	}
	return m.Base.ResolveReference(u).String(), nil
}

func fileExt(contentType, resolved string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/png"):
		return ".png"
	case strings.HasPrefix(ct, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(ct, "image/gif"):
		return ".gif"
	case strings.HasPrefix(ct, "image/svg"):
		return ".svg"
	case strings.HasPrefix(ct, "image/webp"):
		return ".webp"
	}
	if ext := path.Ext(strings.SplitN(resolved, "?", 2)[0]); ext != "" && len(ext) <= 5 {
		return ext
	}
	return ".png"
}
