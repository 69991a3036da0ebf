package cmsloader

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	_ "golang.org/x/image/webp"
)

// maxProbeSize bounds how much of an image is read to decode its header.
const maxProbeSize = 1 << 20 // 1MB

// ImageProbe reads image dimensions from the image itself.
type ImageProbe struct {
	httpClient *http.Client
}

// NewImageProbe returns a probe using hc, or http.DefaultClient when nil.
func NewImageProbe(hc *http.Client) *ImageProbe {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &ImageProbe{httpClient: hc}
}

// Probe fetches src and decodes its header. GIF, JPEG, PNG and WebP are
// supported.
func (p *ImageProbe) Probe(ctx context.Context, src string) (Dimensions, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return Dimensions{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Dimensions{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Dimensions{}, fmt.Errorf("fetch image: %s", resp.Status)
	}
	return decodeDimensions(io.LimitReader(resp.Body, maxProbeSize))
}

// decodeDimensions decodes only the image header of r.
func decodeDimensions(r io.Reader) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return Dimensions{}, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, fmt.Errorf("decode image: empty bounds")
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
