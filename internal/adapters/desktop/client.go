// Package desktop fetches datasets from the desktop application's local
// dataset server.
package desktop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

const (
	pathVector     = "/get_vector"
	pathRasterMeta = "/get_raster_meta"
	pathRasterData = "/get_raster_data"
)

// ErrNoDataset is returned when the desktop application has no dataset of
// the requested kind selected for display.
var ErrNoDataset = errors.New("desktop: no dataset selected")

// Client implements ports.FeatureProvider and ports.RasterProvider.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *fasthttp.Client
}

// NewClient creates a client for the dataset server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client: &fasthttp.Client{
			Name:                "tactilemap",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: 256 << 20,
		},
	}
}

// FetchFeatures returns the GeoJSON FeatureCollection being displayed.
func (c *Client) FetchFeatures(ctx context.Context) ([]byte, error) {
	return c.get(ctx, pathVector, "application/geo+json, application/json")
}

// FetchRasterMeta returns the metadata of the raster band being displayed.
func (c *Client) FetchRasterMeta(ctx context.Context) (domain.RasterMeta, error) {
	body, err := c.get(ctx, pathRasterMeta, "application/json")
	if err != nil {
		return domain.RasterMeta{}, err
	}
	var meta domain.RasterMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return domain.RasterMeta{}, fmt.Errorf("desktop: decode raster meta: %w", err)
	}
	return meta, nil
}

// FetchRasterData returns the band as little-endian float32 values.
func (c *Client) FetchRasterData(ctx context.Context) ([]byte, error) {
	return c.get(ctx, pathRasterData, "application/octet-stream")
}

// Ping checks that the dataset server answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, pathRasterMeta, "application/json")
	if errors.Is(err, ErrNoDataset) {
		return nil
	}
	return err
}

func (c *Client) get(ctx context.Context, path, accept string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, accept)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("desktop: GET %s: %w", path, err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound || status == fasthttp.StatusNoContent:
		return nil, fmt.Errorf("GET %s: %w", path, ErrNoDataset)
	case status != fasthttp.StatusOK:
		return nil, fmt.Errorf("desktop: GET %s: status %d", path, status)
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("desktop: GET %s: %w", path, err)
	}
	// resp is returned to the pool; copy the body out.
	return append([]byte(nil), body...), nil
}
