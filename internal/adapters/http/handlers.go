package http

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
)

// queryPoint reads lon/lat query parameters.
func queryPoint(c *fiber.Ctx) (orb.Point, error) {
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
		return orb.Point{}, errors.New("lon must be a number within [-180, 180]")
	}
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return orb.Point{}, errors.New("lat must be a number within [-90, 90]")
	}
	return orb.Point{lon, lat}, nil
}

func geoJSONFeature(f *domain.Feature) *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.ID = f.ID
	gf.Properties = geojson.Properties(f.Properties)
	return gf
}

// FeaturesAtHandler returns the features a touch at lon/lat would report,
// as a GeoJSON FeatureCollection in load order.
func FeaturesAtHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := deps.Settings.Radius()
		if r := c.Query("radius"); r != "" {
			radius, err = strconv.ParseFloat(r, 64)
			if err != nil || radius < 0 || math.IsNaN(radius) {
				return errBadRequest(c, "radius must be a non-negative number")
			}
		}

		fc := geojson.NewFeatureCollection()
		for _, f := range deps.Index.Query(p, radius) {
			fc.Append(geoJSONFeature(f))
		}
		return c.JSON(fc)
	}
}

// RasterValueHandler returns the raster cell and value under lon/lat and
// the tone frequency it would produce.
func RasterValueHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		x, y, loaded := deps.Sampler.CoordsToCell(p)
		if !loaded {
			return errNotFound(c, "no raster loaded")
		}

		resp := fiber.Map{"cell": [2]int{x, y}, "in_bounds": false}
		if corner, ok := deps.Sampler.CellToCoords(x, y); ok {
			resp["cell_origin"] = corner
		}
		if v, ok := deps.Sampler.ValueAt(p); ok {
			resp["in_bounds"] = true
			resp["value"] = v
			resp["frequency"] = deps.Sampler.Frequency(v, deps.Settings.Audio())
		}
		return c.JSON(resp)
	}
}

// RasterInfoHandler describes the loaded raster grid.
func RasterInfoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g := deps.Sampler.Grid()
		b, ok := deps.Sampler.Bounds()
		if g == nil || !ok {
			return errNotFound(c, "no raster loaded")
		}
		return c.JSON(fiber.Map{
			"width":        g.Width,
			"height":       g.Height,
			"x_resolution": g.XResolution,
			"y_resolution": g.YResolution,
			"min":          g.Min,
			"max":          g.Max,
			"bounds":       [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]},
		})
	}
}

// ListSessionsHandler lists connected touch sessions.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids := deps.Sessions.IDs()
		pg, start, end := paginate(c, len(ids), 50, 200)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: ids[start:end], Pagination: pg})
	}
}

// ViewportHandler returns a session's current viewport and feedback state.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, ok := deps.Sessions.Get(c.Params("session"))
		if !ok {
			return errNotFound(c, "session not found")
		}
		return c.JSON(fiber.Map{
			"session":  s.ID(),
			"viewport": s.Viewport(),
			"state":    s.State().String(),
		})
	}
}

// GetAudioSettingsHandler returns the shared audio settings.
func GetAudioSettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Settings.Audio())
	}
}

// audioBroadcaster is implemented by publishers that can share settings
// with other instances.
type audioBroadcaster interface {
	PublishAudioSettings(ctx context.Context, a domain.AudioSettings) error
}

// PutAudioSettingsHandler replaces the shared audio settings.
func PutAudioSettingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var a domain.AudioSettings
		if err := c.BodyParser(&a); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := deps.Settings.SetAudio(a); err != nil {
			return errBadRequest(c, err.Error())
		}
		log := LoggerFromCtx(c.UserContext())
		log.Info("audio settings updated", "min_freq", a.MinFreq, "max_freq", a.MaxFreq)
		if b, ok := deps.Events.(audioBroadcaster); ok {
			if err := b.PublishAudioSettings(c.UserContext(), a); err != nil {
				log.Warn("broadcast audio settings failed", "error", err)
			}
		}
		return c.JSON(deps.Settings.Audio())
	}
}

// DatasetStatusHandler reports what is loaded.
func DatasetStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Datasets.Status())
	}
}

// ReloadDatasetsHandler reloads both datasets from the configured
// providers and announces the change.
func ReloadDatasetsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		status, err := deps.Datasets.Reload(ctx)
		switch {
		case err == nil:
		case errors.Is(err, usecases.ErrSuperseded):
			return errConflict(c, "a newer reload is in progress")
		case errors.Is(err, features.ErrInvalidFeatureCollection),
			errors.Is(err, raster.ErrNoFiniteValues),
			errors.Is(err, raster.ErrShapeMismatch),
			errors.Is(err, raster.ErrInvalidMeta):
			return errUnprocessable(c, err.Error())
		default:
			LoggerFromCtx(ctx).Error("dataset reload failed", "error", err)
			return errUnavailable(c, err.Error())
		}

		if deps.Events != nil {
			if err := deps.Events.PublishDatasetChanged(ctx, "http"); err != nil {
				LoggerFromCtx(ctx).Warn("publish dataset change failed", "error", err)
			}
		}
		return c.JSON(status)
	}
}
