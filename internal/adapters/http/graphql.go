package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"top_lat":       &graphql.Field{Type: graphql.Float},
			"bottom_lat":    &graphql.Field{Type: graphql.Float},
			"left_lon":      &graphql.Field{Type: graphql.Float},
			"right_lon":     &graphql.Field{Type: graphql.Float},
			"screen_width":  &graphql.Field{Type: graphql.Float},
			"screen_height": &graphql.Field{Type: graphql.Float},
		},
	})

	featureType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Feature",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"geometry": &graphql.Field{Type: graphql.String, Description: "GeoJSON geometry type"},
			"geojson":  &graphql.Field{Type: graphql.String, Description: "Feature encoded as GeoJSON"},
		},
	})

	rasterValueType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RasterValue",
		Fields: graphql.Fields{
			"x":         &graphql.Field{Type: graphql.Int},
			"y":         &graphql.Field{Type: graphql.Int},
			"in_bounds": &graphql.Field{Type: graphql.Boolean},
			"value":     &graphql.Field{Type: graphql.Float},
			"frequency": &graphql.Field{Type: graphql.Float},
		},
	})

	audioType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AudioSettings",
		Fields: graphql.Fields{
			"min_freq": &graphql.Field{Type: graphql.Float},
			"max_freq": &graphql.Field{Type: graphql.Float},
			"volume":   &graphql.Field{Type: graphql.Float},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DatasetStatus",
		Fields: graphql.Fields{
			"features":           &graphql.Field{Type: graphql.Int},
			"feature_generation": &graphql.Field{Type: graphql.Int},
			"raster_loaded":      &graphql.Field{Type: graphql.Boolean},
			"raster_width":       &graphql.Field{Type: graphql.Int},
			"raster_height":      &graphql.Field{Type: graphql.Int},
			"raster_min":         &graphql.Field{Type: graphql.Float},
			"raster_max":         &graphql.Field{Type: graphql.Float},
		},
	})

	pointArgs := graphql.FieldConfigArgument{
		"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"viewport": &graphql.Field{
				Type:        viewportType,
				Description: "Current viewport of a touch session",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, ok := deps.Sessions.Get(p.Args["session"].(string))
					if !ok {
						return nil, errors.New("session not found")
					}
					return s.Viewport(), nil
				},
			},
			"sessions": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Connected touch sessions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.IDs(), nil
				},
			},
			"featuresAt": &graphql.Field{
				Type:        graphql.NewList(featureType),
				Description: "Features a touch at lat/lon would report",
				Args: graphql.FieldConfigArgument{
					"lat":    pointArgs["lat"],
					"lon":    pointArgs["lon"],
					"radius": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := orb.Point{p.Args["lon"].(float64), p.Args["lat"].(float64)}
					radius := deps.Settings.Radius()
					if r, ok := p.Args["radius"].(float64); ok {
						radius = r
					}
					var result []map[string]interface{}
					for _, f := range deps.Index.Query(pt, radius) {
						result = append(result, featureMap(f))
					}
					return result, nil
				},
			},
			"rasterValue": &graphql.Field{
				Type:        rasterValueType,
				Description: "Raster cell and tone under lat/lon",
				Args:        pointArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := orb.Point{p.Args["lon"].(float64), p.Args["lat"].(float64)}
					x, y, loaded := deps.Sampler.CoordsToCell(pt)
					if !loaded {
						return nil, errors.New("no raster loaded")
					}
					m := map[string]interface{}{"x": x, "y": y, "in_bounds": false}
					if v, ok := deps.Sampler.ValueAt(pt); ok {
						m["in_bounds"] = true
						m["value"] = v
						m["frequency"] = deps.Sampler.Frequency(v, deps.Settings.Audio())
					}
					return m, nil
				},
			},
			"datasetStatus": &graphql.Field{
				Type: statusType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Datasets.Status(), nil
				},
			},
			"audioSettings": &graphql.Field{
				Type: audioType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Settings.Audio(), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"reloadDatasets": &graphql.Field{
				Type:        statusType,
				Description: "Reload both datasets from their providers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					status, err := deps.Datasets.Reload(p.Context)
					if err != nil {
						return nil, err
					}
					if deps.Events != nil {
						if err := deps.Events.PublishDatasetChanged(p.Context, "graphql"); err != nil {
							LoggerFromCtx(p.Context).Warn("publish dataset change failed", "error", err)
						}
					}
					return status, nil
				},
			},
			"setAudioSettings": &graphql.Field{
				Type: audioType,
				Args: graphql.FieldConfigArgument{
					"min_freq": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"max_freq": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"volume":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 1.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					a := domain.AudioSettings{
						MinFreq: p.Args["min_freq"].(float64),
						MaxFreq: p.Args["max_freq"].(float64),
						Volume:  p.Args["volume"].(float64),
					}
					if err := deps.Settings.SetAudio(a); err != nil {
						return nil, err
					}
					return deps.Settings.Audio(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func featureMap(f *domain.Feature) map[string]interface{} {
	m := map[string]interface{}{"name": f.Name(), "geometry": f.Kind()}
	if b, err := geoJSONFeature(f).MarshalJSON(); err == nil {
		m["geojson"] = string(b)
	}
	return m
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
