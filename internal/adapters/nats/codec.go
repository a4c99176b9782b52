package natsadapter

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// Event payloads are google.protobuf.Struct messages so that the desktop
// application can decode them without sharing Go types.

func encodeEvent(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return proto.Marshal(s)
}

func decodeEvent(data []byte) (map[string]interface{}, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return s.AsMap(), nil
}

func encodeAudioSettings(a domain.AudioSettings) ([]byte, error) {
	return encodeEvent(map[string]interface{}{
		"min_freq": a.MinFreq,
		"max_freq": a.MaxFreq,
		"volume":   a.Volume,
	})
}

// decodeAudioSettings reads a settings update. A missing volume keeps the
// default of 1.
func decodeAudioSettings(data []byte) (domain.AudioSettings, error) {
	m, err := decodeEvent(data)
	if err != nil {
		return domain.AudioSettings{}, err
	}
	a := domain.DefaultAudioSettings()
	var ok bool
	if a.MinFreq, ok = m["min_freq"].(float64); !ok {
		return domain.AudioSettings{}, errors.New("decode audio settings: min_freq missing")
	}
	if a.MaxFreq, ok = m["max_freq"].(float64); !ok {
		return domain.AudioSettings{}, errors.New("decode audio settings: max_freq missing")
	}
	if v, ok := m["volume"].(float64); ok {
		a.Volume = v
	}
	return a, nil
}

type datasetChange struct {
	Origin string
	Source string
}

func encodeDatasetChange(c datasetChange) ([]byte, error) {
	return encodeEvent(map[string]interface{}{"origin": c.Origin, "source": c.Source})
}

func decodeDatasetChange(data []byte) (datasetChange, error) {
	m, err := decodeEvent(data)
	if err != nil {
		return datasetChange{}, err
	}
	origin, _ := m["origin"].(string)
	source, _ := m["source"].(string)
	return datasetChange{Origin: origin, Source: source}, nil
}
