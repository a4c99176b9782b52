package usecases_test

import (
	"context"
	"errors"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// --- Sinks ---

type fakeSpeech struct {
	speakFn func(text string) error
	spoken  []string
}

func (f *fakeSpeech) Speak(text string) error {
	f.spoken = append(f.spoken, text)
	if f.speakFn != nil {
		return f.speakFn(text)
	}
	return nil
}

type fakeAudio struct {
	failAll bool
	calls   []string
	hz      float64
	volume  float64
	playing bool
}

func (f *fakeAudio) err() error {
	if f.failAll {
		return errors.New("audio device unavailable")
	}
	return nil
}

func (f *fakeAudio) SetFrequency(hz float64) error {
	f.calls = append(f.calls, "frequency")
	f.hz = hz
	return f.err()
}

func (f *fakeAudio) PlayTone() error {
	f.calls = append(f.calls, "play")
	f.playing = true
	return f.err()
}

func (f *fakeAudio) PauseTone() error {
	f.calls = append(f.calls, "pause")
	f.playing = false
	return f.err()
}

func (f *fakeAudio) SetVolume(v float64) error {
	f.volume = v
	return f.err()
}

// --- Providers ---

type mockFeatureProvider struct {
	fetchFn func(ctx context.Context) ([]byte, error)
}

func (m *mockFeatureProvider) FetchFeatures(ctx context.Context) ([]byte, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx)
	}
	return []byte(`{"type":"FeatureCollection","features":[]}`), nil
}

type mockRasterProvider struct {
	metaFn func(ctx context.Context) (domain.RasterMeta, error)
	dataFn func(ctx context.Context) ([]byte, error)
}

func (m *mockRasterProvider) FetchRasterMeta(ctx context.Context) (domain.RasterMeta, error) {
	if m.metaFn != nil {
		return m.metaFn(ctx)
	}
	return domain.RasterMeta{}, errors.New("no raster")
}

func (m *mockRasterProvider) FetchRasterData(ctx context.Context) ([]byte, error) {
	if m.dataFn != nil {
		return m.dataFn(ctx)
	}
	return nil, errors.New("no raster")
}

// --- Cache ---

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

// --- Events ---

type mockPublisher struct {
	gestures      []domain.GestureKind
	announcements []string
	changes       []string
}

func (m *mockPublisher) PublishGesture(ctx context.Context, sessionID string, kind domain.GestureKind) error {
	m.gestures = append(m.gestures, kind)
	return nil
}

func (m *mockPublisher) PublishAnnouncement(ctx context.Context, sessionID, text string) error {
	m.announcements = append(m.announcements, text)
	return nil
}

func (m *mockPublisher) PublishDatasetChanged(ctx context.Context, source string) error {
	m.changes = append(m.changes, source)
	return nil
}

type mockSubscriber struct {
	settingsFn func(ctx context.Context, handler func(ctx context.Context, s domain.AudioSettings) error) error
	datasetFn  func(ctx context.Context, handler func(ctx context.Context, source string) error) error
}

func (m *mockSubscriber) SubscribeAudioSettings(ctx context.Context, handler func(ctx context.Context, s domain.AudioSettings) error) error {
	if m.settingsFn != nil {
		return m.settingsFn(ctx, handler)
	}
	return nil
}

func (m *mockSubscriber) SubscribeDatasetChanged(ctx context.Context, handler func(ctx context.Context, source string) error) error {
	if m.datasetFn != nil {
		return m.datasetFn(ctx, handler)
	}
	return nil
}
