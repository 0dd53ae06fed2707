package verify

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fan-verifier/internal/fetch"
	"github.com/jonathan/fan-verifier/internal/metrics"
	"github.com/jonathan/fan-verifier/internal/ocr"
	"github.com/jonathan/fan-verifier/internal/types"
)

type fakeText struct {
	text  types.ExtractedText
	calls atomic.Int32
}

func (f *fakeText) Extract(_ context.Context, _ []byte, ct types.ContentType) (types.ExtractedText, error) {
	f.calls.Add(1)
	if !ct.Supported() {
		return types.AbsentText(), ocr.ErrUnsupportedContentType
	}
	return f.text, nil
}

type fakeProfiles struct {
	mu      sync.Mutex
	byURL   map[string]fetch.Extraction
	seen    []string
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeProfiles) Extract(_ context.Context, url string, _ types.Platform) fetch.Extraction {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, url)
	if ext, ok := f.byURL[url]; ok {
		return ext
	}
	return fetch.Extraction{Strategy: fetch.StrategyNone}
}

func TestVerifyDocument_Matched(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	docs := &fakeText{text: types.PresentText("REPUBLICA FEDERATIVA DO BRASIL\nNOME: JOÃO DA SILVA")}
	svc := NewService(docs, nil, Options{Metrics: m})

	verdict, err := svc.VerifyDocument(context.Background(), types.DocumentRequest{
		Data:          []byte("img"),
		ContentType:   types.ContentTypePNG,
		CandidateName: "João da Silva",
	})
	require.NoError(t, err)

	assert.True(t, verdict.Matched)
	assert.Equal(t, types.MatchRuleFullName, verdict.Rule)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentVerdicts.WithLabelValues(metrics.OutcomeMatched)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OCRFailures.WithLabelValues("image/png")))
}

func TestVerifyDocument_UnsupportedContentType(t *testing.T) {
	docs := &fakeText{}
	svc := NewService(docs, nil, Options{})

	_, err := svc.VerifyDocument(context.Background(), types.DocumentRequest{
		Data:          []byte("GIF89a"),
		ContentType:   "image/gif",
		CandidateName: "Ana",
	})
	require.ErrorIs(t, err, ocr.ErrUnsupportedContentType)
	assert.Contains(t, err.Error(), "image/gif")
	assert.Zero(t, docs.calls.Load(), "rejected before extraction")
}

func TestVerifyDocument_AbsentTextIsNotMatched(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := NewService(&fakeText{text: types.AbsentText()}, nil, Options{Metrics: m})

	verdict, err := svc.VerifyDocument(context.Background(), types.DocumentRequest{
		Data:          []byte("%PDF"),
		ContentType:   types.ContentTypePDF,
		CandidateName: "Ana Souza",
	})
	require.NoError(t, err)

	assert.False(t, verdict.Matched)
	assert.Equal(t, types.MatchRuleNone, verdict.Rule)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OCRFailures.WithLabelValues("application/pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentVerdicts.WithLabelValues(metrics.OutcomeNoText)))
}

func TestVerifyDocument_TooLargeSkipsRecognition(t *testing.T) {
	docs := &fakeText{text: types.PresentText("Ana Souza")}
	svc := NewService(docs, nil, Options{MaxDocumentBytes: 4})

	verdict, err := svc.VerifyDocument(context.Background(), types.DocumentRequest{
		Data:          []byte("0123456789"),
		ContentType:   types.ContentTypeJPEG,
		CandidateName: "Ana Souza",
	})
	require.NoError(t, err)
	assert.False(t, verdict.Matched)
	assert.Zero(t, docs.calls.Load())
}

func TestVerifyProfile_Relevant(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	profiles := &fakeProfiles{byURL: map[string]fetch.Extraction{
		"https://x.com/fan": {Text: "Fã da FURIA, jogo CS:GO e valorant", Strategy: fetch.StrategyRendered},
	}}
	svc := NewService(nil, profiles, Options{Metrics: m})

	profile := svc.VerifyProfile(context.Background(), "https://x.com/fan", types.PlatformTwitter, []string{"FURIA"})

	assert.Equal(t, types.PlatformTwitter, profile.Platform)
	assert.Equal(t, "rendered", profile.Strategy)
	assert.True(t, profile.Result.Relevant)
	assert.Equal(t, []string{"furia"}, profile.Result.MatchedInterests)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProfileExtractions.WithLabelValues("twitter", "rendered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelevanceVerdicts.WithLabelValues("twitter", "true")))
}

func TestVerifyProfile_NoContent(t *testing.T) {
	svc := NewService(nil, &fakeProfiles{}, Options{})

	profile := svc.VerifyProfile(context.Background(), "https://x.com/gone", types.PlatformTwitter, nil)

	assert.Equal(t, "none", profile.Strategy)
	assert.Empty(t, profile.Content)
	assert.False(t, profile.Result.Relevant)
	assert.Equal(t, 0.0, profile.Result.Confidence)
}

func TestVerifyProfiles_OrderAndValidation(t *testing.T) {
	profiles := &fakeProfiles{
		delay: 20 * time.Millisecond,
		byURL: map[string]fetch.Extraction{
			"https://twitter.com/a":              {Text: "esports fps valorant furia", Strategy: fetch.StrategyStatic},
			"https://steamcommunity.com/id/b":    {Text: "nada", Strategy: fetch.StrategyGeneric},
			"https://gamersclub.com.br/player/1": {Text: "csgo", Strategy: fetch.StrategyStatic},
		},
	}
	svc := NewService(nil, profiles, Options{Workers: 2})

	reqs := []types.ProfileRequest{
		{Platform: types.PlatformTwitter, URL: "https://twitter.com/a"},
		{Platform: types.PlatformInstagram, URL: "https://twitter.com/wrong"},
		{Platform: types.PlatformSteam, URL: "https://steamcommunity.com/id/b"},
		{Platform: "myspace", URL: "https://myspace.com/c"},
		{Platform: types.PlatformGamersClub, URL: "https://gamersclub.com.br/player/1"},
	}
	outcomes := svc.VerifyProfiles(context.Background(), reqs, nil)
	require.Len(t, outcomes, len(reqs))

	for i, req := range reqs {
		assert.Equal(t, req.URL, outcomes[i].URL)
	}

	assert.True(t, outcomes[0].Valid)
	require.NotNil(t, outcomes[0].Profile)
	assert.True(t, outcomes[0].Profile.Result.Relevant)

	assert.False(t, outcomes[1].Valid)
	assert.Nil(t, outcomes[1].Profile)
	assert.Contains(t, outcomes[1].Error, ErrInvalidProfileURL.Error())

	require.NotNil(t, outcomes[2].Profile)
	assert.False(t, outcomes[2].Profile.Result.Relevant)

	assert.False(t, outcomes[3].Valid)
	assert.Contains(t, outcomes[3].Error, "invalid profile request")

	require.NotNil(t, outcomes[4].Profile)
	assert.Equal(t, "static", outcomes[4].Profile.Strategy)

	assert.ElementsMatch(t, []string{
		"https://twitter.com/a",
		"https://steamcommunity.com/id/b",
		"https://gamersclub.com.br/player/1",
	}, profiles.seen)
	assert.LessOrEqual(t, profiles.maxSeen.Load(), int32(2))
}

func TestVerifyProfiles_Empty(t *testing.T) {
	svc := NewService(nil, &fakeProfiles{}, Options{})
	assert.Empty(t, svc.VerifyProfiles(context.Background(), nil, nil))
}

func TestNewService_DefaultWorkers(t *testing.T) {
	svc := NewService(nil, nil, Options{})
	assert.Equal(t, DefaultWorkers, svc.opts.Workers)
}
