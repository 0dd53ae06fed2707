package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/fan-verifier/internal/types"
)

// fakeSession serves canned text per selector.
type fakeSession struct {
	navigateErr error
	waitErr     error
	texts       map[string][]string
	source      string

	navigated string
	waited    string
}

func (s *fakeSession) Navigate(url string) error {
	s.navigated = url
	return s.navigateErr
}

func (s *fakeSession) WaitFor(selector string, _ time.Duration) error {
	s.waited = selector
	return s.waitErr
}

func (s *fakeSession) FindText(selector string) ([]string, error) {
	return s.texts[selector], nil
}

func (s *fakeSession) PageSource() (string, error) {
	if s.source == "" {
		return "", errors.New("no page")
	}
	return s.source, nil
}

type fakeBrowser struct {
	session  *fakeSession
	startErr error

	opened atomic.Int32
	closed atomic.Int32
}

func (b *fakeBrowser) WithSession(_ context.Context, fn func(Session) error) error {
	if b.startErr != nil {
		return b.startErr
	}
	b.opened.Add(1)
	defer b.closed.Add(1)
	return fn(b.session)
}

func fastOptions() ExtractorOptions {
	return ExtractorOptions{LandmarkTimeout: time.Second, SettleDelay: 0}
}

func htmlServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestExtract_RenderedStructural(t *testing.T) {
	session := &fakeSession{texts: map[string][]string{
		"div[data-testid='UserDescription']":   {"Fã da FURIA", "  ", "jogador de valorant"},
		"article div[data-testid='tweetText']": {"vamos  furia", "  ", "cs2 hoje"},
		"body":                                 {"should not be used"},
	}}
	browser := &fakeBrowser{session: session}
	server, hits := htmlServer(t, http.StatusOK, "<p>static</p>")

	e := NewExtractor(browser, nil, fastOptions())
	got := e.Extract(context.Background(), server.URL, types.PlatformTwitter)

	assert.Equal(t, Extraction{Text: "Fã da FURIA jogador de valorant vamos furia cs2 hoje", Strategy: StrategyRendered}, got)
	assert.Equal(t, server.URL, session.navigated)
	assert.Equal(t, "article", session.waited)
	assert.Equal(t, int32(1), browser.opened.Load())
	assert.Equal(t, int32(1), browser.closed.Load())
	assert.Zero(t, hits.Load())
}

func TestExtract_RenderedCollectsEveryBioMatch(t *testing.T) {
	session := &fakeSession{texts: map[string][]string{
		"header div[class*='bio']": {"jogador da furia", "valorant cs:go"},
	}}
	e := NewExtractor(&fakeBrowser{session: session}, nil, fastOptions())

	got := e.Extract(context.Background(), "https://instagram.com/fan", types.PlatformInstagram)
	assert.Equal(t, Extraction{Text: "jogador da furia valorant cs:go", Strategy: StrategyRendered}, got)
}

func TestExtract_RenderedFallsBackToBody(t *testing.T) {
	session := &fakeSession{texts: map[string][]string{
		"body": {"Perfil\n\n  de   jogador"},
	}}
	e := NewExtractor(&fakeBrowser{session: session}, nil, fastOptions())

	got := e.Extract(context.Background(), "https://steamcommunity.com/id/fan", types.PlatformSteam)
	assert.Equal(t, Extraction{Text: "Perfil de jogador", Strategy: StrategyRendered}, got)
	assert.Equal(t, ".profile_page", session.waited)
}

func TestExtract_UnknownPlatformWaitsForBody(t *testing.T) {
	session := &fakeSession{texts: map[string][]string{"body": {"hello"}}}
	e := NewExtractor(&fakeBrowser{session: session}, nil, fastOptions())

	got := e.Extract(context.Background(), "https://example.com/fan", types.PlatformUnknown)
	assert.Equal(t, StrategyRendered, got.Strategy)
	assert.Equal(t, "body", session.waited)
}

func TestExtract_CapturedMarkupAfterRenderFailure(t *testing.T) {
	session := &fakeSession{
		waitErr: context.DeadlineExceeded,
		source:  `<html><body><div class="profile_summary">csgo player</div></body></html>`,
	}
	browser := &fakeBrowser{session: session}
	server, hits := htmlServer(t, http.StatusOK, "<p>static</p>")

	e := NewExtractor(browser, nil, fastOptions())
	got := e.Extract(context.Background(), server.URL, types.PlatformSteam)

	assert.Equal(t, Extraction{Text: "csgo player", Strategy: StrategyCaptured}, got)
	assert.Equal(t, int32(1), browser.closed.Load())
	assert.Zero(t, hits.Load())
}

func TestExtract_StaticAfterBrowserUnavailable(t *testing.T) {
	browser := &fakeBrowser{startErr: errors.New("chrome not found")}
	server, _ := htmlServer(t, http.StatusOK, `<html><body>
		<header><section><div>Jogo valorant</div></section></header>
		<article><div><span>post sobre furia</span></div></article>
	</body></html>`)

	e := NewExtractor(browser, nil, fastOptions())
	got := e.Extract(context.Background(), server.URL, types.PlatformInstagram)

	assert.Equal(t, Extraction{Text: "Jogo valorant post sobre furia", Strategy: StrategyStatic}, got)
}

func TestExtract_StaticWithoutBrowser(t *testing.T) {
	server, _ := htmlServer(t, http.StatusOK, `<div class="player-stats">KD 1.2</div>`)

	got := NewExtractor(nil, nil, fastOptions()).Extract(context.Background(), server.URL, types.PlatformGamersClub)
	assert.Equal(t, Extraction{Text: "KD 1.2", Strategy: StrategyStatic}, got)
}

func TestExtract_GenericFallback(t *testing.T) {
	server, _ := htmlServer(t, http.StatusOK, `<html><head><script>x()</script></head>
		<body><p>sem   seletores</p><p>aqui</p></body></html>`)

	got := NewExtractor(nil, nil, fastOptions()).Extract(context.Background(), server.URL, types.PlatformSteam)
	assert.Equal(t, Extraction{Text: "sem seletores aqui", Strategy: StrategyGeneric}, got)
}

func TestExtract_NonSuccessStatusStopsChain(t *testing.T) {
	session := &fakeSession{
		navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED"),
		source:      `<html><body><p>error page text</p></body></html>`,
	}
	server, hits := htmlServer(t, http.StatusForbidden, "<p>login wall</p>")

	got := NewExtractor(&fakeBrowser{session: session}, nil, fastOptions()).
		Extract(context.Background(), server.URL, types.PlatformInstagram)

	assert.Equal(t, Extraction{Strategy: StrategyNone}, got)
	assert.True(t, got.Empty())
	assert.Equal(t, int32(1), hits.Load())
}

func TestExtract_GenericUsesCapturedWhenFetchFails(t *testing.T) {
	session := &fakeSession{
		waitErr: errors.New("timeout"),
		source:  `<html><body><p>partial render</p></body></html>`,
	}
	e := NewExtractor(&fakeBrowser{session: session}, nil, fastOptions())

	got := e.Extract(context.Background(), "http://127.0.0.1:1/unreachable", types.PlatformTwitter)
	assert.Equal(t, Extraction{Text: "partial render", Strategy: StrategyGeneric}, got)
}

func TestExtract_TotalFailureIsEmpty(t *testing.T) {
	browser := &fakeBrowser{startErr: errors.New("no browser")}

	got := NewExtractor(browser, nil, fastOptions()).Extract(context.Background(), "http://127.0.0.1:1/x", types.PlatformSteam)
	assert.Equal(t, Extraction{Strategy: StrategyNone}, got)
}

func TestExtract_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	browser := &fakeBrowser{session: &fakeSession{texts: map[string][]string{"body": {"x"}}}}
	got := NewExtractor(browser, nil, fastOptions()).Extract(ctx, "https://x.com/fan", types.PlatformTwitter)

	assert.Equal(t, StrategyNone, got.Strategy)
	assert.Zero(t, browser.opened.Load())
}

func TestSleep_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, sleep(context.Background(), 0))
}

func TestNewExtractor_Defaults(t *testing.T) {
	e := NewExtractor(nil, nil, ExtractorOptions{SettleDelay: -1})
	assert.Equal(t, 10*time.Second, e.opts.LandmarkTimeout)
	assert.Zero(t, e.opts.SettleDelay)
	assert.Equal(t, DefaultGenericTextLimit, e.opts.GenericTextLimit)
	assert.NotNil(t, e.client)
}
