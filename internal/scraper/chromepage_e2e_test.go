//go:build e2e

package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sidebarPage appends a batch of entries whenever the sidebar is scrolled to
// the bottom, up to 60 entries.
const sidebarPage = `<!doctype html><html><body>
<infinite-scroller style="display:block;height:200px;overflow:auto">
  <div class="conversation-title" style="height:40px">New chat</div>
</infinite-scroller>
<script>
  const el = document.querySelector('infinite-scroller');
  let n = 0;
  function more() {
    for (let i = 0; i < 20 && n < 60; i++, n++) {
      const d = document.createElement('div');
      d.className = 'conversation-title';
      d.style.height = '40px';
      d.textContent = n % 10 === 0 ? '' : 'Chat ' + n;
      el.appendChild(d);
    }
  }
  more();
  el.addEventListener('scroll', () => {
    if (el.scrollTop + el.clientHeight >= el.scrollHeight - 1) setTimeout(more, 20);
  });
</script>
</body></html>`

func newSidebarServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(sidebarPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_LoadsWholeSidebar_E2E(t *testing.T) {
	srv := newSidebarServer(t)
	dir := t.TempDir()
	// an earlier run's file is replaced rather than kept beside a renamed copy
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFilename), []byte("stale"), 0o644))

	s := New(
		WithInterval(200*time.Millisecond),
		WithStop(AnyOf(HeightStable(2), MaxIterations(50))),
		WithOverallTimeout(60*time.Second),
		WithBrowserDownload(dir, DefaultFilename),
	)
	titles, err := s.Run(context.Background(), srv.URL)
	require.NoError(t, err)
	// 60 generated entries, 6 of them empty; the initial "New chat" is excluded.
	assert.Len(t, titles, 54)
	assert.Equal(t, "Chat 1", titles[0])

	b, err := os.ReadFile(filepath.Join(dir, DefaultFilename))
	require.NoError(t, err)
	assert.Equal(t, JoinTitles(titles), string(b))
}

func TestChromePage_MissingContainer_E2E(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<!doctype html><html><body><p>signed out</p></body></html>`))
	}))
	defer srv.Close()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()
	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	require.NoError(t, chromedp.Run(ctx, chromedp.Navigate(srv.URL)))

	page := ChromePage{ContainerSel: DefaultContainerSel, TitleSel: DefaultTitleSel}
	smp, err := page.Sample(ctx)
	require.NoError(t, err)
	assert.False(t, smp.Found)

	_, err = page.Titles(ctx)
	assert.ErrorIs(t, err, ErrContainerNotFound)
}
