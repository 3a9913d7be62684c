package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
)

type downloadDone struct {
	guid  string
	state browser.DownloadProgressState
}

// DownloadInBrowser saves text as filename inside dir through the browser's
// own download manager: a hidden <a download> pointing at a data: URL is
// attached to the document, clicked and removed. Chrome writes the file under
// its download GUID, which is then renamed to filename, replacing any existing
// file. It returns the final path once the download has completed.
func DownloadInBrowser(ctx context.Context, dir, filename, text string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", err
	}

	done := make(chan downloadDone, 1)
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		e, ok := ev.(*browser.EventDownloadProgress)
		if !ok {
			return
		}
		if e.State == browser.DownloadProgressStateCompleted || e.State == browser.DownloadProgressStateCanceled {
			select {
			case done <- downloadDone{guid: e.GUID, state: e.State}:
			default:
			}
		}
	})

	js := fmt.Sprintf(`(() => {
	  const a = document.createElement('a');
	  a.setAttribute('href', 'data:text/plain;charset=utf-8,' + encodeURIComponent(%s));
	  a.setAttribute('download', %s);
	  a.style.display = 'none';
	  document.body.appendChild(a);
	  a.click();
	  document.body.removeChild(a);
	  return true;
	})()`, jsString(text), jsString(filename))

	var clicked bool
	if err := chromedp.Run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(abs).
			WithEventsEnabled(true),
		chromedp.Evaluate(js, &clicked),
	); err != nil {
		return "", fmt.Errorf("trigger download: %w", err)
	}

	select {
	case d := <-done:
		if d.state == browser.DownloadProgressStateCanceled {
			return "", errors.New("download canceled by browser")
		}
		return finishDownload(abs, d.guid, filename)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// finishDownload moves the GUID-named file Chrome wrote in dir to filename.
func finishDownload(dir, guid, filename string) (string, error) {
	if guid == "" {
		return "", errors.New("download completed without a guid")
	}
	dst := filepath.Join(dir, filepath.Base(filename))
	if err := os.Rename(filepath.Join(dir, guid), dst); err != nil {
		return "", fmt.Errorf("rename download: %w", err)
	}
	return dst, nil
}
