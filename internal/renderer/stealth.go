package renderer

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// StealthPage opens a tab with the stealth evasions pre-injected so
// the page is harder to fingerprint as automated.
func StealthPage(browser *rod.Browser) (*rod.Page, error) {
	return stealth.Page(browser)
}

// ApplyStealthMode layers extra evasions on top of the stealth page:
// a desktop-sized viewport and a masked navigator.webdriver flag.
func ApplyStealthMode(page *rod.Page) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	}); err != nil {
		return err
	}

	_, err := page.Eval(`() => { Object.defineProperty(navigator, 'webdriver', { get: () => undefined }); return true; }`)
	return err
}
