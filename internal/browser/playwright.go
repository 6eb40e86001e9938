package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type PlaywrightConfig struct {
	Format  string
	Quality int

	NavigationTimeout time.Duration

	UserAgent string

	Headless                  bool
	ChromeDevtoolsProtocolURL string
}

func DefaultPlaywrightConfig() PlaywrightConfig {
	return PlaywrightConfig{
		Format:            "png",
		Quality:           85,
		NavigationTimeout: 30 * time.Second,
		Headless:          true,
	}
}

// playwrightSurface keeps one browser page alive for the whole lifetime of
// the process so a batch of captures reuses a single rendering surface.
type playwrightSurface struct {
	config  PlaywrightConfig
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

func NewPlaywrightSurface(ctx context.Context, config PlaywrightConfig) (Surface, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	var browser playwright.Browser

	if config.ChromeDevtoolsProtocolURL == "" {
		browser, err = pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(config.Headless),
		})
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
	} else {
		browser, err = pw.Chromium.ConnectOverCDP(config.ChromeDevtoolsProtocolURL)
		if err != nil {
			_ = pw.Stop()
			return nil, fmt.Errorf("failed to connect to browser via CDP at %s: %w", config.ChromeDevtoolsProtocolURL, err)
		}
	}

	var pageOptions playwright.BrowserNewPageOptions
	if config.UserAgent != "" {
		pageOptions.UserAgent = playwright.String(config.UserAgent)
	}

	page, err := browser.NewPage(pageOptions)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	return &playwrightSurface{
		config:  config,
		pw:      pw,
		browser: browser,
		page:    page,
	}, nil
}

func (s *playwrightSurface) SetViewport(ctx context.Context, width int, height int) error {
	if err := s.page.SetViewportSize(width, height); err != nil {
		return fmt.Errorf("failed to set viewport size: %w", err)
	}
	return nil
}

func (s *playwrightSurface) Navigate(ctx context.Context, url string) error {
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.config.NavigationTimeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *playwrightSurface) Reset(ctx context.Context) error {
	if _, err := s.page.Goto("about:blank"); err != nil {
		return fmt.Errorf("failed to reset surface: %w", err)
	}
	return nil
}

// overflowUnclipScript opens common scroll containers so a full-page capture
// is not cut off by the page's own overflow rules.
const overflowUnclipScript = `() => {
	document.documentElement.style.overflow = 'visible';
	document.body.style.overflow = 'visible';
	document.querySelectorAll('main, [role="main"], .app, #app, #root').forEach(element => {
		element.style.overflow = 'visible';
	});
	return Math.max(
		document.documentElement.scrollHeight,
		document.body.scrollHeight,
	);
}`

func (s *playwrightSurface) ContentHeight(ctx context.Context) (int, error) {
	result, err := s.page.Evaluate(overflowUnclipScript)
	if err != nil {
		return 0, fmt.Errorf("failed to measure content height: %w", err)
	}

	height, err := evaluatedInt(result)
	if err != nil {
		return 0, fmt.Errorf("failed to measure content height: %w", err)
	}
	return height, nil
}

func (s *playwrightSurface) Screenshot(ctx context.Context) ([]byte, error) {
	options := playwright.PageScreenshotOptions{}

	switch s.config.Format {
	case "jpeg":
		options.Type = playwright.ScreenshotTypeJpeg
		if s.config.Quality > 0 {
			options.Quality = playwright.Int(s.config.Quality)
		}
	default:
		options.Type = playwright.ScreenshotTypePng
	}

	data, err := s.page.Screenshot(options)
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return data, nil
}

func (s *playwrightSurface) ScrollTo(ctx context.Context, x int, y int) error {
	if _, err := s.page.Evaluate(`([x, y]) => window.scrollTo(x, y)`, []int{x, y}); err != nil {
		return fmt.Errorf("failed to scroll document: %w", err)
	}
	return nil
}

func (s *playwrightSurface) Locate(ctx context.Context, selector string) (Element, error) {
	locator := s.page.Locator(NormalizeSelector(selector))

	count, err := locator.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve selector %s: %w", selector, err)
	}
	if count == 0 {
		return nil, nil
	}

	return &playwrightElement{locator: locator.First()}, nil
}

func (s *playwrightSurface) Close() error {
	if err := s.page.Close(); err != nil {
		return fmt.Errorf("failed to close page: %w", err)
	}
	if err := s.browser.Close(); err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type playwrightElement struct {
	locator playwright.Locator
}

func (e *playwrightElement) Click(ctx context.Context) error {
	// el.click() rather than a trusted input event keeps the semantics of
	// the page's own click handlers regardless of element visibility.
	if _, err := e.locator.Evaluate(`el => el.click()`, nil); err != nil {
		return fmt.Errorf("failed to click element: %w", err)
	}
	return nil
}

func (e *playwrightElement) ScrollIntoView(ctx context.Context) error {
	if _, err := e.locator.Evaluate(`el => el.scrollIntoView({behavior: 'smooth', block: 'center'})`, nil); err != nil {
		return fmt.Errorf("failed to scroll element into view: %w", err)
	}
	return nil
}

func (e *playwrightElement) SetHighlight(ctx context.Context, on bool) error {
	script := `el => {
		el.dataset.captureHighlight = el.style.cssText;
		el.style.outline = '3px solid #ff5722';
		el.style.backgroundColor = 'rgba(255, 87, 34, 0.2)';
	}`
	if !on {
		script = `el => {
			el.style.cssText = el.dataset.captureHighlight || '';
			delete el.dataset.captureHighlight;
		}`
	}

	if _, err := e.locator.Evaluate(script, nil); err != nil {
		return fmt.Errorf("failed to toggle element highlight: %w", err)
	}
	return nil
}

func (e *playwrightElement) Focus(ctx context.Context) error {
	if _, err := e.locator.Evaluate(`el => el.focus()`, nil); err != nil {
		return fmt.Errorf("failed to focus element: %w", err)
	}
	return nil
}

func (e *playwrightElement) ClearValue(ctx context.Context) error {
	if _, err := e.locator.Evaluate(`el => { el.value = ''; }`, nil); err != nil {
		return fmt.Errorf("failed to clear element value: %w", err)
	}
	return nil
}

func (e *playwrightElement) TypeChar(ctx context.Context, c rune) error {
	script := `(el, c) => {
		el.value += c;
		el.dispatchEvent(new Event('input', {bubbles: true}));
	}`
	if _, err := e.locator.Evaluate(script, string(c)); err != nil {
		return fmt.Errorf("failed to type character: %w", err)
	}
	return nil
}

func (e *playwrightElement) SetValue(ctx context.Context, value string) error {
	if _, err := e.locator.Evaluate(`(el, value) => { el.value = value; }`, value); err != nil {
		return fmt.Errorf("failed to set element value: %w", err)
	}
	return nil
}

func (e *playwrightElement) DispatchChange(ctx context.Context) error {
	if _, err := e.locator.Evaluate(`el => el.dispatchEvent(new Event('change', {bubbles: true}))`, nil); err != nil {
		return fmt.Errorf("failed to dispatch change event: %w", err)
	}
	return nil
}

func (e *playwrightElement) Hover(ctx context.Context) error {
	if _, err := e.locator.Evaluate(`el => el.dispatchEvent(new PointerEvent('pointerover', {bubbles: true}))`, nil); err != nil {
		return fmt.Errorf("failed to dispatch pointerover event: %w", err)
	}
	return nil
}

func (e *playwrightElement) ScrollTo(ctx context.Context, x int, y int) error {
	if _, err := e.locator.Evaluate(`(el, point) => el.scrollTo(point.x, point.y)`, map[string]int{"x": x, "y": y}); err != nil {
		return fmt.Errorf("failed to scroll element: %w", err)
	}
	return nil
}

func evaluatedInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("unexpected evaluation result %T", value)
	}
}
