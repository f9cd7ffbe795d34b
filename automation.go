package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Automation owns the Chrome process and the single order page for a run.
type Automation struct {
	config   *Config
	log      *slog.Logger
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
}

func NewAutomation(config *Config, log *slog.Logger) *Automation {
	return &Automation{
		config: config,
		log:    log,
	}
}

func (a *Automation) Close() {
	a.log.Debug(T("cleaning_up"))

	if a.page != nil {
		a.page.Close()
	}

	if a.browser != nil {
		a.browser.Close()
	}

	if a.launcher != nil {
		a.launcher.Cleanup()
	}
}

func (a *Automation) isBrowserAlive() bool {
	if a.browser == nil {
		return false
	}

	if _, err := a.browser.Version(); err != nil {
		a.log.Debug("browser version check failed", "err", err)
		return false
	}

	if a.page != nil {
		if _, err := a.page.Info(); err != nil {
			a.log.Debug("page info check failed", "err", err)
			return false
		}
	}

	return true
}

func (a *Automation) setupBrowser(ctx context.Context) error {
	fmt.Println(T("browser_launching"))

	// Leakless deadlocks on Windows, see https://github.com/go-rod/rod/issues/853
	useLeakless := runtime.GOOS != "windows"

	chromePath, chromeExists := launcher.LookPath()

	a.launcher = launcher.New().
		Context(ctx).
		Leakless(useLeakless).
		Headless(a.config.Headless)

	// UserDataDir must be set before Bin.
	if a.config.BrowserProfilePath != "" {
		a.launcher = a.launcher.UserDataDir(a.config.BrowserProfilePath)
		a.log.Debug("browser profile set", "path", a.config.BrowserProfilePath)
	}

	if chromeExists {
		a.launcher = a.launcher.Bin(chromePath)
		a.log.Debug("using system chrome", "path", chromePath)
	} else {
		fmt.Println(T("browser_chrome_not_found"))
	}

	url, err := a.launcher.Launch()
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "ProcessSingleton") || strings.Contains(errMsg, "SingletonLock") {
			return errors.New(T("error_chrome_profile_locked", a.config.BrowserProfilePath))
		}
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	a.browser = rod.New().Context(ctx).ControlURL(url)
	if err := a.browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	fmt.Println(T("browser_launched"))
	return nil
}

// openOrderForm opens the order page and waits for it to load.
func (a *Automation) openOrderForm() (*rodPage, error) {
	var err error
	if a.config.Stealth {
		a.page, err = stealth.Page(a.browser)
	} else {
		a.page, err = a.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	if a.config.ViewportWidth > 0 && a.config.ViewportHeight > 0 {
		err = a.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:  a.config.ViewportWidth,
			Height: a.config.ViewportHeight,
		})
		if err != nil {
			a.log.Debug("failed to set viewport", "err", err)
		}
	}

	fmt.Println(T("opening_order_form", a.config.OrderFormURL))

	loader := a.page.Timeout(time.Duration(a.config.PageLoadTimeout) * time.Second)
	if err := loader.Navigate(a.config.OrderFormURL); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := loader.WaitLoad(); err != nil {
		return nil, fmt.Errorf("page failed to load: %w", err)
	}

	return newRodPage(a.browser, a.page, a.config), nil
}
