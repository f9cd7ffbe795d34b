package main

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/rod/lib/utils"
)

// OrderPage is the set of browser operations the order workflow needs.
type OrderPage interface {
	// Visible reports whether the element exists and is displayed, without
	// waiting for it to appear.
	Visible(sel Selector) (bool, error)
	Click(sel Selector) error
	SelectOption(sel Selector, value string) error
	Fill(sel Selector, value string) error
	InnerHTML(sel Selector) (string, error)
	WaitDOMContentLoaded() error
	Screenshot(path string) error
	// RenderPDF prints an HTML fragment to a new PDF file at path.
	RenderPDF(html, path string) error
}

type rodPage struct {
	browser        *rod.Browser
	page           *rod.Page
	elementTimeout time.Duration
	loadTimeout    time.Duration
}

func newRodPage(browser *rod.Browser, page *rod.Page, config *Config) *rodPage {
	return &rodPage{
		browser:        browser,
		page:           page,
		elementTimeout: time.Duration(config.ElementTimeout) * time.Second,
		loadTimeout:    time.Duration(config.PageLoadTimeout) * time.Second,
	}
}

func (p *rodPage) element(sel Selector) (*rod.Element, error) {
	page := p.page.Timeout(p.elementTimeout)

	var el *rod.Element
	var err error
	if sel.Text != "" {
		el, err = page.ElementR(sel.CSS, sel.Text)
	} else {
		el, err = page.Element(sel.CSS)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrElementNotFound, sel, err)
	}
	return el.CancelTimeout(), nil
}

func (p *rodPage) Visible(sel Selector) (bool, error) {
	var has bool
	var el *rod.Element
	var err error
	if sel.Text != "" {
		has, el, err = p.page.HasR(sel.CSS, sel.Text)
	} else {
		has, el, err = p.page.Has(sel.CSS)
	}
	if err != nil || !has {
		return false, err
	}
	return el.Visible()
}

func (p *rodPage) Click(sel Selector) error {
	el, err := p.element(sel)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (p *rodPage) SelectOption(sel Selector, value string) error {
	el, err := p.element(sel)
	if err != nil {
		return err
	}
	option := fmt.Sprintf(`option[value=%q]`, value)
	return el.Select([]string{option}, true, rod.SelectorTypeCSSSector)
}

func (p *rodPage) Fill(sel Selector, value string) error {
	el, err := p.element(sel)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Input(value)
}

func (p *rodPage) InnerHTML(sel Selector) (string, error) {
	el, err := p.element(sel)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(`() => this.innerHTML`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *rodPage) WaitDOMContentLoaded() error {
	return p.page.Timeout(p.loadTimeout).Wait(rod.Eval(`() => document.readyState !== 'loading'`))
}

func (p *rodPage) Screenshot(path string) error {
	bin, err := p.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return err
	}
	return utils.OutputFile(path, bin)
}

var receiptDocument = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: sans-serif; margin: 2em; }
.badge { font-weight: bold; }
</style>
</head>
<body>{{.}}</body>
</html>`))

// RenderPDF loads the markup into a scratch tab with scripts disabled and
// prints it, leaving the order page untouched.
func (p *rodPage) RenderPDF(markup, path string) error {
	static, err := StripScripts(markup)
	if err != nil {
		return fmt.Errorf("failed to parse receipt markup: %w", err)
	}

	var doc bytes.Buffer
	if err := receiptDocument.Execute(&doc, template.HTML(static)); err != nil {
		return err
	}

	scratch, err := p.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("failed to open scratch page: %w", err)
	}
	defer scratch.Close()

	scratch = scratch.Timeout(p.loadTimeout)
	if err := (proto.EmulationSetScriptExecutionDisabled{Value: true}).Call(scratch); err != nil {
		return fmt.Errorf("failed to disable scripts: %w", err)
	}
	// The document has no external resources, so it is laid out once set.
	if err := scratch.SetDocumentContent(doc.String()); err != nil {
		return fmt.Errorf("failed to load receipt markup: %w", err)
	}

	stream, err := scratch.PDF(&proto.PagePrintToPDF{
		PrintBackground: true,
	})
	if err != nil {
		return fmt.Errorf("failed to print receipt: %w", err)
	}
	return utils.OutputFile(path, stream)
}
