package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

func init() {
	// Keep pdfcpu from writing its config into the user's home directory.
	api.DisableConfigDir()
}

// Receipt is what the archiver leaves on disk for one accepted order.
type Receipt struct {
	OrderNumber    string
	ReceiptID      string
	PDFPath        string
	ScreenshotPath string
}

// StoreReceiptAsPDF prints the receipt panel to a PDF, screenshots the page
// and appends the screenshot as the last page of that PDF. A failure after
// the PDF was written leaves it in place without the screenshot.
func StoreReceiptAsPDF(page OrderPage, config *Config, orderNumber string) (*Receipt, error) {
	markup, err := page.InnerHTML(config.Selectors.Receipt)
	if err != nil {
		return nil, fmt.Errorf("receipt: %w", err)
	}

	receipt := &Receipt{
		OrderNumber:    orderNumber,
		ReceiptID:      ReceiptID(markup, config.Selectors.ReceiptID),
		PDFPath:        config.ReceiptPath(orderNumber),
		ScreenshotPath: config.ScreenshotPath(orderNumber),
	}

	if err := page.RenderPDF(markup, receipt.PDFPath); err != nil {
		return nil, fmt.Errorf("render %s: %w", receipt.PDFPath, err)
	}

	if err := TakeScreenshot(page, receipt.ScreenshotPath); err != nil {
		return nil, err
	}

	if err := EmbedScreenshot(receipt.ScreenshotPath, receipt.PDFPath); err != nil {
		return nil, err
	}

	return receipt, nil
}

// TakeScreenshot waits for the DOM to be ready and captures the page as PNG.
func TakeScreenshot(page OrderPage, path string) error {
	if err := page.WaitDOMContentLoaded(); err != nil {
		return fmt.Errorf("wait for page: %w", err)
	}
	if err := page.Screenshot(path); err != nil {
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return nil
}

// EmbedScreenshot appends the image as a new page at the end of an existing
// PDF, rewriting the file in place.
func EmbedScreenshot(screenshot, target string) error {
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("embed into %s: %w", target, err)
	}

	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile([]string{screenshot}, target, imp, nil); err != nil {
		return fmt.Errorf("embed %s into %s: %w", filepath.Base(screenshot), target, err)
	}
	return nil
}

// ReceiptID pulls the order reference out of the receipt markup. It returns
// an empty string when the markup carries none.
func ReceiptID(markup, selector string) string {
	if selector == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// StripScripts removes script elements and inline event handlers from the
// receipt markup so it renders as a static document.
func StripScripts(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	doc.Find("script").Remove()
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		var handlers []string
		for _, attr := range s.Nodes[0].Attr {
			if strings.HasPrefix(strings.ToLower(attr.Key), "on") {
				handlers = append(handlers, attr.Key)
			}
		}
		for _, name := range handlers {
			s.RemoveAttr(name)
		}
	})

	return doc.Find("body").Html()
}
