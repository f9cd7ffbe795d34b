package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/require"
)

const sampleReceipt = `<h3>Receipt</h3><div>2024-05-01T10:00:00.000Z</div>` +
	`<p class="badge badge-success">RSB-ROBO-ORDER-TEST%s</p><p>Test address</p>` +
	`<div id="parts" class="alert alert-light"><div>Head: 1</div><div>Body: 2</div><div>Legs: 3</div></div>`

// fakePage is an in-memory order form. The validation banner shows after
// each of the first `rejections` submit clicks of every order.
type fakePage struct {
	t   testing.TB
	sel SelectorConfig

	modal      bool
	rejections int
	missing    map[string]bool

	receipts    int
	showError   bool
	submits     int
	totalClicks map[string]int
	selected    map[string]string
	filled      map[string]string
	fillCount   int
}

func newFakePage(t testing.TB, config *Config) *fakePage {
	return &fakePage{
		t:           t,
		sel:         config.Selectors,
		missing:     map[string]bool{},
		totalClicks: map[string]int{},
		selected:    map[string]string{},
		filled:      map[string]string{},
	}
}

func (f *fakePage) find(sel Selector) error {
	if f.missing[sel.CSS] {
		return fmt.Errorf("%w: %s", ErrElementNotFound, sel)
	}
	return nil
}

func (f *fakePage) Visible(sel Selector) (bool, error) {
	switch sel {
	case f.sel.ModalConfirm:
		return f.modal, nil
	case f.sel.ValidationError:
		return f.showError, nil
	}
	return f.find(sel) == nil, nil
}

func (f *fakePage) Click(sel Selector) error {
	if err := f.find(sel); err != nil {
		return err
	}
	f.totalClicks[sel.CSS]++

	switch sel {
	case f.sel.ModalConfirm:
		f.modal = false
	case f.sel.Submit:
		f.submits++
		f.showError = f.submits <= f.rejections
	case f.sel.OrderAnother:
		f.submits = 0
		f.showError = false
	}
	return nil
}

func (f *fakePage) SelectOption(sel Selector, value string) error {
	if err := f.find(sel); err != nil {
		return err
	}
	f.selected[sel.CSS] = value
	f.fillCount++
	return nil
}

func (f *fakePage) Fill(sel Selector, value string) error {
	if err := f.find(sel); err != nil {
		return err
	}
	f.filled[sel.CSS] = value
	f.fillCount++
	return nil
}

func (f *fakePage) InnerHTML(sel Selector) (string, error) {
	if err := f.find(sel); err != nil {
		return "", err
	}
	f.receipts++
	return fmt.Sprintf(sampleReceipt, fmt.Sprint(f.receipts)), nil
}

func (f *fakePage) WaitDOMContentLoaded() error {
	return nil
}

func (f *fakePage) Screenshot(path string) error {
	writePNG(f.t, path)
	return nil
}

func (f *fakePage) RenderPDF(html, path string) error {
	writeOnePagePDF(f.t, path)
	return nil
}

func writePNG(t testing.TB, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
}

func writeOnePagePDF(t testing.TB, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	os.Remove(path)

	img := filepath.Join(t.TempDir(), "page.png")
	writePNG(t, img)
	require.NoError(t, api.ImportImagesFile([]string{img}, path, pdfcpu.DefaultImportConfig(), nil))
}

func pageCount(t testing.TB, path string) int {
	t.Helper()
	n, err := api.PageCountFile(path)
	require.NoError(t, err)
	return n
}

func testConfig(t testing.TB) *Config {
	t.Helper()
	config := DefaultConfig()
	config.OutputDir = filepath.Join(t.TempDir(), "outdir")
	config.BrowserProfilePath = ""
	return config
}
