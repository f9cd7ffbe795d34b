package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	OrderFormURL string `yaml:"order_form_url"`
	OrdersCSVURL string `yaml:"orders_csv_url"`

	// OutputDir holds orders.csv, receipts/, screenshots/ and archive.zip.
	OutputDir string `yaml:"output_dir"`

	BrowserProfilePath string `yaml:"browser_profile_path"`

	PageLoadTimeout int `yaml:"page_load_timeout"`
	ElementTimeout  int `yaml:"element_timeout"`
	DownloadTimeout int `yaml:"download_timeout"`

	ViewportWidth  int `yaml:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height"`

	Headless bool `yaml:"headless"`
	Stealth  bool `yaml:"stealth"`

	DebugMode bool `yaml:"debug_mode"`

	SubmitRetry SubmitRetryConfig `yaml:"submit_retry"`

	Selectors SelectorConfig `yaml:"selectors"`
}

// SubmitRetryConfig controls how often a rejected order form is resubmitted.
// MaxAttempts of 0 keeps resubmitting until the form accepts the order.
type SubmitRetryConfig struct {
	MaxAttempts int  `yaml:"max_attempts"`
	DelayMs     int  `yaml:"delay_ms"`
	MaxDelayMs  int  `yaml:"max_delay_ms"`
	Exponential bool `yaml:"exponential"`
}

// Selector addresses one element on the order page. When Text is set the
// element must also match it as a JavaScript regular expression.
type Selector struct {
	CSS  string `yaml:"css"`
	Text string `yaml:"text,omitempty"`
}

func (s Selector) String() string {
	if s.Text == "" {
		return s.CSS
	}
	return fmt.Sprintf("%s /%s/", s.CSS, s.Text)
}

type SelectorConfig struct {
	ModalConfirm    Selector `yaml:"modal_confirm"`
	Head            Selector `yaml:"head"`
	BodyPattern     string   `yaml:"body_pattern"`
	Legs            Selector `yaml:"legs"`
	Address         Selector `yaml:"address"`
	Submit          Selector `yaml:"submit"`
	ValidationError Selector `yaml:"validation_error"`
	Receipt         Selector `yaml:"receipt"`
	ReceiptID       string   `yaml:"receipt_id"`
	OrderAnother    Selector `yaml:"order_another"`
}

// Body returns the clickable element for a body part value.
func (s SelectorConfig) Body(value string) Selector {
	return Selector{CSS: fmt.Sprintf(s.BodyPattern, value)}
}

func DefaultConfig() *Config {
	return &Config{
		OrderFormURL:       "https://robotsparebinindustries.com/#/robot-order",
		OrdersCSVURL:       "https://robotsparebinindustries.com/orders.csv",
		OutputDir:          "outdir",
		BrowserProfilePath: filepath.Join(getUserDataDir(), "browser-profile"),
		PageLoadTimeout:    30,
		ElementTimeout:     10,
		DownloadTimeout:    30,
		ViewportWidth:      1280,
		ViewportHeight:     1024,
		Headless:           true,
		Stealth:            false,
		DebugMode:          false,
		SubmitRetry: SubmitRetryConfig{
			MaxAttempts: 0,
			DelayMs:     0,
			MaxDelayMs:  2000,
			Exponential: false,
		},
		Selectors: SelectorConfig{
			ModalConfirm:    Selector{CSS: "button", Text: "^OK$"},
			Head:            Selector{CSS: "#head"},
			BodyPattern:     "#id-body-%s",
			Legs:            Selector{CSS: "input[placeholder='Enter the part number for the legs']"},
			Address:         Selector{CSS: "#address"},
			Submit:          Selector{CSS: "#order"},
			ValidationError: Selector{CSS: ".alert-danger"},
			Receipt:         Selector{CSS: "#receipt"},
			ReceiptID:       ".badge-success",
			OrderAnother:    Selector{CSS: "#order-another"},
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports the first setting that would make a run fail before any
// order is processed.
func (c *Config) Validate() error {
	switch {
	case c.OrderFormURL == "":
		return fmt.Errorf("order_form_url is required")
	case c.OrdersCSVURL == "":
		return fmt.Errorf("orders_csv_url is required")
	case c.OutputDir == "":
		return fmt.Errorf("output_dir is required")
	case c.PageLoadTimeout <= 0 || c.ElementTimeout <= 0:
		return fmt.Errorf("page_load_timeout and element_timeout must be positive")
	case c.SubmitRetry.MaxAttempts < 0:
		return fmt.Errorf("submit_retry.max_attempts must not be negative")
	case c.SubmitRetry.DelayMs < 0:
		return fmt.Errorf("submit_retry.delay_ms must not be negative")
	case strings.Count(c.Selectors.BodyPattern, "%s") != 1:
		return fmt.Errorf("selectors.body_pattern must contain exactly one %%s, got %q", c.Selectors.BodyPattern)
	}
	return nil
}

func (c *Config) ReceiptDir() string {
	return filepath.Join(c.OutputDir, "receipts")
}

func (c *Config) ScreenshotDir() string {
	return filepath.Join(c.OutputDir, "screenshots")
}

func (c *Config) ArchivePath() string {
	return filepath.Join(c.OutputDir, "archive.zip")
}

func (c *Config) OrdersFile() string {
	return filepath.Join(c.OutputDir, "orders.csv")
}

func (c *Config) ReceiptPath(orderNumber string) string {
	return filepath.Join(c.ReceiptDir(), "robot-"+orderNumber+".pdf")
}

func (c *Config) ScreenshotPath(orderNumber string) string {
	return filepath.Join(c.ScreenshotDir(), "robot-"+orderNumber+".png")
}

// EnsureDirectories creates the receipt and screenshot directories so that
// the archive step has something to zip even when no order was processed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.ReceiptDir(), c.ScreenshotDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}
