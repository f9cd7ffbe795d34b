package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	configPath string
	outDir     string
	debug      bool
	headless   bool
)

var rootCmd = &cobra.Command{
	Use:   "robotorder",
	Short: "Order robots from RobotSpareBin Industries and archive the receipts",
	Long: `robotorder downloads the orders CSV, submits every order through the
RobotSpareBin order form, saves each receipt as a PDF with a screenshot of the
ordered robot appended, and zips the receipts into <output_dir>/archive.zip.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&outDir, "out", "", "Output directory (overrides config)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable detailed debug logging")
	rootCmd.Flags().BoolVar(&headless, "headless", true, "Run Chrome without a window (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if err := InitLocale(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Locale initialization failed: %v\n", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if outDir != "" {
		config.OutputDir = outDir
	}
	if debug {
		config.DebugMode = true
	}
	if cmd.Flags().Changed("headless") {
		config.Headless = headless
	}

	log := newLogger(config.DebugMode)
	slog.SetDefault(log)

	fmt.Println(T("banner_title"))
	fmt.Printf("Order form: %s\n", config.OrderFormURL)
	fmt.Printf("Output:     %s\n", config.OutputDir)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := OrderRobots(ctx, config, log)
	if len(results) > 0 {
		fmt.Println()
		RenderSummary(os.Stdout, results)
	}
	if err != nil {
		log.Error(T("run_failed"), "err", err)
		return err
	}

	fmt.Println()
	fmt.Println(T("run_complete"))
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func getUserDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./robotorder-data"
	}
	return filepath.Join(home, ".robotorder")
}
