package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Result describes one order that went through the whole workflow.
type Result struct {
	Receipt
	Attempts int
	Duration time.Duration
}

// Robot drives the order form for a list of orders, one at a time.
type Robot struct {
	config *Config
	page   OrderPage
	log    *slog.Logger
}

func NewRobot(config *Config, page OrderPage, log *slog.Logger) *Robot {
	return &Robot{
		config: config,
		page:   page,
		log:    log,
	}
}

// Run submits every order, stores its receipt, and zips the receipts once
// all orders are done. The first failure aborts the run and no archive is
// written.
func (r *Robot) Run(ctx context.Context, orders []Order) ([]Result, error) {
	if err := r.config.EnsureDirectories(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(orders))
	for i, order := range orders {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		log := r.log.With("order", order.Number())
		log.Info(T("order_processing"), "index", i+1, "total", len(orders))

		result, err := r.processOrder(ctx, order)
		if err != nil {
			return results, fmt.Errorf("order %s: %w", order.Number(), err)
		}
		log.Info(T("order_done"),
			"receipt_id", result.ReceiptID,
			"attempts", result.Attempts,
			"pdf", result.PDFPath,
			"duration", result.Duration)

		results = append(results, *result)
	}

	count, err := ArchiveReceipts(r.config.ReceiptDir(), r.config.ArchivePath())
	if err != nil {
		return results, fmt.Errorf("archive receipts: %w", err)
	}
	r.log.Info(T("archive_written"), "path", r.config.ArchivePath(), "files", count)

	return results, nil
}

func (r *Robot) processOrder(ctx context.Context, order Order) (*Result, error) {
	start := time.Now()
	selectors := r.config.Selectors

	if err := CloseModal(r.page, selectors); err != nil {
		return nil, fmt.Errorf("close modal: %w", err)
	}

	attempts, err := SubmitOrder(ctx, r.page, r.config, order)
	if err != nil {
		return nil, err
	}
	r.log.Debug("order accepted", "order", order.Number(), "attempts", attempts)

	receipt, err := StoreReceiptAsPDF(r.page, r.config, order.Number())
	if err != nil {
		return nil, err
	}

	if err := ReturnToOrderForm(r.page, selectors); err != nil {
		return nil, fmt.Errorf("order another: %w", err)
	}

	return &Result{
		Receipt:  *receipt,
		Attempts: attempts,
		Duration: time.Since(start),
	}, nil
}

// OrderRobots is the whole task: download the orders, open the form in
// Chrome and run the robot over every order.
func OrderRobots(ctx context.Context, config *Config, log *slog.Logger) ([]Result, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log = log.With("run", uuid.NewString())

	fmt.Println(T("downloading_orders"))
	client := resty.New().SetTimeout(time.Duration(config.DownloadTimeout) * time.Second)
	orders, err := FetchOrders(ctx, client, config.OrdersCSVURL, config.OrdersFile())
	if err != nil {
		return nil, err
	}
	fmt.Println(T("orders_loaded", len(orders)))

	automation := NewAutomation(config, log)
	defer automation.Close()

	if err := automation.setupBrowser(ctx); err != nil {
		return nil, err
	}

	page, err := automation.openOrderForm()
	if err != nil {
		return nil, err
	}

	results, err := NewRobot(config, page, log).Run(ctx, orders)
	if err != nil && !automation.isBrowserAlive() {
		fmt.Println(T("browser_closed_by_user"))
	}
	return results, err
}
