package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	ColumnOrderNumber = "Order number"
	ColumnHead        = "Head"
	ColumnBody        = "Body"
	ColumnLegs        = "Legs"
	ColumnAddress     = "Address"
)

var requiredColumns = []string{ColumnOrderNumber, ColumnHead, ColumnBody, ColumnLegs, ColumnAddress}

// Order is one row of the orders table, keyed by column header.
type Order map[string]string

func (o Order) Number() string  { return o[ColumnOrderNumber] }
func (o Order) Head() string    { return o[ColumnHead] }
func (o Order) Body() string    { return o[ColumnBody] }
func (o Order) Legs() string    { return o[ColumnLegs] }
func (o Order) Address() string { return o[ColumnAddress] }

// FetchOrders downloads the orders CSV to dest, replacing any previous copy,
// and parses it.
func FetchOrders(ctx context.Context, client *resty.Client, url, dest string) ([]Order, error) {
	if err := downloadFile(ctx, client, url, dest); err != nil {
		return nil, err
	}
	return ReadOrders(dest)
}

func downloadFile(ctx context.Context, client *resty.Client, url, dest string) error {
	if err := removeIfExists(dest); err != nil {
		return fmt.Errorf("failed to remove stale %s: %w", dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	resp, err := client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err == nil && resp.IsError() {
		err = fmt.Errorf("%s returned HTTP %d", url, resp.StatusCode())
	}
	if err != nil {
		// SetOutput may have left a partial file behind.
		if rmErr := removeIfExists(dest); rmErr != nil {
			return errors.Join(fmt.Errorf("%w: %v", ErrDownloadFailed, err), rmErr)
		}
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ReadOrders parses an orders CSV file. An empty file yields no orders.
func ReadOrders(path string) ([]Order, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders file: %w", err)
	}
	defer file.Close()

	return parseOrders(file)
}

func parseOrders(r io.Reader) ([]Order, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read orders header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if err := checkColumns(header); err != nil {
		return nil, err
	}

	var orders []Order
	seen := make(map[string]int)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read orders line %d: %w", line, err)
		}

		order := make(Order, len(header))
		for i, column := range header {
			order[column] = strings.TrimSpace(record[i])
		}

		number := order.Number()
		if number == "" || strings.ContainsAny(number, `/\`) || number == "." || number == ".." {
			return nil, fmt.Errorf("%w %q on line %d", ErrInvalidOrderNumber, number, line)
		}
		if first, ok := seen[number]; ok {
			return nil, fmt.Errorf("%w %q on lines %d and %d", ErrDuplicateOrder, number, first, line)
		}
		seen[number] = line

		orders = append(orders, order)
	}

	return orders, nil
}

func checkColumns(header []string) error {
	present := make(map[string]bool, len(header))
	for _, column := range header {
		present[column] = true
	}

	var missing []string
	for _, column := range requiredColumns {
		if !present[column] {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}
