package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// CloseModal dismisses the welcome dialog if it is showing. It is safe to
// call on every iteration.
func CloseModal(page OrderPage, selectors SelectorConfig) error {
	visible, err := page.Visible(selectors.ModalConfirm)
	if err != nil || !visible {
		return err
	}
	return page.Click(selectors.ModalConfirm)
}

// FillOrderForm sets every field of the order form. It does not submit.
func FillOrderForm(page OrderPage, selectors SelectorConfig, order Order) error {
	if err := page.SelectOption(selectors.Head, order.Head()); err != nil {
		return fmt.Errorf("head: %w", err)
	}
	if err := page.Click(selectors.Body(order.Body())); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	if err := page.Fill(selectors.Legs, order.Legs()); err != nil {
		return fmt.Errorf("legs: %w", err)
	}
	if err := page.Fill(selectors.Address, order.Address()); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	return nil
}

// SubmitOrder fills the form once and clicks submit until the validation
// banner stays hidden. It returns the number of submit clicks.
func SubmitOrder(ctx context.Context, page OrderPage, config *Config, order Order) (int, error) {
	selectors := config.Selectors
	if err := FillOrderForm(page, selectors, order); err != nil {
		return 0, err
	}

	attempts := 0
	submit := func() error {
		attempts++
		if err := page.Click(selectors.Submit); err != nil {
			return backoff.Permanent(fmt.Errorf("submit: %w", err))
		}
		rejected, err := page.Visible(selectors.ValidationError)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("validation check: %w", err))
		}
		if rejected {
			return ErrOrderRejected
		}
		return nil
	}

	notify := func(err error, next time.Duration) {
		if attempts%10 == 0 || attempts <= 3 {
			fmt.Println(T("order_rejected_retrying", order.Number(), attempts))
		}
	}

	err := backoff.RetryNotify(submit, submitPolicy(ctx, config.SubmitRetry), notify)
	if errors.Is(err, ErrOrderRejected) {
		return attempts, fmt.Errorf("order %s after %d attempts: %w", order.Number(), attempts, err)
	}
	if err != nil {
		return attempts, err
	}
	return attempts, nil
}

func submitPolicy(ctx context.Context, retry SubmitRetryConfig) backoff.BackOff {
	var policy backoff.BackOff
	delay := time.Duration(retry.DelayMs) * time.Millisecond
	switch {
	case delay <= 0:
		policy = &backoff.ZeroBackOff{}
	case retry.Exponential:
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = delay
		exp.MaxInterval = time.Duration(retry.MaxDelayMs) * time.Millisecond
		if exp.MaxInterval < delay {
			exp.MaxInterval = delay
		}
		exp.MaxElapsedTime = 0
		exp.Reset()
		policy = exp
	default:
		policy = backoff.NewConstantBackOff(delay)
	}

	if retry.MaxAttempts > 0 {
		policy = backoff.WithMaxRetries(policy, uint64(retry.MaxAttempts-1))
	}
	return backoff.WithContext(policy, ctx)
}

// ReturnToOrderForm resets the page to a blank order form.
func ReturnToOrderForm(page OrderPage, selectors SelectorConfig) error {
	return page.Click(selectors.OrderAnother)
}
