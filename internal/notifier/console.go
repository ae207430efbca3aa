package notifier

import (
	"context"
	"fmt"
	"io"
)

// ConsoleSender writes messages to w instead of delivering them. Used by -dry-run.
type ConsoleSender struct {
	W io.Writer
}

func (c *ConsoleSender) Send(_ context.Context, to, message string) error {
	_, err := fmt.Fprintf(c.W, "sms to %s: %s\n", to, message)
	return err
}
