package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	// ErrSyscallFailed is returned when the kernel rejects a call.
	ErrSyscallFailed = errors.New("syscall failed")
	// ErrKernelUnavailable is returned when the kernel socket cannot be reached.
	ErrKernelUnavailable = errors.New("kernel unavailable")
)

var (
	maxElapsedTime  = 3 * time.Second
	initialInterval = 100 * time.Millisecond
	maxInterval     = time.Second
	maxRetries      = uint64(4)
)

// Client issues syscalls to a kernel serving on a Unix socket.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the kernel socket at path.
func NewClient(path string, logger *zap.Logger) *Client {
	dialer := &net.Dialer{Timeout: time.Second}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", path)
		},
	}

	return NewClientWithHTTP("http://kernel", &http.Client{Transport: transport, Timeout: WriteTimeout}, logger)
}

// NewClientWithHTTP creates a client for an arbitrary base URL.
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// Dmesg copies the kernel buffer into a user buffer of size bytes. The
// result ends with the terminator unless size is zero or less.
func (c *Client) Dmesg(ctx context.Context, size int) ([]byte, error) {
	var resp DmesgResponse
	if err := c.call(ctx, PathDmesg, DmesgRequest{Size: size}, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// Toggle toggles a single event class.
func (c *Client) Toggle(ctx context.Context, class, duration int) error {
	return c.call(ctx, PathDmesgToggle, ToggleRequest{Class: class, Duration: duration}, nil)
}

// call posts req to path, retrying while the kernel cannot be reached.
func (c *Client) call(ctx context.Context, path string, req, resp any) error {
	body, err := sonic.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), maxRetries)

	var lastErr error

	err = backoff.Retry(func() error {
		err := c.do(ctx, path, body, resp)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}

			c.logger.Debug("Kernel not reachable, retrying", zap.String("path", path), zap.Error(err))
			lastErr = err

			return err
		}

		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		if lastErr != nil && isRetryable(err) {
			return fmt.Errorf("%w: %w", ErrKernelUnavailable, lastErr)
		}

		return err
	}

	return nil
}

func (c *Client) do(ctx context.Context, path string, body []byte, resp any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		var errResp ErrorResponse
		if err := sonic.Unmarshal(data, &errResp); err != nil || errResp.Message == "" {
			return fmt.Errorf("%w: status %d", ErrSyscallFailed, httpResp.StatusCode)
		}

		return fmt.Errorf("%w: %s: %s", ErrSyscallFailed, errResp.Code, errResp.Message)
	}

	if resp == nil {
		return nil
	}

	if err := sonic.Unmarshal(data, resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// isRetryable reports whether err means the kernel is not listening yet.
func isRetryable(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT)
}
