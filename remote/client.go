// client.go: Oracle backed by a remote Server.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/agilira/go-errors"

	"github.com/agilira/pythia"
)

// Transport error codes.
const (
	CodeBadRequest = "REMOTE_BAD_REQUEST"
	CodeNotFound   = "REMOTE_NOT_FOUND"
	CodeUnhealthy  = "REMOTE_UNHEALTHY"
	CodeInternal   = "REMOTE_INTERNAL"
	CodeTransport  = "REMOTE_TRANSPORT"
)

// DefaultTimeout applies when Config leaves both Timeout and HTTPClient unset.
const DefaultTimeout = 10 * time.Second

// Config configures a Client. The zero value is usable.
type Config struct {
	Timeout    time.Duration // Per request, ignored when HTTPClient is set
	HTTPClient *http.Client
	Logger     *slog.Logger // Nil discards
}

// Client is a pythia.Oracle and pythia.EditOracle whose queries are served
// by one named oracle of a remote Server.
type Client struct {
	base   string
	name   string
	http   *http.Client
	info   pythia.OracleInfo
	logger *slog.Logger
}

// Dial fetches the description of oracle name from the server at baseURL
// and returns a client for it. config may be nil.
func Dial(ctx context.Context, baseURL, name string, config *Config) (*Client, error) {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, goerrors.Wrap(err, CodeTransport, "invalid server URL")
	}

	c := &Client{
		base:   strings.TrimRight(baseURL, "/"),
		name:   name,
		http:   cfg.HTTPClient,
		logger: cfg.Logger.With("component", "oracle-client", "oracle", name),
	}
	if err := c.do(ctx, http.MethodGet, c.path(""), nil, &c.info); err != nil {
		return nil, err
	}
	return c, nil
}

// Info returns the description fetched by Dial.
func (c *Client) Info() pythia.OracleInfo { return c.info }

// Deterministic implements pythia.DeterminismReporter.
func (c *Client) Deterministic() bool { return c.info.Deterministic }

// Encrypt implements pythia.Oracle.
func (c *Client) Encrypt(input []byte) ([]byte, error) {
	return c.EncryptContext(context.Background(), input)
}

// EncryptContext is Encrypt bounded by ctx.
func (c *Client) EncryptContext(ctx context.Context, input []byte) ([]byte, error) {
	return c.call(ctx, pythia.OperationEncrypt, pythia.OracleRequest{Input: input})
}

// Edit implements pythia.EditOracle.
func (c *Client) Edit(ciphertext []byte, offset int, plaintext []byte) ([]byte, error) {
	return c.EditContext(context.Background(), ciphertext, offset, plaintext)
}

// EditContext is Edit bounded by ctx.
func (c *Client) EditContext(ctx context.Context, ciphertext []byte, offset int, plaintext []byte) ([]byte, error) {
	return c.call(ctx, pythia.OperationEdit, pythia.OracleRequest{
		Input:      plaintext,
		Ciphertext: ciphertext,
		Offset:     offset,
	})
}

func (c *Client) call(ctx context.Context, operation string, req pythia.OracleRequest) ([]byte, error) {
	req.Operation = operation
	var resp pythia.OracleResponse
	if err := c.do(ctx, http.MethodPost, c.path("/"+operation), req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) path(suffix string) string {
	return c.base + "/oracles/" + url.PathEscape(c.name) + suffix
}

// do sends body as JSON and decodes a 200 reply into out. Any other status
// is decoded as an OracleResponse and turned into an error that matches
// the pythia sentinel of its code.
func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, CodeTransport, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return goerrors.Wrap(err, CodeTransport, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, CodeTransport, "request failed")
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return goerrors.Wrap(err, CodeTransport, "failed to decode reply")
		}
		return nil
	}

	var failure pythia.OracleResponse
	if err := json.NewDecoder(res.Body).Decode(&failure); err != nil {
		return goerrors.Wrap(err, CodeTransport, fmt.Sprintf("unexpected status %d", res.StatusCode))
	}
	c.logger.Debug("remote oracle failed", "status", res.StatusCode, "code", failure.Code)
	return remoteError(res.StatusCode, failure)
}

func remoteError(status int, failure pythia.OracleResponse) error {
	var kind error
	switch failure.Code {
	case CodeNotFound:
		kind = pythia.ErrOracleNotFound
	case CodeUnhealthy:
		kind = pythia.ErrOracleUnhealthy
	case CodeBadRequest:
		kind = pythia.ErrUnknownOperation
	default:
		kind = pythia.ErrorForCode(failure.Code)
	}
	return fmt.Errorf("%w: %w", kind,
		goerrors.New(CodeTransport, fmt.Sprintf("remote oracle: %s (status %d, code %s)", failure.Error, status, failure.Code)))
}
