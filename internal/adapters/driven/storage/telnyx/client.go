// Package telnyx implements the object store port against Telnyx
// Cloud Storage. The service speaks the S3 wire protocol on
// bucket-subdomain hosts under telnyxcloudstorage.com, signed with
// AWS SigV4 using the account API key.
package telnyx

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ObjectStore = (*Client)(nil)

const storageDomain = "telnyxcloudstorage.com"

// Client is an object store for a single bucket.
type Client struct {
	bucket  string
	region  string
	signer  signer
	http    *http.Client
	baseURL string // test override; empty in production
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL routes all requests to a fixed base URL instead of the
// bucket-subdomain hosts. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// NewClient creates a storage client for the given bucket and region.
func NewClient(apiKey, bucket, region string, opts ...Option) *Client {
	c := &Client{
		bucket: bucket,
		region: region,
		signer: signer{apiKey: apiKey, region: region},
		http:   &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put uploads an object under key, overwriting any existing object.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = contentTypeFor(key)
	}
	status, _, err := c.do(ctx, http.MethodPut, c.bucketHost(), "/"+key, data, contentType)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("put %s: status %d", key, status)
	}
	return nil
}

// Delete removes an object. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	status, _, err := c.do(ctx, http.MethodDelete, c.bucketHost(), "/"+key, nil, "")
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	if status != http.StatusOK && status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("delete %s: status %d", key, status)
	}
	return nil
}

// listBucketResult is the subset of the S3 listing response we need.
type listBucketResult struct {
	Contents []struct {
		Key string `xml:"Key"`
	} `xml:"Contents"`
}

// List returns the keys under prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	path := "/"
	if prefix != "" {
		path += "?prefix=" + url.QueryEscape(prefix)
	}
	status, body, err := c.do(ctx, http.MethodGet, c.bucketHost(), path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("list bucket: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list bucket: status %d", status)
	}

	var result listBucketResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse bucket listing: %w", err)
	}
	keys := make([]string, 0, len(result.Contents))
	for _, obj := range result.Contents {
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Head reports whether an object exists. An empty key probes the
// bucket itself.
func (c *Client) Head(ctx context.Context, key string) (bool, error) {
	path := "/"
	if key != "" {
		path = "/" + key
	}
	status, _, err := c.do(ctx, http.MethodHead, c.bucketHost(), path, nil, "")
	if err != nil {
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	return status == http.StatusOK, nil
}

// CreateBucket creates the configured bucket in the region. A 409
// means the bucket already exists and is treated as success.
func (c *Client) CreateBucket(ctx context.Context) error {
	config := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<CreateBucketConfiguration xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <LocationConstraint>%s</LocationConstraint>
</CreateBucketConfiguration>`, c.region)

	host := c.region + "." + storageDomain
	status, _, err := c.do(ctx, http.MethodPut, host, "/"+c.bucket, []byte(config), "application/xml")
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	switch status {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		logger.Debug("Bucket %s already exists", c.bucket)
		return nil
	}
	return fmt.Errorf("create bucket %s: status %d", c.bucket, status)
}

func (c *Client) bucketHost() string {
	return c.bucket + "." + c.region + "." + storageDomain
}

// do signs and sends one request. The path carries any query string;
// it is signed as-is, which is what the storage endpoint expects.
func (c *Client) do(ctx context.Context, method, host, path string, payload []byte, contentType string) (int, []byte, error) {
	toSign := map[string]string{"host": host}
	if contentType != "" {
		toSign["content-type"] = contentType
	}
	if len(payload) > 0 {
		toSign["content-length"] = strconv.Itoa(len(payload))
	}
	signed := c.signer.sign(method, path, toSign, hexSHA256(payload), c.now())

	reqURL := "https://" + host + path
	if c.baseURL != "" {
		reqURL = c.baseURL + path
	}

	var body io.Reader
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return 0, nil, err
	}
	req.Host = host
	for name, value := range signed {
		req.Header.Set(name, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

// contentTypeFor maps a key to its upload content type.
func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".md"):
		return "text/markdown"
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	default:
		return "text/plain"
	}
}
