package pagination

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/tornsdk/torn-api-client/pkg/client"
	"github.com/tornsdk/torn-api-client/pkg/params"
)

// LinkError is returned when a next/previous URL from the API could not
// be parsed.
type LinkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	return fmt.Sprintf("invalid pagination link %q: %v", e.URL, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *LinkError) Unwrap() error {
	return e.Err
}

// Links holds the navigation URLs from a response's _metadata field.
// Absence of both means the page is terminal.
type Links struct {
	Next     string `json:"next"`
	Previous string `json:"prev"`
}

// pageMetadata mirrors the _metadata object of paginated responses.
type pageMetadata struct {
	Links Links `json:"links"`
}

// pageEnvelope extracts only the metadata; the data fields are decoded
// separately into the target type.
type pageEnvelope struct {
	Metadata *pageMetadata `json:"_metadata"`
}

// Page is one page of a paginated result set. Pages are immutable;
// navigation returns new Page values. All pages reached from one Fetch
// share the originating client, so per-key and aggregate rate-limit
// accounting stays consistent across the traversal.
type Page[T any] struct {
	// Data is the decoded response for this page.
	Data T

	links  Links
	client *client.Client
}

// Fetch performs a paginated GET through the client and wraps the result
// in a Page. Responses without _metadata produce a terminal page.
func Fetch[T any](ctx context.Context, c *client.Client, path string, q params.Params) (*Page[T], error) {
	body, err := c.GetRaw(ctx, path, q)
	if err != nil {
		return nil, err
	}

	page := &Page[T]{client: c}

	if err := json.Unmarshal(body, &page.Data); err != nil {
		return nil, &client.DecodeError{Err: err}
	}

	var envelope pageEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Metadata != nil {
		page.links = envelope.Metadata.Links
	}

	return page, nil
}

// HasNext reports whether a next page link is present.
func (p *Page[T]) HasNext() bool {
	return p.links.Next != ""
}

// HasPrevious reports whether a previous page link is present.
func (p *Page[T]) HasPrevious() bool {
	return p.links.Previous != ""
}

// NextURL returns the raw next page URL, or "".
func (p *Page[T]) NextURL() string {
	return p.links.Next
}

// PreviousURL returns the raw previous page URL, or "".
func (p *Page[T]) PreviousURL() string {
	return p.links.Previous
}

// Next fetches the next page, or returns nil when there is none.
func (p *Page[T]) Next(ctx context.Context) (*Page[T], error) {
	return p.follow(ctx, p.links.Next)
}

// Previous fetches the previous page, or returns nil when there is none.
func (p *Page[T]) Previous(ctx context.Context) (*Page[T], error) {
	return p.follow(ctx, p.links.Previous)
}

func (p *Page[T]) follow(ctx context.Context, link string) (*Page[T], error) {
	if link == "" {
		return nil, nil
	}

	path, q, err := parseLink(link)
	if err != nil {
		return nil, err
	}

	return Fetch[T](ctx, p.client, path, q)
}

// Pages returns an iterator over this page and all pages after it. The
// sequence ends after a page without a next link, or after yielding the
// error from a failed fetch (no pages follow an error).
func (p *Page[T]) Pages(ctx context.Context) iter.Seq2[*Page[T], error] {
	return func(yield func(*Page[T], error) bool) {
		current := p
		for {
			if !yield(current, nil) {
				return
			}
			if !current.HasNext() {
				return
			}

			next, err := current.Next(ctx)
			if err != nil {
				yield(nil, err)
				return
			}
			current = next
		}
	}
}

// parseLink splits an absolute pagination URL into the relative path and
// ordered query parameters used by the dispatcher. A leading API-version
// segment ("/v2") is stripped to match the dispatcher's path convention.
func parseLink(link string) (string, params.Params, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", nil, &LinkError{URL: link, Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", nil, &LinkError{URL: link, Err: fmt.Errorf("not an absolute URL")}
	}

	path := strings.TrimPrefix(parsed.Path, "/v2")

	return path, params.FromQuery(parsed.RawQuery), nil
}
