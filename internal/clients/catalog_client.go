package clients

import (
	"context"
	"net/http"
	"net/url"

	"bookshelf/internal/catalog"
	"bookshelf/internal/respond"
	"bookshelf/internal/storage"
)

func bookPath(isbn string) string {
	return "/books/" + url.PathEscape(isbn)
}

// AddBook registers isbn; the server resolves its metadata.
func (c *Client) AddBook(ctx context.Context, isbn string) (*catalog.Book, error) {
	var book catalog.Book
	in := struct {
		ISBN string `json:"isbn"`
	}{ISBN: isbn}
	if err := c.do(ctx, http.MethodPost, "/books", nil, in, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *Client) GetBook(ctx context.Context, isbn string) (*catalog.Book, error) {
	var book catalog.Book
	if err := c.do(ctx, http.MethodGet, bookPath(isbn), nil, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns one page of books matching filter. A zero page limit uses
// the server default.
func (c *Client) ListBooks(ctx context.Context, filter catalog.Filter, page storage.Page) (*respond.List[catalog.Book], error) {
	q := url.Values{}
	if filter.Author != "" {
		q.Set("author", filter.Author)
	}
	if filter.Title != "" {
		q.Set("title", filter.Title)
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}

	var list respond.List[catalog.Book]
	if err := c.do(ctx, http.MethodGet, "/books", pageQuery(q, page), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteBook removes the book and returns the server acknowledgement.
func (c *Client) DeleteBook(ctx context.Context, isbn string) (string, error) {
	var d respond.Detail
	if err := c.do(ctx, http.MethodDelete, bookPath(isbn), nil, nil, &d); err != nil {
		return "", err
	}
	return d.Detail, nil
}
