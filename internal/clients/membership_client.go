package clients

import (
	"context"
	"net/http"
	"strconv"

	"bookshelf/internal/membership"
	"bookshelf/internal/respond"
	"bookshelf/internal/storage"
)

func (c *Client) RegisterMember(ctx context.Context, name string) (*membership.Member, error) {
	var m membership.Member
	in := struct {
		Name string `json:"name"`
	}{Name: name}
	if err := c.do(ctx, http.MethodPost, "/members", nil, in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) GetMember(ctx context.Context, id int64) (*membership.Member, error) {
	var m membership.Member
	if err := c.do(ctx, http.MethodGet, "/members/"+strconv.FormatInt(id, 10), nil, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) ListMembers(ctx context.Context, page storage.Page) (*respond.List[membership.Member], error) {
	var list respond.List[membership.Member]
	if err := c.do(ctx, http.MethodGet, "/members", pageQuery(nil, page), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}
