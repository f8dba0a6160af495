package clients

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"bookshelf/internal/circulation"
)

type borrowRequest struct {
	MemberID int64  `json:"member_id"`
	ISBN     string `json:"isbn"`
}

func (c *Client) Borrow(ctx context.Context, memberID int64, isbn string) (*circulation.Record, error) {
	var rec circulation.Record
	if err := c.do(ctx, http.MethodPost, "/borrow", nil, borrowRequest{MemberID: memberID, ISBN: isbn}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) Return(ctx context.Context, memberID int64, isbn string) (*circulation.Record, error) {
	var rec circulation.Record
	if err := c.do(ctx, http.MethodPost, "/return", nil, borrowRequest{MemberID: memberID, ISBN: isbn}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func historyQuery(activeOnly bool) url.Values {
	if !activeOnly {
		return nil
	}
	return url.Values{"active_only": {"true"}}
}

func (c *Client) MemberHistory(ctx context.Context, memberID int64, activeOnly bool) ([]circulation.Record, error) {
	var records []circulation.Record
	path := "/members/" + strconv.FormatInt(memberID, 10) + "/borrows"
	if err := c.do(ctx, http.MethodGet, path, historyQuery(activeOnly), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) BookHistory(ctx context.Context, isbn string, activeOnly bool) ([]circulation.Record, error) {
	var records []circulation.Record
	if err := c.do(ctx, http.MethodGet, bookPath(isbn)+"/borrows", historyQuery(activeOnly), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}
