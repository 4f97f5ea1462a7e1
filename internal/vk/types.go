package vk

import (
	"encoding/json"
	"fmt"
)

// Session holds the access token and the account id it resolves to.
// It is created once by Authorize and passed explicitly to every call.
type Session struct {
	Token  string
	UserID int
}

// Post is a read-only snapshot of one wall post.
type Post struct {
	ID      int    `json:"id"`
	OwnerID int    `json:"owner_id"`
	Date    int64  `json:"date"`
	Text    string `json:"text"`
}

// APIError is a structured error returned by the VK API inside an
// otherwise successful HTTP response.
type APIError struct {
	Code int    `json:"error_code"`
	Msg  string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Msg)
}

// envelope covers both response shapes: exactly one of Response and
// Error is populated.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

type wallPage struct {
	Count int    `json:"count"`
	Items []Post `json:"items"`
}

type account struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
