package ton

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Client is a TON Center v3 client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	network    Network
}

// NewClient creates a new TON Center client
func NewClient(network Network, apiKey string) *Client {
	return &Client{
		baseURL: network.BaseURL(),
		apiKey:  apiKey,
		network: network,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// WithBaseURL points the client at another endpoint (tests, self-hosted indexers).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) Network() Network { return c.network }

// Transaction is the part of a v3 transaction used for payment matching
type Transaction struct {
	Hash        string       `json:"hash"`
	Lt          string       `json:"lt"`
	Account     string       `json:"account"`
	Now         int64        `json:"now"`
	InMsg       *Message     `json:"in_msg"`
	Description *Description `json:"description"`
}

// Message represents an inbound TON message
type Message struct {
	Source         string          `json:"source"`
	Destination    string          `json:"destination"`
	Value          string          `json:"value"` // nanotons, decimal string
	MessageContent *MessageContent `json:"message_content"`
}

type MessageContent struct {
	Decoded *DecodedContent `json:"decoded"`
}

// DecodedContent holds a decoded text comment
type DecodedContent struct {
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

type Description struct {
	Type string `json:"type"`
}

// Comment returns the decoded text comment, "" when there is none.
func (m *Message) Comment() string {
	if m == nil || m.MessageContent == nil || m.MessageContent.Decoded == nil {
		return ""
	}
	return m.MessageContent.Decoded.Comment
}

// GetTransactions retrieves the most recent transactions of an account, newest first
func (c *Client) GetTransactions(ctx context.Context, account string, limit int) ([]Transaction, error) {
	q := url.Values{}
	q.Set("account", account)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort", "desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("toncenter %s: %s", resp.Status, string(body))
	}

	var result struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Transactions, nil
}
