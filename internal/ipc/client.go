package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"github.com/google/uuid"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func newRequest() request {
	return request{CorrelationID: uuid.NewString()}
}

func (c *Client) call(method string, args, reply any) error {
	return c.client.Call(ServiceName+"."+method, args, reply)
}

// DailyPick fetches the user's ending of the day.
func (c *Client) DailyPick(userID string) (*DailyPickResponse, error) {
	var resp DailyPickResponse
	req := DailyPickRequest{request: newRequest(), UserID: userID}
	if err := c.call("DailyPick", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Add creates a catalog entry.
func (c *Client) Add(name, englishName, imageURL string, imageBytes []byte) (*AddResponse, error) {
	var resp AddResponse
	req := AddRequest{
		request:     newRequest(),
		Name:        name,
		EnglishName: englishName,
		ImageURL:    imageURL,
		ImageBytes:  imageBytes,
	}
	if err := c.call("Add", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Remove deletes an entry by id or display name.
func (c *Client) Remove(target string) (*RemoveResponse, error) {
	var resp RemoveResponse
	req := RemoveRequest{request: newRequest(), Target: target}
	if err := c.call("Remove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update changes fields on an entry.
func (c *Client) Update(id int64, fields map[string]string) (*UpdateResponse, error) {
	var resp UpdateResponse
	req := UpdateRequest{request: newRequest(), ID: id, Fields: fields}
	if err := c.call("Update", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns all entries.
func (c *Client) List() (*ListResponse, error) {
	var resp ListResponse
	if err := c.call("List", ListRequest{request: newRequest()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search returns entries matching a keyword.
func (c *Client) Search(keyword string) (*SearchResponse, error) {
	var resp SearchResponse
	req := SearchRequest{request: newRequest(), Keyword: keyword}
	if err := c.call("Search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Show fetches a single entry.
func (c *Client) Show(target string) (*ShowResponse, error) {
	var resp ShowResponse
	req := ShowRequest{request: newRequest(), Target: target}
	if err := c.call("Show", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns catalog and assignment counters.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.call("Stats", StatsRequest{request: newRequest()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cleanup removes orphaned image files.
func (c *Client) Cleanup() (*CleanupResponse, error) {
	var resp CleanupResponse
	if err := c.call("Cleanup", CleanupRequest{request: newRequest()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Validate checks the stored image of an entry.
func (c *Client) Validate(id int64) (*ValidateResponse, error) {
	var resp ValidateResponse
	req := ValidateRequest{request: newRequest(), ID: id}
	if err := c.call("Validate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History queries past assignments.
func (c *Client) History(userID, day string, limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	req := HistoryRequest{request: newRequest(), UserID: userID, Day: day, Limit: limit}
	if err := c.call("History", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Frequency retrieves per-entry pick counts.
func (c *Client) Frequency() (*FrequencyResponse, error) {
	var resp FrequencyResponse
	if err := c.call("Frequency", FrequencyRequest{request: newRequest()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves daemon runtime information.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{request: newRequest()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{request: newRequest()}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
