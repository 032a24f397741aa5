package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
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
	return &Client{conn: conn, client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
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

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call(serviceName+".Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Downloads lists tracked downloads, optionally filtered by state.
func (c *Client) Downloads(states ...string) ([]Download, error) {
	var resp DownloadsResponse
	if err := c.client.Call(serviceName+".Downloads", DownloadsRequest{States: states}, &resp); err != nil {
		return nil, err
	}
	return resp.Downloads, nil
}

// Retry re-runs the import step for downloadID.
func (c *Client) Retry(downloadID string) (*Download, error) {
	var resp RetryResponse
	if err := c.client.Call(serviceName+".Retry", RetryRequest{DownloadID: downloadID}, &resp); err != nil {
		return nil, err
	}
	return &resp.Download, nil
}
