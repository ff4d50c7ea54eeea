package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const serviceName = "Mediaflow"

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

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(serviceName+"."+method, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartResponse](c, "Start", StartRequest{})
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stop", StopRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// DatabaseHealth retrieves detailed database diagnostics.
func (c *Client) DatabaseHealth() (*DatabaseHealthResponse, error) {
	return call[DatabaseHealthResponse](c, "DatabaseHealth", DatabaseHealthRequest{})
}

// JobSubmit creates a job.
func (c *Client) JobSubmit(req JobSubmitRequest) (*JobSubmitResponse, error) {
	return call[JobSubmitResponse](c, "JobSubmit", req)
}

// JobList returns jobs optionally filtered by statuses.
func (c *Client) JobList(statuses []string) (*JobListResponse, error) {
	return call[JobListResponse](c, "JobList", JobListRequest{Statuses: statuses})
}

// JobDescribe returns details for a single job.
func (c *Client) JobDescribe(id int64) (*JobDescribeResponse, error) {
	return call[JobDescribeResponse](c, "JobDescribe", JobDescribeRequest{ID: id})
}

// JobCancel requests cancellation of a job.
func (c *Client) JobCancel(id int64) (*JobCancelResponse, error) {
	return call[JobCancelResponse](c, "JobCancel", JobCancelRequest{ID: id})
}

// JobRemove removes a finished job.
func (c *Client) JobRemove(id int64) (*JobRemoveResponse, error) {
	return call[JobRemoveResponse](c, "JobRemove", JobRemoveRequest{ID: id})
}

// JobClearFinished removes every finished job.
func (c *Client) JobClearFinished() (*JobClearFinishedResponse, error) {
	return call[JobClearFinishedResponse](c, "JobClearFinished", JobClearFinishedRequest{})
}
