package rpc

import "net/rpc"

type Client struct {
	client *rpc.Client
}

func Dial(socket string) (*Client, error) {
	client, err := rpc.Dial("unix", socket)
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

func (c *Client) call(method, host string) (*Reply, error) {
	var reply Reply
	if err := c.client.Call(ServiceName+"."+method, host, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) GetOffset(host string) (*Reply, error) {
	return c.call("GetOffset", host)
}

func (c *Client) SetTime(host string) (*Reply, error) {
	return c.call("SetTime", host)
}

func (c *Client) DetailedQuery(host string) (*Reply, error) {
	return c.call("DetailedQuery", host)
}

func (c *Client) State() (*StateReply, error) {
	var reply StateReply
	if err := c.client.Call(ServiceName+".State", 0, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
