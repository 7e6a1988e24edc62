package rpc

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/event"
	"github.com/code-payments/iap-sandwich/sandwich"
)

// Client calls a remote bridge the way a host would.
type Client struct {
	bridge BridgeClient
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{bridge: NewBridgeClient(cc)}
}

// Invoke calls method remotely. An SDK failure is returned as a
// *sandwich.Error rebuilt from the response.
func (c *Client) Invoke(ctx context.Context, method string, args bridge.Map) (bridge.Map, error) {
	if args == nil {
		args = bridge.Map{}
	}

	req, err := bridge.Map{
		MethodKey:    method,
		ArgumentsKey: args,
	}.ToStruct()
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	resp, err := c.bridge.Invoke(ctx, req)
	if err != nil {
		return nil, err
	}

	fields := bridge.FromStruct(resp)
	if failure, ok := fields[ErrorKey].(bridge.Map); ok {
		return nil, ErrorFromMap(failure)
	}

	result, _ := fields[ResultKey].(bridge.Map)
	if result == nil {
		result = bridge.Map{}
	}
	return result, nil
}

// StreamEvents calls handle with each event pushed by the bridge until ctx is
// done or the stream breaks. ready, if set, is called once the stream is
// registered with the server.
func (c *Client) StreamEvents(ctx context.Context, ready func(), handle func(*event.HostEvent)) error {
	stream, err := c.bridge.StreamEvents(ctx, &structpb.Struct{})
	if err != nil {
		return err
	}

	if _, err := stream.Header(); err != nil {
		return errors.Wrap(err, "failed to open event stream")
	}
	if ready != nil {
		ready()
	}

	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		handle(HostEventFromMap(bridge.FromStruct(msg)))
	}
}

// HostEventFromMap is the inverse of event.HostEvent.ToMap.
func HostEventFromMap(m bridge.Map) *event.HostEvent {
	e := &event.HostEvent{}
	e.Name, _ = m["name"].(string)
	e.Payload, _ = m["payload"].(bridge.Map)
	if e.Payload == nil {
		e.Payload = bridge.Map{}
	}
	if ms, ok := m["timestamp"].(float64); ok {
		e.Timestamp = time.UnixMilli(int64(ms))
	}
	return e
}

// ErrorFromMap is the inverse of sandwich.Error.ToMap.
func ErrorFromMap(m bridge.Map) *sandwich.Error {
	e := &sandwich.Error{AdditionalInfo: map[string]any{}}

	switch code := m["code"].(type) {
	case string:
		e.Code = code
	case float64:
		e.Code = strconv.FormatInt(int64(code), 10)
	}
	e.Domain, _ = m["domain"].(string)
	e.Details, _ = m["details"].(string)
	e.AdditionalMessage, _ = m["additionalMessage"].(string)
	if info, ok := m["additionalInfo"].(bridge.Map); ok {
		for k, v := range info {
			e.AdditionalInfo[k] = v
		}
	}
	return e
}
