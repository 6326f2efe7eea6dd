package client

import (
	"fmt"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// rpcClientAdapter is a struct that stores all data needed for an implementation of an RPC client
type rpcClientAdapter struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// invokeRPCRequest is a helper function used by the RPC clients to send requests
// It takes a request message and a transport layer as parameters
// It returns a response message and an error if any occurs
// This method also converts error responses into errors and checks that the
// response kind is one the request can produce
func invokeRPCRequest(req *common.Message, transport transport.IRPCClientTransport) (*common.Message, error) {
	// Encode the request
	reqBytes, err := common.AppendRequest(nil, req)
	if err != nil {
		return nil, store.NewError(store.RetCInvalidOperation, err.Error())
	}

	// Send the request
	respBytes, err := transport.Send(reqBytes)
	if err != nil {
		return nil, err
	}

	// Decode the response
	resp, err := common.ParseResponse(respBytes)
	if err != nil {
		return nil, fmt.Errorf("RPC client - %s: %w", req.MsgType, err)
	}

	// Check if the response is an error response
	if resp.MsgType == common.MsgTError {
		return nil, store.NewError(store.RetCRemoteError, resp.Err)
	}

	// Check if the type of the response is the expected type
	if !expectsResponse(req.MsgType, resp.MsgType) {
		return nil, fmt.Errorf("RPC client - unexpected %s response to %s", resp.MsgType, req.MsgType)
	}

	return resp, nil
}

func expectsResponse(req, resp common.MessageType) bool {
	switch req {
	case common.MsgTPing:
		return resp == common.MsgTPong
	case common.MsgTKVGet:
		return resp == common.MsgTSuccess || resp == common.MsgTNil
	default:
		return resp == common.MsgTSuccess
	}
}
