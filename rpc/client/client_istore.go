package client

import (
	"fmt"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"strconv"
)

// RPCStore is a store.IStore backed by a remote rKV server running the kv handler
type RPCStore interface {
	store.IStore
	// Ping checks that the server answers
	Ping() error
	// Do sends a raw request body and returns the raw response body
	Do(req []byte) (resp []byte, err error)
	// Close closes the underlying transport
	Close() error
}

// NewRPCStore creates a new RPC store
// The function takes a client config and a transport as parameters
// It connects the transport and returns the store
func NewRPCStore(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
) (RPCStore, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC store
	s := rpcStore{
		rpcClientAdapter{
			config:    config,
			transport: transport,
		},
	}

	// Return the RPC store
	return &s, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the store package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcStore) Set(key string, value []byte) (err error) {
	req := common.NewSetRequest(key, value)
	_, err = invokeRPCRequest(req, i.transport)
	return err
}

func (i *rpcStore) Get(key string) (value []byte, loaded bool, err error) {
	req := common.NewGetRequest(key)
	resp, err := invokeRPCRequest(req, i.transport)
	if err != nil {
		return nil, false, err
	}
	if resp.MsgType == common.MsgTNil {
		return nil, false, nil
	}
	if resp.Value == nil {
		resp.Value = []byte{}
	}
	return resp.Value, true, nil
}

func (i *rpcStore) Delete(key string) (deleted bool, err error) {
	req := common.NewDeleteRequest(key)
	resp, err := invokeRPCRequest(req, i.transport)
	if err != nil {
		return false, err
	}
	return parseBool(resp)
}

func (i *rpcStore) Has(key string) (loaded bool, err error) {
	req := common.NewHasRequest(key)
	resp, err := invokeRPCRequest(req, i.transport)
	if err != nil {
		return false, err
	}
	return parseBool(resp)
}

func (i *rpcStore) Keys() (count int, err error) {
	resp, err := invokeRPCRequest(common.NewKeysRequest(), i.transport)
	if err != nil {
		return 0, err
	}
	count, err = strconv.Atoi(string(resp.Value))
	if err != nil {
		return 0, fmt.Errorf("RPC client - invalid key count %q", resp.Value)
	}
	return count, nil
}

// --------------------------------------------------------------------------
// Additional Methods
// --------------------------------------------------------------------------

func (i *rpcStore) Ping() error {
	_, err := invokeRPCRequest(common.NewPingRequest(), i.transport)
	return err
}

func (i *rpcStore) Do(req []byte) ([]byte, error) {
	return i.transport.Send(req)
}

func (i *rpcStore) Close() error {
	return i.transport.Close()
}

func parseBool(resp *common.Message) (bool, error) {
	switch string(resp.Value) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	default:
		return false, fmt.Errorf("RPC client - invalid boolean %q", resp.Value)
	}
}
