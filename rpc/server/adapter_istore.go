package server

import (
	"fmt"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/common"
	"strconv"
)

func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, store store.IStore) *common.Message {
	// Check for nil store
	if store == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTPing:
		return common.NewPongResponse()
	case common.MsgTKVSet:
		if err := store.Set(req.Key, req.Value); err != nil {
			return common.NewErrorResponse(err.Error())
		}
		return common.NewSuccessResponse(nil)
	case common.MsgTKVGet:
		val, ok, err := store.Get(req.Key)
		if err != nil {
			return common.NewErrorResponse(err.Error())
		}
		if !ok {
			return common.NewNilResponse()
		}
		return common.NewSuccessResponse(val)
	case common.MsgTKVDelete:
		deleted, err := store.Delete(req.Key)
		if err != nil {
			return common.NewErrorResponse(err.Error())
		}
		return common.NewBoolResponse(deleted)
	case common.MsgTKVHas:
		ok, err := store.Has(req.Key)
		if err != nil {
			return common.NewErrorResponse(err.Error())
		}
		return common.NewBoolResponse(ok)
	case common.MsgTKVKeys:
		n, err := store.Keys()
		if err != nil {
			return common.NewErrorResponse(err.Error())
		}
		return common.NewSuccessResponse([]byte(strconv.Itoa(n)))
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("unsupported message type: %s", req.MsgType),
		)
	}
}
