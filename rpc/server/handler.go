package server

import (
	"fmt"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
)

// NewEchoHandler returns a handler that answers every request with its own body
func NewEchoHandler() transport.ServerHandleFunc {
	return func(req []byte) []byte {
		return append([]byte(nil), req...)
	}
}

// NewKVHandler returns a handler that interprets request bodies as kv commands
// (see the common package) and executes them against s. Requests are counted
// per command in set; set may be nil.
func NewKVHandler(s store.IStore, set *metrics.Set) transport.ServerHandleFunc {
	adapter := NewIStoreServerAdapter()
	if set == nil {
		set = metrics.NewSet()
	}
	invalid := set.GetOrCreateCounter(`rkv_requests_total{cmd="invalid"}`)
	failed := set.GetOrCreateCounter(`rkv_requests_failed_total`)

	return func(req []byte) []byte {
		msg, err := common.ParseRequest(req)
		if err != nil {
			invalid.Inc()
			return common.AppendResponse(nil, common.NewErrorResponse(err.Error()))
		}

		set.GetOrCreateCounter(fmt.Sprintf(`rkv_requests_total{cmd=%q}`, msg.MsgType.String())).Inc()

		respMsg := adapter.Handle(msg, s)
		if respMsg.MsgType == common.MsgTError {
			failed.Inc()
		}

		resp := common.AppendResponse(nil, respMsg)
		if len(resp) > codec.MaxBodyLen {
			// the reactor closes connections whose responses cannot be framed
			Logger.Warningf("response to %s %q exceeds %d bytes", msg.MsgType.Verb(), msg.Key, codec.MaxBodyLen)
			failed.Inc()
			resp = common.AppendResponse(nil, common.NewErrorResponse("response too large"))
		}
		return resp
	}
}
