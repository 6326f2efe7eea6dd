package lstore

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("store")

type storeImpl struct {
	data *xsync.MapOf[string, []byte]
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore() store.IStore {
	Logger.Debugf("created local in-memory store")
	return &storeImpl{
		data: xsync.NewMapOf[string, []byte](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if key == "" {
		return store.NewError(store.RetCInvalidOperation, "key must not be empty")
	}
	// the caller may reuse value (e.g. a connection's read buffer)
	s.data.Store(key, append(make([]byte, 0, len(value)), value...))
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	val, ok := s.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	return append(make([]byte, 0, len(val)), val...), true, nil
}

func (s *storeImpl) Delete(key string) (bool, error) {
	_, deleted := s.data.LoadAndDelete(key)
	return deleted, nil
}

func (s *storeImpl) Has(key string) (bool, error) {
	_, ok := s.data.Load(key)
	return ok, nil
}

func (s *storeImpl) Keys() (int, error) {
	return s.data.Size(), nil
}
