package lstore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/rKV/lib/store"
	"sync"
	"testing"
)

func TestSetGet(t *testing.T) {
	s := NewLocalStore()

	if _, ok, _ := s.Get("missing"); ok {
		t.Fatal("found a key that was never set")
	}

	if err := s.Set("key", []byte("value")); err != nil {
		t.Fatal(err)
	}
	val, ok, err := s.Get("key")
	if err != nil || !ok || string(val) != "value" {
		t.Fatalf("Get = %q, %v, %v", val, ok, err)
	}

	// overwrite
	_ = s.Set("key", []byte("other"))
	if val, _, _ := s.Get("key"); string(val) != "other" {
		t.Fatalf("value after overwrite = %q", val)
	}
}

func TestSetCopiesValue(t *testing.T) {
	s := NewLocalStore()

	buf := []byte("original")
	_ = s.Set("k", buf)
	copy(buf, "mutated!")

	val, _, _ := s.Get("k")
	if string(val) != "original" {
		t.Fatalf("stored value aliases the caller's buffer: %q", val)
	}

	val[0] = 'X'
	if again, _, _ := s.Get("k"); string(again) != "original" {
		t.Fatalf("returned value aliases the stored value: %q", again)
	}
}

func TestEmptyValue(t *testing.T) {
	s := NewLocalStore()
	_ = s.Set("empty", nil)

	val, ok, _ := s.Get("empty")
	if !ok || len(val) != 0 {
		t.Fatalf("Get = %q, %v", val, ok)
	}
}

func TestEmptyKey(t *testing.T) {
	s := NewLocalStore()

	err := s.Set("", []byte("v"))
	var storeErr *store.Error
	if !errors.As(err, &storeErr) || storeErr.Code != store.RetCInvalidOperation {
		t.Fatalf("expected an invalid operation error, got %v", err)
	}
}

func TestDeleteHasKeys(t *testing.T) {
	s := NewLocalStore()
	_ = s.Set("a", []byte("1"))
	_ = s.Set("b", []byte("2"))

	if n, _ := s.Keys(); n != 2 {
		t.Fatalf("Keys = %d", n)
	}
	if ok, _ := s.Has("a"); !ok {
		t.Fatal("Has(a) = false")
	}

	if deleted, _ := s.Delete("a"); !deleted {
		t.Fatal("Delete(a) = false")
	}
	if deleted, _ := s.Delete("a"); deleted {
		t.Fatal("second Delete(a) = true")
	}
	if ok, _ := s.Has("a"); ok {
		t.Fatal("Has(a) after delete = true")
	}
	if n, _ := s.Keys(); n != 1 {
		t.Fatalf("Keys = %d", n)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewLocalStore()

	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d-%d", w, i)
				if err := s.Set(key, []byte(key)); err != nil {
					t.Error(err)
					return
				}
				if val, ok, _ := s.Get(key); !ok || string(val) != key {
					t.Errorf("Get(%s) = %q, %v", key, val, ok)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if n, _ := s.Keys(); n != workers*perWorker {
		t.Fatalf("Keys = %d, want %d", n, workers*perWorker)
	}
}
