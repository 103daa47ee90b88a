package testutils

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/stretchr/testify/suite"

	"github.com/dietcompass/planner/internal/ports/outbound"
)

// KeyValueStoreSuite checks the behavior every outbound.KeyValueStore
// shares. Embed it and set NewStore.
type KeyValueStoreSuite struct {
	suite.Suite
	NewStore func() outbound.KeyValueStore
	store    outbound.KeyValueStore
	ctx      context.Context
}

// SetupTest creates a fresh store
func (s *KeyValueStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

// TearDownTest closes the store
func (s *KeyValueStoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *KeyValueStoreSuite) put(key, value string) {
	err := s.store.Update(s.ctx, []string{key}, func(tx outbound.KVTx) error {
		return tx.Put(key, []byte(value))
	})
	s.Require().NoError(err)
}

// TestGetMissing checks absent keys report ErrKeyNotFound
func (s *KeyValueStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, "test:missing")
	s.True(errors.Is(err, outbound.ErrKeyNotFound))
}

// TestPutAndGet checks a committed write is readable
func (s *KeyValueStoreSuite) TestPutAndGet() {
	s.put("test:a", `{"n":1}`)

	value, err := s.store.Get(s.ctx, "test:a")
	s.Require().NoError(err)
	s.JSONEq(`{"n":1}`, string(value))

	s.put("test:a", `{"n":2}`)
	value, err = s.store.Get(s.ctx, "test:a")
	s.Require().NoError(err)
	s.JSONEq(`{"n":2}`, string(value))
}

// TestFailedUpdateWritesNothing checks an update is all or nothing
func (s *KeyValueStoreSuite) TestFailedUpdateWritesNothing() {
	s.put("test:kept", `{"v":"old"}`)
	boom := errors.New("boom")

	err := s.store.Update(s.ctx, []string{"test:kept", "test:new"}, func(tx outbound.KVTx) error {
		if err := tx.Put("test:kept", []byte(`{"v":"new"}`)); err != nil {
			return err
		}
		if err := tx.Put("test:new", []byte(`{"v":"new"}`)); err != nil {
			return err
		}
		return boom
	})

	s.ErrorIs(err, boom)
	value, err := s.store.Get(s.ctx, "test:kept")
	s.Require().NoError(err)
	s.JSONEq(`{"v":"old"}`, string(value))
	_, err = s.store.Get(s.ctx, "test:new")
	s.True(errors.Is(err, outbound.ErrKeyNotFound))
}

// TestReadYourWrites checks a transaction sees its own staged writes
func (s *KeyValueStoreSuite) TestReadYourWrites() {
	s.put("test:gone", `{}`)

	err := s.store.Update(s.ctx, []string{"test:x", "test:gone"}, func(tx outbound.KVTx) error {
		if err := tx.Put("test:x", []byte(`{"staged":true}`)); err != nil {
			return err
		}
		value, err := tx.Get("test:x")
		if err != nil {
			return err
		}
		s.JSONEq(`{"staged":true}`, string(value))

		if err := tx.Delete("test:gone"); err != nil {
			return err
		}
		_, err = tx.Get("test:gone")
		s.True(errors.Is(err, outbound.ErrKeyNotFound))
		return nil
	})

	s.Require().NoError(err)
	_, err = s.store.Get(s.ctx, "test:gone")
	s.True(errors.Is(err, outbound.ErrKeyNotFound))
}

// TestConcurrentIncrements checks read-modify-write updates do not lose
// writes
func (s *KeyValueStoreSuite) TestConcurrentIncrements() {
	const workers = 8
	s.put("test:counter", "0")

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Update(s.ctx, []string{"test:counter"}, func(tx outbound.KVTx) error {
				value, err := tx.Get("test:counter")
				if err != nil {
					return err
				}
				n, err := strconv.Atoi(string(value))
				if err != nil {
					return err
				}
				return tx.Put("test:counter", []byte(strconv.Itoa(n+1)))
			})
		}()
	}
	wg.Wait()
	close(errs)

	committed := 0
	for err := range errs {
		if err == nil {
			committed++
		}
	}
	value, err := s.store.Get(s.ctx, "test:counter")
	s.Require().NoError(err)
	s.Equal(strconv.Itoa(committed), string(value))
}
