//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides in-process implementations of the storage
// ports: an API key store and an append-only event store with a bus
// persistence sink.
package inmemory

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"trpc.group/trpc-go/dipeo/diagram"
)

// KeyStore resolves API key IDs from a static map, falling back to
// DIPEO_APIKEY_<ID> environment variables.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[diagram.APIKeyID]string
}

// NewKeyStore creates a key store seeded with the given keys.
func NewKeyStore(seed map[diagram.APIKeyID]string) *KeyStore {
	keys := make(map[diagram.APIKeyID]string, len(seed))
	for id, secret := range seed {
		keys[id] = secret
	}
	return &KeyStore{keys: keys}
}

// Set stores one key.
func (s *KeyStore) Set(id diagram.APIKeyID, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[id] = secret
}

// Get implements service.APIKeyStore.
func (s *KeyStore) Get(ctx context.Context, id diagram.APIKeyID) (string, error) {
	s.mu.RLock()
	secret, ok := s.keys[id]
	s.mu.RUnlock()
	if ok {
		return secret, nil
	}
	env := "DIPEO_APIKEY_" + strings.ToUpper(strings.ReplaceAll(string(id), "-", "_"))
	if secret := os.Getenv(env); secret != "" {
		return secret, nil
	}
	return "", fmt.Errorf("api key %q not found", id)
}
