//
// Tencent is pleased to support the open source community by making dipeo available.
//
// Copyright (C) 2026 Tencent.  All rights reserved.
//
// dipeo is licensed under the Apache License Version 2.0.
//
//

package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/dipeo/diagram"
	"trpc.group/trpc-go/dipeo/exec"
)

func apiNode(url, method string) *diagram.ExecutableNode {
	return testNode("api", diagram.NodeTypeAPIJob, &diagram.APIJobConfig{
		URL: url, Method: method,
	})
}

func TestAPIJobDecodesJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": 42}`))
	}))
	defer srv.Close()

	h := &apiJobHandler{client: srv.Client()}
	out, err := h.Execute(context.Background(), apiNode(srv.URL, ""), nil, testContext(nil))
	require.NoError(t, err)

	env := out[string(diagram.LabelDefault)]
	body, ok := env.Body().(map[string]any)
	require.True(t, ok, "JSON responses decode into objects")
	assert.Equal(t, float64(42), body["answer"])
	status, ok := env.Meta("status_code")
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
}

func TestAPIJobPlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	h := &apiJobHandler{client: srv.Client()}
	out, err := h.Execute(context.Background(), apiNode(srv.URL, ""), nil, testContext(nil))
	require.NoError(t, err)
	assert.Equal(t, "pong", out[string(diagram.LabelDefault)].Body())
}

func TestAPIJobPostsInputBody(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := &apiJobHandler{client: srv.Client()}
	_, err := h.Execute(context.Background(), apiNode(srv.URL, http.MethodPost),
		textIn("payload"), testContext(nil))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(gotBody))
	assert.Equal(t, "text/plain", gotContentType)
}

func TestAPIJobConfigBodyWins(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := testNode("api", diagram.NodeTypeAPIJob, &diagram.APIJobConfig{
		URL: srv.URL, Method: http.MethodPost,
		Body: map[string]any{"fixed": true},
	})
	h := &apiJobHandler{client: srv.Client()}
	_, err := h.Execute(context.Background(), n, textIn("ignored"), testContext(nil))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, map[string]any{"fixed": true}, decoded)
}

func TestAPIJobSetsHeaders(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	n := testNode("api", diagram.NodeTypeAPIJob, &diagram.APIJobConfig{
		URL: srv.URL, Headers: map[string]string{"Authorization": "Bearer tok"},
	})
	h := &apiJobHandler{client: srv.Client()}
	_, err := h.Execute(context.Background(), n, nil, testContext(nil))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestAPIJobServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := &apiJobHandler{client: srv.Client()}
	_, err := h.Execute(context.Background(), apiNode(srv.URL, ""), nil, testContext(nil))
	require.Error(t, err)
	typed := exec.AsError(err)
	assert.Equal(t, exec.CodeExternalService, typed.Code)
	assert.True(t, typed.Retryable)
}

func TestAPIJobClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	h := &apiJobHandler{client: srv.Client()}
	_, err := h.Execute(context.Background(), apiNode(srv.URL, ""), nil, testContext(nil))
	require.Error(t, err)
	typed := exec.AsError(err)
	assert.Equal(t, exec.CodeExternalService, typed.Code)
	assert.False(t, typed.Retryable)
}

func TestAPIJobTransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	h := &apiJobHandler{}
	_, err := h.Execute(context.Background(), apiNode(srv.URL, ""), nil, testContext(nil))
	require.Error(t, err)
	assert.True(t, exec.AsError(err).Retryable)
}
