package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteAgent(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/v1/agent/execute", `{"prompt":"add a button","context":{"file":"MainActivity.kt"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ExecuteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Modifications, 1)
	assert.Equal(t, MockFilePath, resp.Modifications[0].FilePath)
	assert.Equal(t, MockDiff, resp.Modifications[0].Diff)
}

func TestInlineCompletion(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/v1/completion/inline", `{"file_content":"fun main() {\n}","cursor_position":12}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"completion":"    println(\"Hello, Cortex!\")\n"}`, w.Body.String())
}

func TestMockEndpoints_Validation(t *testing.T) {
	f := newFixture(t, nil)

	cases := []struct {
		name, path, body string
	}{
		{"missing prompt", "/v1/agent/execute", `{"context":{}}`},
		{"context not object", "/v1/agent/execute", `{"prompt":"p","context":"ctx"}`},
		{"not json", "/v1/agent/execute", `prompt=p`},
		{"cursor not integer", "/v1/completion/inline", `{"file_content":"x","cursor_position":1.5}`},
		{"cursor as string", "/v1/completion/inline", `{"file_content":"x","cursor_position":"3"}`},
		{"array body", "/v1/completion/inline", `[]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp.Error, "invalid request")
		})
	}

	w := f.do(http.MethodGet, "/v1/agent/execute", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
