package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0xcba75F167B03e34B8a572c50273C082401b073Ed"

func TestNewVisualizeRequest(t *testing.T) {
	r := NewVisualizeRequest(SourceAddress, testAddr, "ignored.json", 0)
	pl, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sourceType":"address","address":"`+testAddr+`","filename":null,"maxNodes":null}`, string(pl))

	r = NewVisualizeRequest(SourceLocal, testAddr, "wallets.json", 50)
	pl, err = json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sourceType":"local","address":null,"filename":"wallets.json","maxNodes":50}`, string(pl))
}

func TestVisualize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list_json_files":
			_, _ = w.Write([]byte(`{"files":["a.json","b.json"]}`))
		case "/visualize_dataset":
			var in VisualizeRequest
			_ = json.NewDecoder(r.Body).Decode(&in)

			if in.SourceType == SourceLocal {
				_, _ = w.Write([]byte(`{"error":"File not found"}`))

				return
			}

			_, _ = w.Write([]byte(`{"visualization_url":"https://viz/1"}`))
		}
	}))
	defer srv.Close()

	v := NewVisualizer(NewClient(srv.URL, 0))
	ctx := context.Background()

	files, err := v.ListFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, files)

	url, err := v.Visualize(ctx, NewVisualizeRequest(SourceAddress, testAddr, "", 10))
	require.NoError(t, err)
	assert.Equal(t, "https://viz/1", url)

	_, err = v.Visualize(ctx, NewVisualizeRequest(SourceLocal, "", "missing.json", 0))
	assert.Equal(t, "File not found", RemoteMessage(err))

	_, err = v.Visualize(ctx, NewVisualizeRequest(SourceAddress, "0x123", "", 0))
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = v.Visualize(ctx, NewVisualizeRequest("s3", "", "", 0))
	assert.True(t, errors.Is(err, ErrValidation))
}
