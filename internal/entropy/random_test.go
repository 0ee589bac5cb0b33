package entropy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomOrg(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			Params struct {
				APIKey string `json:"apiKey"`
				N      int    `json:"n"`
			} `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Method != "generateIntegers" || req.Params.APIKey != "key" || req.Params.N != 2 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientWithoutKey(t *testing.T) {
	c := NewClient("")
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
}

func TestSeedFromRandomOrg(t *testing.T) {
	srv := randomOrg(t, `{"jsonrpc":"2.0","result":{"random":{"data":[3,42]}},"id":1}`)
	c := NewClient("key", WithEndpoint(srv.URL))

	seed, err := c.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3_000_000_042), seed)
}

func TestSeedAPIError(t *testing.T) {
	srv := randomOrg(t, `{"jsonrpc":"2.0","error":{"message":"quota exceeded"},"id":1}`)
	c := NewClient("key", WithEndpoint(srv.URL))

	_, err := c.Seed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, int64(17), Resolve(ctx, 17, nil))

	srv := randomOrg(t, `{"jsonrpc":"2.0","result":{"random":{"data":[0,5]}},"id":1}`)
	assert.Equal(t, int64(5), Resolve(ctx, 0, NewClient("key", WithEndpoint(srv.URL))))

	// A failing endpoint falls back to crypto/rand.
	bad := NewClient("wrong", WithEndpoint(srv.URL))
	assert.Positive(t, Resolve(ctx, 0, bad))
	assert.Positive(t, Resolve(ctx, 0, nil))
}

func TestCryptoSeed(t *testing.T) {
	for range 100 {
		assert.Positive(t, CryptoSeed())
	}
}

func TestStreamsAreIndependent(t *testing.T) {
	a := NewRand(9, StreamSpawn)
	b := NewRand(9, StreamSpawn)
	c := NewRand(9, StreamTurns)
	x, y, z := a.Int63(), b.Int63(), c.Int63()
	assert.Equal(t, x, y)
	assert.NotEqual(t, x, z)
}
