package http

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/hyperdash/adapters/store"
	"github.com/layer-3/hyperdash/adapters/tokenizer"
	"github.com/layer-3/hyperdash/adapters/userstore"
	"github.com/layer-3/hyperdash/internal/eth"
	"github.com/layer-3/hyperdash/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	svc := service.NewAuthService(
		tokenizer.NewJWTTokenizer(signKey),
		store.NewMemoryStore(),
		userstore.NewMemoryStore(),
		nil,
		nil,
		zerolog.Nop(),
	)
	return SetupRouter(svc)
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginOverHTTP(t *testing.T, router *gin.Engine) (accessToken string, address string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address = crypto.PubkeyToAddress(key.PublicKey).Hex()

	w := doJSON(router, http.MethodPost, "/auth/wallet/nonce", gin.H{"wallet_address": address}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var nonce struct {
		Nonce     string `json:"nonce"`
		Message   string `json:"message"`
		ExpiresAt string `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nonce))
	require.NotEmpty(t, nonce.Message)
	require.NotEmpty(t, nonce.ExpiresAt)

	sig, err := eth.SignPersonal([]byte(nonce.Message), key)
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/auth/wallet/verify", gin.H{
		"wallet_address": address,
		"signature":      hexutil.Encode(sig),
		"message":        nonce.Message,
		"chain":          "ethereum",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var auth struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		IsNewUser   bool   `json:"is_new_user"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.AccessToken)
	require.Equal(t, "Bearer", auth.TokenType)
	require.Positive(t, auth.ExpiresIn)

	return auth.AccessToken, address
}

func TestWalletLoginFlow(t *testing.T) {
	router := newTestRouter(t)
	token, _ := loginOverHTTP(t, router)

	w := doJSON(router, http.MethodGet, "/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var user struct {
		ID      string `json:"id"`
		Wallets []struct {
			Address string `json:"address"`
			Chain   string `json:"chain"`
		} `json:"wallets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.NotEmpty(t, user.ID)
	require.Len(t, user.Wallets, 1)
	assert.Equal(t, "ethereum", user.Wallets[0].Chain)
}

func TestVerifyRejectsWrongMessage(t *testing.T) {
	router := newTestRouter(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	w := doJSON(router, http.MethodPost, "/auth/wallet/nonce", gin.H{"wallet_address": address}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Sign and submit a different message than the one issued.
	other := "a different message"
	sig, err := eth.SignPersonal([]byte(other), key)
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/auth/wallet/verify", gin.H{
		"wallet_address": address,
		"signature":      hexutil.Encode(sig),
		"message":        other,
		"chain":          "ethereum",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestNonceValidation(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/wallet/nonce", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/wallet/nonce", gin.H{"wallet_address": "0xzz"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeRequiresBearer(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/auth/me", nil, map[string]string{
		"Authorization": "Bearer garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	router := newTestRouter(t)
	token, _ := loginOverHTTP(t, router)

	w := doJSON(router, http.MethodPost, "/auth/refresh", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var rotated struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	require.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, token, rotated.AccessToken)

	// The old access token is tied to the revoked refresh ID.
	w = doJSON(router, http.MethodGet, "/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + rotated.AccessToken,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	router := newTestRouter(t)
	token, _ := loginOverHTTP(t, router)

	w := doJSON(router, http.MethodPost, "/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Session is gone.
	w = doJSON(router, http.MethodGet, "/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logging out with an already-dead or garbage token still succeeds.
	w = doJSON(router, http.MethodPost, "/auth/logout", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(router, http.MethodPost, "/auth/logout", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLinkWalletEndpoint(t *testing.T) {
	router := newTestRouter(t)
	accessToken, _ := loginOverHTTP(t, router)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	w := doJSON(router, http.MethodPost, "/auth/wallet/nonce", gin.H{"wallet_address": address}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var nonce struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nonce))

	sig, err := eth.SignPersonal([]byte(nonce.Message), key)
	require.NoError(t, err)

	w = doJSON(router, http.MethodPost, "/auth/wallet/link", gin.H{
		"wallet_address": address,
		"signature":      hexutil.Encode(sig),
		"message":        nonce.Message,
	}, map[string]string{"Authorization": "Bearer " + accessToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), strings.ToLower(address))
}

func TestLinkWalletEndpointRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/wallet/link", gin.H{
		"wallet_address": "0xabc",
		"signature":      "0xsig",
		"message":        "m",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
