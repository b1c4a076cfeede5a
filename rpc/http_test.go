package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"launchpad/config"
	"launchpad/core"
	"launchpad/crypto"
	"launchpad/storage"
)

const testSecret = "rpc-test-secret"

var (
	authorityAddr = [20]byte{0x01}
	buyerAddr     = [20]byte{0x02}
	referrerAddr  = [20]byte{0x03}
)

type testResponse struct {
	ID     interface{}     `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"error"`
}

func newTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	nodeCfg := config.Default()
	nodeCfg.Genesis.Allocations = []config.Allocation{
		{Address: crypto.FormatAccount(buyerAddr), Amount: 1_000_000},
		{Address: crypto.FormatAccount(authorityAddr), Amount: 1_000_000},
	}
	node, err := core.NewNode(storage.NewMemDB(), nodeCfg, core.WithNowFunc(func() int64 { return 1_700_000_000 }))
	require.NoError(t, err)
	t.Cleanup(node.Close)
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = testSecret
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 6000
		cfg.Burst = 1000
	}
	return NewServer(node, cfg, nil)
}

func tokenFor(t *testing.T, addr [20]byte) string {
	t.Helper()
	token, err := IssueToken(testSecret, "", addr, time.Hour)
	require.NoError(t, err)
	return token
}

func call(t *testing.T, handler http.Handler, token, method string, params interface{}) (int, testResponse) {
	t.Helper()
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var resp testResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func createLaunch(t *testing.T, handler http.Handler) string {
	t.Helper()
	status, resp := call(t, handler, tokenFor(t, authorityAddr), "launch_create", map[string]interface{}{
		"symbol":       "TKN",
		"decimals":     6,
		"initialPrice": "1000",
		"slope":        "10",
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	var launch launchResult
	require.NoError(t, json.Unmarshal(resp.Result, &launch))
	require.Equal(t, crypto.FormatAccount(authorityAddr), launch.Authority)
	return launch.Address
}

func TestHealthAndRequestID(t *testing.T) {
	handler := newTestServer(t, ServerConfig{}).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestMutatingMethodRequiresToken(t *testing.T) {
	handler := newTestServer(t, ServerConfig{}).Handler()
	status, resp := call(t, handler, "", "launch_create", map[string]interface{}{"symbol": "TKN"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	forged, err := IssueToken("other-secret", "", buyerAddr, time.Hour)
	require.NoError(t, err)
	status, resp = call(t, handler, forged, "launch_create", map[string]interface{}{"symbol": "TKN"})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestPurchaseFlow(t *testing.T) {
	handler := newTestServer(t, ServerConfig{}).Handler()
	launch := createLaunch(t, handler)

	status, resp := call(t, handler, "", "launch_quote", map[string]interface{}{"launch": launch, "payment": "21000"})
	require.Equal(t, http.StatusOK, status)
	var quote quoteResult
	require.NoError(t, json.Unmarshal(resp.Result, &quote))
	require.Equal(t, uint64(19), quote.Units)
	require.Equal(t, uint64(20710), quote.Cost)
	require.Equal(t, uint64(290), quote.Change)

	status, resp = call(t, handler, tokenFor(t, referrerAddr), "affiliate_register", map[string]interface{}{"referralLevel": 1})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	status, resp = call(t, handler, tokenFor(t, buyerAddr), "launch_purchase", map[string]interface{}{
		"launch":    launch,
		"payment":   "21000",
		"affiliate": crypto.FormatAccount(referrerAddr),
	})
	require.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)
	var purchase purchaseResult
	require.NoError(t, json.Unmarshal(resp.Result, &purchase))
	require.Equal(t, uint64(19), purchase.Units)
	require.Equal(t, uint64(20710), purchase.Cost)
	require.Equal(t, uint64(1), purchase.Commission)
	require.Equal(t, uint64(1190), purchase.PriceAfter)

	status, resp = call(t, handler, "", "token_balance", map[string]interface{}{"owner": crypto.FormatAccount(buyerAddr)})
	require.Equal(t, http.StatusOK, status)
	var balance balanceResult
	require.NoError(t, json.Unmarshal(resp.Result, &balance))
	require.Equal(t, uint64(1_000_000-20710), balance.Balance)
	require.Equal(t, "USDL", balance.Symbol)

	status, resp = call(t, handler, "", "launch_get", map[string]interface{}{"launch": launch})
	require.Equal(t, http.StatusOK, status)
	var detail launchDetailResult
	require.NoError(t, json.Unmarshal(resp.Result, &detail))
	require.Equal(t, uint64(19), detail.UnitsSold)
	require.Equal(t, uint64(20710), detail.VaultBalance)
	require.Equal(t, uint64(1190), detail.CurrentPrice)

	status, resp = call(t, handler, tokenFor(t, buyerAddr), "launch_withdraw", map[string]interface{}{"launch": launch})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, codeForbidden, resp.Error.Code)
	var data errorData
	require.NoError(t, json.Unmarshal(resp.Error.Data, &data))
	require.Equal(t, "AuthorityMismatch", data.Kind)

	status, resp = call(t, handler, tokenFor(t, authorityAddr), "launch_withdraw", map[string]interface{}{"launch": launch})
	require.Equal(t, http.StatusOK, status)
	var withdrawn amountResult
	require.NoError(t, json.Unmarshal(resp.Result, &withdrawn))
	require.Equal(t, uint64(20710), withdrawn.Amount)

	status, resp = call(t, handler, "", "events_recent", map[string]interface{}{"limit": 50})
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, string(resp.Result), "launchpad.launch.purchased")
}

func TestAffiliateRateErrors(t *testing.T) {
	handler := newTestServer(t, ServerConfig{}).Handler()
	token := tokenFor(t, referrerAddr)

	status, resp := call(t, handler, token, "affiliate_setRate", map[string]interface{}{"rateBps": 500})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeNotFound, resp.Error.Code)

	status, _ = call(t, handler, token, "affiliate_register", map[string]interface{}{"referralLevel": 1})
	require.Equal(t, http.StatusOK, status)

	status, resp = call(t, handler, token, "affiliate_setRate", map[string]interface{}{"rateBps": 10001})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidInput, resp.Error.Code)

	status, resp = call(t, handler, "", "affiliate_get", map[string]interface{}{"affiliate": crypto.FormatAccount(referrerAddr)})
	require.Equal(t, http.StatusOK, status)
	var record affiliateResult
	require.NoError(t, json.Unmarshal(resp.Result, &record))
	require.Equal(t, uint16(1000), record.CommissionRateBps)
	require.Equal(t, "bronze", record.Tier)

	status, resp = call(t, handler, "", "affiliate_suggestedRate", map[string]interface{}{"affiliate": crypto.FormatAccount(referrerAddr)})
	require.Equal(t, http.StatusOK, status)
	var suggestion suggestedRateResult
	require.NoError(t, json.Unmarshal(resp.Result, &suggestion))
	require.Equal(t, uint16(500), suggestion.SuggestedBps)
}

func TestAffiliateRecordClicks(t *testing.T) {
	handler := newTestServer(t, ServerConfig{}).Handler()
	token := tokenFor(t, referrerAddr)

	status, resp := call(t, handler, "", "affiliate_recordClicks", map[string]interface{}{"clicks": 40})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	status, _ = call(t, handler, token, "affiliate_register", map[string]interface{}{"referralLevel": 1})
	require.Equal(t, http.StatusOK, status)

	status, resp = call(t, handler, token, "affiliate_recordClicks", map[string]interface{}{"clicks": 0})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidInput, resp.Error.Code)

	status, resp = call(t, handler, token, "affiliate_recordClicks", map[string]interface{}{"clicks": 40})
	require.Equal(t, http.StatusOK, status)
	var record affiliateResult
	require.NoError(t, json.Unmarshal(resp.Result, &record))
	require.Equal(t, uint32(40), record.TotalClicks)
	require.Equal(t, uint64(0), record.TotalReferredVolume)

	status, resp = call(t, handler, "", "affiliate_suggestedRate", map[string]interface{}{"affiliate": crypto.FormatAccount(referrerAddr)})
	require.Equal(t, http.StatusOK, status)
	var suggestion suggestedRateResult
	require.NoError(t, json.Unmarshal(resp.Result, &suggestion))
	require.Equal(t, uint16(450), suggestion.SuggestedBps)
	require.Equal(t, uint16(0), suggestion.ConversionBps)
}

func TestRequestValidation(t *testing.T) {
	handler := newTestServer(t, ServerConfig{}).Handler()

	status, resp := call(t, handler, "", "launch_unknown", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	status, resp = call(t, handler, "", "launch_get", map[string]interface{}{"launch": "not-an-address"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	status, resp = call(t, handler, "", "launch_get", map[string]interface{}{"launch": crypto.FormatAccount([20]byte{0x99}), "extra": true})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	handler := newTestServer(t, ServerConfig{RequestsPerMinute: 1, Burst: 1}).Handler()
	status, _ := call(t, handler, "", "launch_list", nil)
	require.Equal(t, http.StatusOK, status)
	status, resp := call(t, handler, "", "launch_list", nil)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, codeRateLimited, resp.Error.Code)
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	limiter := newRateLimiter(1, 1, false)
	admitted := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.1.1.1:9000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("203.0.113.%d", i))
		require.Equal(t, "10.1.1.1", limiter.clientID(req))
		if limiter.allow(limiter.clientID(req)) {
			admitted++
		}
	}
	require.Equal(t, 1, admitted)
}

func TestRateLimitTrustedProxyHonorsForwardedFor(t *testing.T) {
	limiter := newRateLimiter(1, 1, true)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.10:7000"
	req.Header.Set("X-Forwarded-For", "198.51.100.8, 192.0.2.10")
	require.Equal(t, "198.51.100.8", limiter.clientID(req))

	req.Header.Set("X-Real-IP", "198.51.100.9")
	require.Equal(t, "198.51.100.9", limiter.clientID(req))

	bare := httptest.NewRequest(http.MethodPost, "/", nil)
	bare.RemoteAddr = "192.0.2.11:7000"
	require.Equal(t, "192.0.2.11", limiter.clientID(bare))
}

func TestRateLimitSpoofedHeaderThroughHandler(t *testing.T) {
	handler := newTestServer(t, ServerConfig{RequestsPerMinute: 1, Burst: 1}).Handler()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		body, err := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": i, "method": "launch_list"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
		req.RemoteAddr = "10.9.9.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
