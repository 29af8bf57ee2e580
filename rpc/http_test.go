package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core"
	"launchpad/observability/logging"
	"launchpad/storage"
)

const testToken = "rpc-test-token"

var (
	testSuper = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testAdmin = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	testUser  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
)

func newTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	node, err := core.NewNode(storage.NewMemDB(), core.Config{
		SuperAdmin: testSuper,
		Admins:     []common.Address{testAdmin},
		Balances:   map[common.Address]*big.Int{testUser: big.NewInt(1000)},
	})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return NewServer(node, cfg, nil)
}

type rpcReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func call(t *testing.T, handler http.Handler, token, method string, params interface{}) (int, rpcReply) {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return post(t, handler, token, method, raw, nil)
}

// post sends raw as the single parameter object of method.
func post(t *testing.T, handler http.Handler, token, method string, raw json.RawMessage, headers map[string]string) (int, rpcReply) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  []json.RawMessage{raw},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.5:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var reply rpcReply
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply %q: %v", rec.Body.String(), err)
	}
	return rec.Code, reply
}

func TestHealthzAssignsRequestID(t *testing.T) {
	server := newTestServer(t, ServerConfig{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "caller-supplied")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "caller-supplied" {
		t.Fatalf("request id not propagated, got %q", got)
	}
}

func TestUnknownMethod(t *testing.T) {
	server := newTestServer(t, ServerConfig{})
	status, reply := call(t, server.Handler(), "", "launchpad_nope", map[string]string{})
	if status != http.StatusNotFound || reply.Error == nil || reply.Error.Code != codeMethodNotFound {
		t.Fatalf("unexpected reply %d %+v", status, reply.Error)
	}
}

func TestMutatingMethodsRequireToken(t *testing.T) {
	server := newTestServer(t, ServerConfig{AuthToken: testToken, AllowUnsigned: true})
	params := map[string]interface{}{"caller": testUser.Hex(), "to": testAdmin.Hex(), "amount": "10"}

	status, reply := call(t, server.Handler(), "", "launchpad_transfer", params)
	if status != http.StatusUnauthorized || reply.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized, got %d %+v", status, reply.Error)
	}
	status, _ = call(t, server.Handler(), "wrong", "launchpad_transfer", params)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected wrong token to be rejected, got %d", status)
	}
	status, reply = call(t, server.Handler(), testToken, "launchpad_transfer", params)
	if status != http.StatusOK || reply.Error != nil {
		t.Fatalf("transfer failed: %d %+v", status, reply.Error)
	}

	status, reply = call(t, server.Handler(), "", "launchpad_getBalance", map[string]string{"address": testAdmin.Hex()})
	if status != http.StatusOK {
		t.Fatalf("queries should not need a token, got %d %+v", status, reply.Error)
	}
	var balance map[string]string
	if err := json.Unmarshal(reply.Result, &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if balance["balance"] != "10" {
		t.Fatalf("unexpected balance %v", balance)
	}
}

func TestEngineErrorsMapToKinds(t *testing.T) {
	server := newTestServer(t, ServerConfig{AuthToken: testToken, AllowUnsigned: true})
	handler := server.Handler()

	status, reply := call(t, handler, testToken, "launchpad_setAdmins", map[string]interface{}{
		"caller": testAdmin.Hex(), "addresses": []string{testUser.Hex()}, "enabled": true,
	})
	if status != http.StatusForbidden || reply.Error.Code != codeForbidden {
		t.Fatalf("expected forbidden, got %d %+v", status, reply.Error)
	}
	data, _ := reply.Error.Data.(map[string]interface{})
	if data["kind"] != "authorization" {
		t.Fatalf("unexpected error data %v", reply.Error.Data)
	}

	status, reply = call(t, handler, "", "launchpad_getProject", map[string]uint64{"projectId": 42})
	if status != http.StatusNotFound || reply.Error.Code != codeNotFound {
		t.Fatalf("expected not found, got %d %+v", status, reply.Error)
	}

	status, reply = call(t, handler, testToken, "launchpad_transfer", map[string]interface{}{
		"caller": testUser.Hex(), "to": testAdmin.Hex(), "amount": "5000",
	})
	if status != http.StatusConflict || reply.Error.Code != codePayment {
		t.Fatalf("expected payment conflict, got %d %+v", status, reply.Error)
	}
}

func TestInvalidParams(t *testing.T) {
	server := newTestServer(t, ServerConfig{AuthToken: testToken, AllowUnsigned: true})
	cases := []struct {
		name   string
		params interface{}
	}{
		{"bad address", map[string]interface{}{"caller": "nope", "to": testAdmin.Hex(), "amount": "1"}},
		{"negative amount", map[string]interface{}{"caller": testUser.Hex(), "to": testAdmin.Hex(), "amount": "-1"}},
		{"unknown field", map[string]interface{}{"caller": testUser.Hex(), "to": testAdmin.Hex(), "amount": "1", "memo": "x"}},
	}
	for _, tc := range cases {
		status, reply := call(t, server.Handler(), testToken, "launchpad_transfer", tc.params)
		if status != http.StatusBadRequest || reply.Error == nil || reply.Error.Code != codeInvalidParams {
			t.Fatalf("%s: expected invalid params, got %d %+v", tc.name, status, reply.Error)
		}
	}
}

func TestProjectLifecycleOverRPC(t *testing.T) {
	server := newTestServer(t, ServerConfig{AuthToken: testToken, AllowUnsigned: true})
	handler := server.Handler()

	status, reply := call(t, handler, testToken, "launchpad_deployCollection", map[string]interface{}{
		"caller": testUser.Hex(), "name": "Drop", "symbol": "DRP", "isSingle": true,
		"royaltyReceiver": testUser.Hex(), "royaltyBps": 500,
	})
	if status != http.StatusOK {
		t.Fatalf("deploy: %d %+v", status, reply.Error)
	}
	var deployed map[string]string
	if err := json.Unmarshal(reply.Result, &deployed); err != nil {
		t.Fatalf("decode deploy: %v", err)
	}

	status, reply = call(t, handler, testToken, "launchpad_createProject", map[string]interface{}{
		"caller": testAdmin.Hex(), "collection": deployed["collection"], "isSingle": true, "isRaise": true,
	})
	if status != http.StatusOK {
		t.Fatalf("create project: %d %+v", status, reply.Error)
	}
	var created map[string]uint64
	if err := json.Unmarshal(reply.Result, &created); err != nil {
		t.Fatalf("decode project id: %v", err)
	}

	status, reply = call(t, handler, "", "launchpad_getProject", map[string]uint64{"projectId": created["projectId"]})
	if status != http.StatusOK {
		t.Fatalf("get project: %d %+v", status, reply.Error)
	}
	var proj projectJSON
	if err := json.Unmarshal(reply.Result, &proj); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if !proj.CreatedByAdmin || proj.Manager != "" || proj.IDO != nil {
		t.Fatalf("unexpected project %+v", proj)
	}

	status, reply = call(t, handler, "", "launchpad_royaltyInfo", map[string]interface{}{
		"projectId": created["projectId"], "assetId": 1, "gross": "1000",
	})
	if status != http.StatusOK {
		t.Fatalf("royalty info: %d %+v", status, reply.Error)
	}
	var info royaltyJSON
	if err := json.Unmarshal(reply.Result, &info); err != nil {
		t.Fatalf("decode royalty: %v", err)
	}
	if info.Supported || info.Amount != "0" {
		t.Fatalf("unminted asset should report no royalty: %+v", info)
	}

	status, reply = call(t, handler, "", "launchpad_lastProjectId", map[string]string{})
	if status != http.StatusOK {
		t.Fatalf("last project id: %d %+v", status, reply.Error)
	}
	var last lastIDResult
	if err := json.Unmarshal(reply.Result, &last); err != nil {
		t.Fatalf("decode last project id: %v", err)
	}
	if last.ID != created["projectId"] || last.ID != 1 {
		t.Fatalf("unexpected last project id %d", last.ID)
	}

	status, reply = call(t, handler, "", "launchpad_lastSaleId", map[string]string{})
	if status != http.StatusOK {
		t.Fatalf("last sale id: %d %+v", status, reply.Error)
	}
	last = lastIDResult{}
	if err := json.Unmarshal(reply.Result, &last); err != nil {
		t.Fatalf("decode last sale id: %v", err)
	}
	if last.ID != 0 {
		t.Fatalf("no sale was created, got last sale id %d", last.ID)
	}

	status, reply = call(t, handler, "", "launchpad_listCollections", map[string]string{})
	if status != http.StatusOK {
		t.Fatalf("list collections: %d %+v", status, reply.Error)
	}
	var listed map[string][]string
	if err := json.Unmarshal(reply.Result, &listed); err != nil {
		t.Fatalf("decode collections: %v", err)
	}
	if got := listed["collections"]; len(got) != 1 || got[0] != deployed["collection"] {
		t.Fatalf("unexpected collections %v", got)
	}
}

func TestRateLimitRejectsBurst(t *testing.T) {
	server := newTestServer(t, ServerConfig{RequestsPerMinute: 1, Burst: 1})
	params := map[string]string{"address": testUser.Hex()}
	if status, _ := call(t, server.Handler(), "", "launchpad_getBalance", params); status != http.StatusOK {
		t.Fatalf("first request should pass, got %d", status)
	}
	status, reply := call(t, server.Handler(), "", "launchpad_getBalance", params)
	if status != http.StatusTooManyRequests || reply.Error.Code != codeRateLimited {
		t.Fatalf("expected throttle, got %d %+v", status, reply.Error)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := newRateLimiter(60, 1)
	limiter.clockNow = func() time.Time { return now }
	if !limiter.allow("a") {
		t.Fatalf("first request should pass")
	}
	if limiter.allow("a") {
		t.Fatalf("burst should be exhausted")
	}
	if !limiter.allow("b") {
		t.Fatalf("sources are limited independently")
	}
	now = now.Add(time.Second)
	if !limiter.allow("a") {
		t.Fatalf("bucket should refill after a second")
	}
}

func TestAuthFailureLogMasksToken(t *testing.T) {
	node, err := core.NewNode(storage.NewMemDB(), core.Config{SuperAdmin: testSuper})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	var buf bytes.Buffer
	logger := logging.Setup("launchpadd", "test", logging.WithOutput(&buf))
	handler := NewServer(node, ServerConfig{AuthToken: testToken}, logger).Handler()

	status, _ := call(t, handler, "hunter2-leaked", "launchpad_transfer", map[string]interface{}{
		"caller": testUser.Hex(), "to": testAdmin.Hex(), "amount": "1",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", status)
	}
	out := buf.String()
	if !strings.Contains(out, "rpc authentication failed") {
		t.Fatalf("auth failure was not logged: %s", out)
	}
	if strings.Contains(out, "hunter2-leaked") {
		t.Fatalf("bearer token leaked into logs: %s", out)
	}
	if !strings.Contains(out, "Bearer "+logging.RedactedValue) {
		t.Fatalf("expected masked authorization header: %s", out)
	}
}
