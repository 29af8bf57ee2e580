package rpc

import (
	"crypto/ecdsa"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	signatureHeader = "X-Launchpad-Signature"
	nonceHeader     = "X-Launchpad-Nonce"
	signingDomain   = "launchpad-rpc"
)

// SigningHash is the digest a caller signs to authorise method with the raw
// bytes of its parameter object.
func SigningHash(method string, nonce uint64, params []byte) []byte {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return ethcrypto.Keccak256([]byte(signingDomain), []byte(method), n[:], params)
}

// SignRequest returns the hex signature header value for a request.
func SignRequest(key *ecdsa.PrivateKey, method string, nonce uint64, params []byte) (string, error) {
	sig, err := ethcrypto.Sign(SigningHash(method, nonce, params), key)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(sig), nil
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.cfg.AuthToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

type callerParam struct {
	Caller string `json:"caller"`
}

// verifyCaller checks that the request was signed by the address named in
// its caller field and consumes the request nonce.
func (s *Server) verifyCaller(r *http.Request, req *RPCRequest) (int, *RPCError) {
	if s.cfg.AllowUnsigned {
		return http.StatusOK, nil
	}
	if len(req.Params) != 1 {
		return http.StatusBadRequest, &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object expected"}
	}
	var p callerParam
	if err := json.Unmarshal(req.Params[0], &p); err != nil {
		return http.StatusBadRequest, &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	caller, err := parseAddress("caller", p.Caller)
	if err != nil {
		return http.StatusBadRequest, &RPCError{Code: codeInvalidParams, Message: err.Error()}
	}
	sigHex := strings.TrimSpace(r.Header.Get(signatureHeader))
	if sigHex == "" {
		return http.StatusUnauthorized, &RPCError{Code: codeUnauthorized, Message: "missing " + signatureHeader + " header"}
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil || len(sig) != 65 {
		return http.StatusUnauthorized, &RPCError{Code: codeUnauthorized, Message: "signature must be 65 hex-encoded bytes"}
	}
	nonce, err := strconv.ParseUint(strings.TrimSpace(r.Header.Get(nonceHeader)), 10, 64)
	if err != nil || nonce == 0 {
		return http.StatusUnauthorized, &RPCError{Code: codeUnauthorized, Message: nonceHeader + " must be a positive integer"}
	}
	pub, err := ethcrypto.SigToPub(SigningHash(req.Method, nonce, req.Params[0]), sig)
	if err != nil {
		return http.StatusUnauthorized, &RPCError{Code: codeUnauthorized, Message: "invalid signature", Data: err.Error()}
	}
	if signer := ethcrypto.PubkeyToAddress(*pub); signer != caller {
		return http.StatusUnauthorized, &RPCError{Code: codeUnauthorized, Message: "signature does not match caller", Data: signer.Hex()}
	}
	if err := s.node.UseNonce(caller, nonce); err != nil {
		return http.StatusUnauthorized, &RPCError{Code: codeUnauthorized, Message: "nonce rejected", Data: err.Error()}
	}
	return http.StatusOK, nil
}
