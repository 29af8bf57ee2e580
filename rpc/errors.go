package rpc

import (
	"errors"
	"net/http"

	nativecommon "launchpad/native/common"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeRateLimited    = -32020
)

// Engine failures map onto one code per error kind.
const (
	codeForbidden = -32030 - iota
	codeWindow
	codeConflict
	codePayment
	codeTransfer
	codePricing
	codeNotFound
)

// paramError marks a request that failed validation before reaching the node.
type paramError struct {
	msg string
}

func (e *paramError) Error() string { return e.msg }

func invalidParams(msg string) error { return &paramError{msg: msg} }

// classify maps an error onto the HTTP status and JSON-RPC code returned to
// the client.
func classify(err error) (status int, code int, message string, data interface{}) {
	var perr *paramError
	if errors.As(err, &perr) {
		return http.StatusBadRequest, codeInvalidParams, "invalid_params", perr.msg
	}
	kind := nativecommon.KindOf(err)
	data = map[string]string{"kind": string(kind), "detail": err.Error()}
	switch kind {
	case nativecommon.KindAuthorization:
		return http.StatusForbidden, codeForbidden, "forbidden", data
	case nativecommon.KindWindow:
		return http.StatusConflict, codeWindow, "window", data
	case nativecommon.KindState:
		return http.StatusConflict, codeConflict, "conflict", data
	case nativecommon.KindPayment:
		return http.StatusConflict, codePayment, "payment", data
	case nativecommon.KindTransfer:
		return http.StatusConflict, codeTransfer, "transfer", data
	case nativecommon.KindPricing:
		return http.StatusBadRequest, codePricing, "pricing", data
	case nativecommon.KindNotFound:
		return http.StatusNotFound, codeNotFound, "not_found", data
	default:
		return http.StatusInternalServerError, codeServerError, "internal", data
	}
}
