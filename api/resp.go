package api

import (
	"errors"
	"net/http"

	"github.com/satlayer/satlayer-restaking/library/types"
)

// Resp is the envelope of every response. Code is 0 on success, otherwise
// the registered code of the error.
type Resp struct {
	Code uint32 `json:"code"`
	Kind string `json:"kind,omitempty"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func OK(data any) Resp {
	return Resp{Code: 0, Msg: "success", Data: data}
}

func Err(err error) Resp {
	return Resp{Code: types.ABCICode(err), Kind: types.KindOf(err), Msg: err.Error()}
}

// StatusOf maps an error kind to an HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, types.ErrCorruptedStorage), types.KindOf(err) == "Internal":
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
