package api

import "errors"

// ErrNotAuthenticated se devuelve cuando una llamada admin no encuentra
// token en el store local. Se corta antes de tocar la red.
var ErrNotAuthenticated = errors.New("not authenticated")

// RequestError representa una respuesta no-2xx del backend, con el mensaje
// del campo `detail` del body (o el status text como fallback).
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}

// IsRequestError extrae un *RequestError de una cadena de errores.
func IsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
