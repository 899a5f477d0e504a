package common

// HttpResponse is the envelope of successful API responses. Failures are rendered by the HTTP error handler.
type HttpResponse[T any] struct {
	Error  *string `json:"error"`
	Result *T      `json:"result,omitempty"`
}

func NewHttpResponse[T any](result T) HttpResponse[T] {
	return HttpResponse[T]{Result: &result}
}
