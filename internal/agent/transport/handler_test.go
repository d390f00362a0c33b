package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendMiddleware(tag string, order *[]string) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			*order = append(*order, tag+"-before")
			resp, err := next.Handle(ctx, req)
			*order = append(*order, tag+"-after")
			return resp, err
		})
	}
}

func TestChain(t *testing.T) {
	var order []string
	core := HandlerFunc(func(_ context.Context, _ *Request) (*Response, error) {
		order = append(order, "core")
		return &Response{Raw: "{}"}, nil
	})

	h := Chain(core,
		appendMiddleware("outer", &order),
		appendMiddleware("inner", &order),
	)

	resp, err := h.Handle(context.Background(), &Request{Stage: StageIdentify})
	require.NoError(t, err)
	assert.Equal(t, "{}", resp.Raw)
	assert.Equal(t, []string{
		"outer-before",
		"inner-before",
		"core",
		"inner-after",
		"outer-after",
	}, order)
}

func TestChain_NoMiddleware(t *testing.T) {
	core := HandlerFunc(func(_ context.Context, _ *Request) (*Response, error) {
		return &Response{Raw: "ok"}, nil
	})

	resp, err := Chain(core).Handle(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Raw)
}
