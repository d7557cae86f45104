package transport

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/blackcoderx/contractfuzz/pkg/ferrors"
)

// FastHTTP is the default Transport implementation, backed by
// *fasthttp.Client.
type FastHTTP struct {
	client          *fasthttp.Client
	followRedirects bool
	timeout         time.Duration
}

// NewFastHTTP builds a Transport that never follows redirects unless
// WithRedirects is called to enable it.
func NewFastHTTP(timeout time.Duration) *FastHTTP {
	return &FastHTTP{
		client: &fasthttp.Client{
			NoDefaultUserAgentHeader: true,
			MaxConnsPerHost:          512,
		},
		timeout: timeout,
	}
}

// WithRedirects enables following redirects.
func (t *FastHTTP) WithRedirects(follow bool) *FastHTTP {
	t.followRedirects = follow
	return t
}

// Send implements Transport.
func (t *FastHTTP) Send(ctx context.Context, spec RequestSpec) (ResponseData, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(spec.URL)
	req.Header.SetMethod(spec.Method)
	for name, value := range spec.Headers {
		req.Header.Set(name, value)
	}
	for name, value := range spec.Cookies {
		req.Header.SetCookie(name, value)
	}
	if len(spec.Body) > 0 {
		req.SetBody(spec.Body)
	}

	timeout := t.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout || timeout == 0 {
			timeout = until
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	start := time.Now()
	var err error
	if t.followRedirects {
		err = t.client.DoRedirects(req, resp, 5)
	} else {
		err = t.client.DoTimeout(req, resp, timeout)
	}
	elapsed := time.Since(start)
	if err != nil {
		return ResponseData{}, ferrors.Wrap(ferrors.ErrTransportFailure, spec.Method+" "+spec.URL, err)
	}

	headers := NewHeader()
	resp.Header.VisitAll(func(k, v []byte) {
		headers.Add(string(k), string(v))
	})

	body := append([]byte(nil), resp.Body()...)

	return ResponseData{
		Status:    uint16(resp.StatusCode()),
		Headers:   headers,
		Body:      body,
		SizeBytes: int64(len(body)),
		ElapsedMs: elapsed.Milliseconds(),
	}, nil
}
