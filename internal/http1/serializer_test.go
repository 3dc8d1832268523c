package http1

import (
	"strings"
	"testing"

	"github.com/decoy-web/decoy/http"
	"github.com/decoy-web/decoy/http/method"
	"github.com/decoy-web/decoy/http/proto"
	"github.com/decoy-web/decoy/http/status"
	"github.com/decoy-web/decoy/transport/dummy"
	"github.com/stretchr/testify/require"
)

func request(m method.Method, version proto.Version) *http.Request {
	req := http.NewRequest()
	req.Method = m
	req.Proto = version

	return req
}

func write(req *http.Request, resp *http.Response) (written string, keepAlive bool) {
	client := dummy.NewClient()
	serializer := NewSerializer(client)

	keepAlive, err := serializer.Write(req, resp)
	if err != nil {
		panic(err)
	}

	return string(client.Written), keepAlive
}

func TestSerializer(t *testing.T) {
	t.Run("status line and headers in insertion order", func(t *testing.T) {
		resp := http.NewResponse().
			AddHeader("X-First", "1").
			AddHeader("X-Second", "2").
			String("hi")

		written, keepAlive := write(request(method.GET, proto.HTTP11), resp)

		require.True(t, keepAlive)
		require.True(t, strings.HasPrefix(written, "HTTP/1.1 200 OK\r\n"), written)
		require.Less(t,
			strings.Index(written, "X-First: 1\r\n"),
			strings.Index(written, "X-Second: 2\r\n"),
		)
		require.True(t, strings.HasSuffix(written, "\r\n\r\nhi"), written)
	})

	t.Run("headers are reused across responses", func(t *testing.T) {
		client := dummy.NewClient()
		serializer := NewSerializer(client)

		_, err := serializer.Write(request(method.GET, proto.HTTP11), http.NewResponse().String("one"))
		require.NoError(t, err)
		first := len(client.Written)

		_, err = serializer.Write(request(method.GET, proto.HTTP11), http.NewResponse().String("two"))
		require.NoError(t, err)

		require.Equal(t, 2, strings.Count(string(client.Written), "HTTP/1.1 200 OK\r\n"))
		require.Contains(t, string(client.Written[first:]), "two")
	})

	t.Run("HEAD omits the body but keeps its framing", func(t *testing.T) {
		written, _ := write(request(method.HEAD, proto.HTTP11), http.NewResponse().String("Hello world"))

		require.Contains(t, written, "Content-Length: 11\r\n")
		require.True(t, strings.HasSuffix(written, "\r\n\r\n"), written)
	})

	t.Run("nil request never keeps alive", func(t *testing.T) {
		_, keepAlive := write(nil, http.NewResponse())
		require.False(t, keepAlive)
	})
}

func TestSerializerBodilessStatuses(t *testing.T) {
	for _, tc := range []struct {
		name string
		req  *http.Request
		code status.Code
	}{
		{"204", request(method.GET, proto.HTTP11), status.NoContent},
		{"304", request(method.GET, proto.HTTP11), status.NotModified},
		{"100", request(method.GET, proto.HTTP11), status.Continue},
		{"2xx to CONNECT", request(method.CONNECT, proto.HTTP11), status.OK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp := http.NewResponse().WithCode(tc.code).String("oops")
			written, keepAlive := write(tc.req, resp)

			require.NotContains(t, written, "oops", "the body must be discarded")
			require.NotContains(t, written, "Content-Length:")
			require.False(t, keepAlive, "a discarded body forces the connection shut")
		})
	}

	t.Run("bodiless status without a body is unaffected", func(t *testing.T) {
		resp := http.NewResponse().WithCode(status.NoContent)
		resp.Headers.Delete("Content-Length")

		_, keepAlive := write(request(method.GET, proto.HTTP11), resp)
		require.True(t, keepAlive)
	})
}

func TestKeepAlive(t *testing.T) {
	plain := func() *http.Response { return http.NewResponse() }
	closing := func() *http.Response { return http.NewResponse().Header("Connection", "close") }
	keeping := func() *http.Response { return http.NewResponse().Header("Connection", "keep-alive") }

	for _, tc := range []struct {
		name string
		req  *http.Request
		resp *http.Response
		want bool
	}{
		{"1.1 default", request(method.GET, proto.HTTP11), plain(), true},
		{"1.1 close", request(method.GET, proto.HTTP11), closing(), false},
		{"1.1 CLOSE folds case", request(method.GET, proto.HTTP11), http.NewResponse().Header("Connection", "CLOSE"), false},
		{"1.0 default", request(method.GET, proto.HTTP10), plain(), false},
		{"1.0 keep-alive", request(method.GET, proto.HTTP10), keeping(), true},
		{"0.9 always closes", request(method.GET, proto.HTTP09), keeping(), false},
		{"list values are opaque", request(method.GET, proto.HTTP10), http.NewResponse().Header("Connection", "keep-alive, upgrade"), false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, keepAlive := write(tc.req, tc.resp)
			require.Equal(t, tc.want, keepAlive)
		})
	}
}
