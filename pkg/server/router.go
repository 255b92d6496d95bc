package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/mikufans/bvc-server/pkg/proto"
	"github.com/mikufans/bvc-server/pkg/ranges"
	"github.com/mikufans/bvc-server/pkg/resource"
)

const mediaPrefix = "/resource/mikufans"

// Router maps request paths onto handling policies: the range-capable media
// endpoint, the favicon stub, and a default identification reply.
type Router struct {
	resolver    resource.Resolver
	allowOrigin string
	copyBuffer  int
}

func NewRouter(resolver resource.Resolver, allowOrigin string, copyBuffer int) *Router {
	return &Router{
		resolver:    resolver,
		allowOrigin: allowOrigin,
		copyBuffer:  copyBuffer,
	}
}

// Route writes exactly one response for req. It returns false when the
// socket must not be used again: once a header or body write has failed, a
// promised Content-Length cannot be retracted.
func (rt *Router) Route(w io.Writer, req *proto.Request) bool {
	resp := proto.NewResponse()

	switch path := req.Path(); {
	case strings.HasPrefix(path, mediaPrefix):
		return rt.serveMedia(w, req, resp)
	case path == "/favicon.ico":
		resp.Headers.Set("Content-Type", "image/icon")
		resp.Headers.Set("Content-Length", "0")
		return rt.write(w, resp)
	default:
		resp.Headers.Set("Content-Type", "text/plain")
		resp.Body = []byte(proto.ServerName)
		return rt.write(w, resp)
	}
}

func (rt *Router) serveMedia(w io.Writer, req *proto.Request, resp *proto.Response) bool {
	reqID, _ := gonanoid.Generate(idAlphabet, 16)

	h := resp.Headers
	h.Set("X-Mikufans-Request-Id", reqID)
	h.Set("Access-Control-Allow-Origin", rt.allowOrigin)
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, HEAD")
	h.Set("Access-Control-Expose-Headers", "Content-Length,Content-Range")
	h.Set("Access-Control-Max-Age", "0")

	media, err := rt.resolver.Resolve(req.Path())
	if err != nil {
		if !errors.Is(err, resource.ErrNotFound) {
			log.Printf("resolve %s: %v", req.Path(), err)
		}
		resp.Status = http.StatusNotFound
		h.Set("Content-Length", "0")
		return rt.write(w, resp)
	}
	defer media.Close()

	span, partial := ranges.Resolve(req.Headers.Get("Range"), media.Size)
	if partial {
		resp.Status = http.StatusPartialContent
		h.Set("Accept-Ranges", "bytes")
		h.Set("Content-Range", span.ContentRange(media.Size))
	}
	h.Set("Content-Length", strconv.FormatUint(span.Len(), 10))

	if !rt.write(w, resp) {
		return false
	}

	if req.Method != http.MethodGet {
		// headers only: HEAD and every other verb skip the transfer
		return true
	}

	buf := make([]byte, rt.copyBuffer)
	if _, err := io.CopyBuffer(w, media.Span(span.Start, span.End), buf); err != nil {
		log.Printf("stream media %s: %v", req.Path(), err)
		return false
	}
	return true
}

func (rt *Router) write(w io.Writer, resp *proto.Response) bool {
	if err := resp.WriteToStream(w); err != nil {
		log.Printf("write response: %v", err)
		return false
	}
	return true
}
