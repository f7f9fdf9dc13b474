// Package httpcarrier implements the secondary brpc transport: one HTTP
// request carries exactly one call and gets exactly one response, with no
// multiplexing. The service and method come from the POST /{service}/{method}
// path and are echoed back as X-Brpc-Service and X-Brpc-Method response
// headers; compression_type travels as a decimal X-Brpc-Compression request
// header. The payload is the raw request/response body, so the bytes a
// handler sees are identical to the ones it would see over the TCP carrier.
package httpcarrier

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/brpc/internal/logger"
	"github.com/marmos91/brpc/pkg/dispatch"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/wire"
)

const (
	headerService     = "X-Brpc-Service"
	headerMethod      = "X-Brpc-Method"
	headerCompression = "X-Brpc-Compression"
	headerErrorCode   = "X-Brpc-Error-Code"
	headerErrorText   = "X-Brpc-Error-Text"
)

// Handler routes POST /{service}/{method} to dispatcher, matching the
// brpc TCP carrier's dispatch semantics exactly.
type Handler struct {
	dispatcher *dispatch.Dispatcher
	router     chi.Router
}

// New builds a chi-routed http.Handler backed by dispatcher.
func New(dispatcher *dispatch.Dispatcher) *Handler {
	h := &Handler{dispatcher: dispatcher}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Post("/{service}/{method}", h.serveCall)
	h.router = r

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) serveCall(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	service := chi.URLParam(r, "service")
	method := chi.URLParam(r, "method")

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	reqMeta := &rpc.RequestMeta{
		ServiceName: service,
		MethodName:  method,
	}
	if ct := r.Header.Get(headerCompression); ct != "" {
		v, err := strconv.ParseUint(ct, 10, 8)
		if err != nil {
			http.Error(w, "invalid "+headerCompression+" header", http.StatusBadRequest)
			return
		}
		reqMeta.CompressionType = uint8(v)
		reqMeta.HasCompressionType = true
	}

	encodedMeta, err := wire.EncodeRequestMeta(reqMeta)
	if err != nil {
		http.Error(w, "failed to encode request meta", http.StatusInternalServerError)
		return
	}

	respMeta, respPayload := h.dispatcher.Dispatch(r.Context(), &wire.Frame{Meta: encodedMeta, Payload: payload})

	w.Header().Set(headerService, service)
	w.Header().Set(headerMethod, method)
	if respMeta.ErrorCode != rpc.ErrCodeOK {
		w.Header().Set(headerErrorCode, strconv.Itoa(int(respMeta.ErrorCode)))
		w.Header().Set(headerErrorText, respMeta.ErrorText)
		w.WriteHeader(http.StatusUnprocessableEntity)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if _, err := w.Write(respPayload); err != nil {
		logger.WarnCtx(r.Context(), "failed to write http carrier response", logger.Err(err))
	}

	logger.DebugCtx(r.Context(), "http carrier call served",
		logger.Service(service), logger.Method(method), logger.DurationMs(float64(time.Since(start).Microseconds())/1000.0))
}
