package main

// HTTP service that lists the segments of uploaded JPEG files and corrupts
// them.
//
//	POST /segments              JSON list of segments
//	POST /mosh?mode=&qt=&im=&validate=&tries=&seed=
//	                            corrupted image/jpeg

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/fatih/color"
	mosh "github.com/knobs-dials/jpeg-mosh"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

var (
	infoPrefix  = color.New(color.FgBlue).Sprint("INFO")
	warnPrefix  = color.New(color.FgYellow).Sprint("WARN")
	errorPrefix = color.New(color.FgRed).Sprint("ERROR")
)

func infoLog(format string, args ...any) {
	log.Printf("[%s] %s", infoPrefix, fmt.Sprintf(format, args...))
}

func warnLog(format string, args ...any) {
	log.Printf("[%s] %s", warnPrefix, fmt.Sprintf(format, args...))
}

func errorLog(format string, args ...any) {
	log.Printf("[%s] %s", errorPrefix, fmt.Sprintf(format, args...))
}

type segmentInfo struct {
	Offset    int    `json:"offset"`
	Marker    string `json:"marker"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Length    int    `json:"length"`
	Truncated bool   `json:"truncated"`
}

type segmentsResponse struct {
	Size     int           `json:"size"`
	Covered  int           `json:"covered"`
	Segments []segmentInfo `json:"segments"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type server struct {
	config    config
	validator mosh.Validator // nil for the default
}

func (s *server) handle(ctx *fasthttp.RequestCtx) {
	var handler fasthttp.RequestHandler
	switch string(ctx.Path()) {
	case "/segments":
		handler = s.listSegments
	case "/mosh":
		handler = s.corrupt
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not found")
		return
	}
	if !ctx.IsPost() {
		ctx.Response.Header.Set("Allow", fasthttp.MethodPost)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if len(ctx.PostBody()) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "empty body")
		return
	}
	start := time.Now()
	handler(ctx)
	infoLog("%s %s %d, %d bytes in, %d out, %v", ctx.Method(), ctx.RequestURI(), ctx.Response.StatusCode(),
		len(ctx.PostBody()), len(ctx.Response.Body()), time.Since(start))
}

func (s *server) listSegments(ctx *fasthttp.RequestCtx) {
	buf := ctx.PostBody()
	segments := mosh.ReadSegments(buf)
	resp := segmentsResponse{
		Size:     len(buf),
		Covered:  mosh.Covered(segments),
		Segments: make([]segmentInfo, len(segments)),
	}
	for i, seg := range segments {
		resp.Segments[i] = segmentInfo{
			Offset:    seg.Offset,
			Marker:    fmt.Sprintf("0x%02X", uint8(seg.Marker)),
			Name:      seg.Marker.Name(),
			Kind:      seg.Kind.String(),
			Length:    seg.Length,
			Truncated: seg.Truncated(),
		}
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

// params reads the corruption parameters from the query string.
func (s *server) params(args *fasthttp.Args) (mosh.Params, uint64, error) {
	p := mosh.DefaultParams()
	var err error
	if v := args.Peek("mode"); len(v) > 0 {
		if p.Mode, err = mosh.ParseMode(string(v)); err != nil {
			return p, 0, err
		}
	}
	if v := args.Peek("qt"); len(v) > 0 {
		if p.Quant, err = mosh.ParseIntensity(string(v), mosh.QuantPresets); err != nil {
			return p, 0, err
		}
	}
	if v := args.Peek("im"); len(v) > 0 {
		if p.Image, err = mosh.ParseIntensity(string(v), mosh.ImagePresets); err != nil {
			return p, 0, err
		}
	}
	p.Validate = args.GetBool("validate")
	if args.Has("tries") {
		n, err := args.GetUint("tries")
		if err != nil || n < 1 {
			return p, 0, errors.Wrapf(mosh.ErrBadParam, "tries %q", args.Peek("tries"))
		}
		p.MaxTries = n
	}
	p.MaxTries = min(p.MaxTries, s.config.MaxTries)
	var seed uint64
	if v := args.Peek("seed"); len(v) > 0 {
		if seed, err = strconv.ParseUint(string(v), 10, 64); err != nil {
			return p, 0, errors.Wrapf(mosh.ErrBadParam, "seed %q", v)
		}
	}
	return p, seed, nil
}

func (s *server) corrupt(ctx *fasthttp.RequestCtx) {
	p, seed, err := s.params(ctx.QueryArgs())
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	buf := ctx.PostBody()
	if !mosh.IsJPEGHeader(buf) {
		writeError(ctx, fasthttp.StatusBadRequest, "not a JPEG file")
		return
	}
	m := &mosh.Mosher{Params: p}
	if seed != 0 {
		m = mosh.NewMosher(p, seed)
	}
	m.Validator = s.validator
	m.Logf = warnLog
	out, err := m.Corrupt(buf)
	if errors.Is(err, mosh.ErrRetryBudget) {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		errorLog("corrupt: %v", err)
		writeError(ctx, fasthttp.StatusInternalServerError, "internal error")
		return
	}
	ctx.SetContentType("image/jpeg")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(out)
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		errorLog("json: %v", err)
		ctx.Error("internal error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, errorResponse{Message: message})
}

func main() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix(color.CyanString("jpegmoshserve "))
	c, err := loadConfig(nil)
	if err != nil {
		log.Fatal(err)
	}
	s := &server{config: c}
	srv := &fasthttp.Server{
		Handler:            s.handle,
		Name:               "jpegmoshserve",
		MaxRequestBodySize: c.MaxBody,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		ErrorHandler: func(ctx *fasthttp.RequestCtx, err error) {
			writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		},
	}
	infoLog("listening on %s, max body %d bytes, max tries %d", c.Addr, c.MaxBody, c.MaxTries)
	if err := srv.ListenAndServe(c.Addr); err != nil {
		log.Fatal(err)
	}
}
