package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"log"
	"os"
	"strings"
	"testing"

	mosh "github.com/knobs-dials/jpeg-mosh"
	"github.com/valyala/fasthttp"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	var b bytes.Buffer
	if err := jpeg.Encode(&b, img, nil); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	return b.Bytes()
}

func request(s *server, method, uri string, body []byte) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	ctx.Request.SetBody(body)
	s.handle(&ctx)
	return &ctx
}

func testServer() *server {
	return &server{config: defaultConfig}
}

func TestSegments(t *testing.T) {
	buf := testJPEG(t)
	ctx := request(testServer(), fasthttp.MethodPost, "/segments", buf)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if ct := string(ctx.Response.Header.ContentType()); ct != "application/json" {
		t.Errorf("content type %q", ct)
	}
	var resp segmentsResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.Size != len(buf) || resp.Covered != len(buf) {
		t.Errorf("size %d, covered %d, want %d", resp.Size, resp.Covered, len(buf))
	}
	segments := mosh.ReadSegments(buf)
	if len(resp.Segments) != len(segments) {
		t.Fatalf("got %d segments, want %d", len(resp.Segments), len(segments))
	}
	first, last := resp.Segments[0], resp.Segments[len(resp.Segments)-1]
	if first.Name != "SOI" || first.Marker != "0xD8" || first.Kind != "start of image" || first.Length != 2 {
		t.Errorf("first segment %+v", first)
	}
	if last.Name != "EOI" || last.Offset != len(buf)-2 {
		t.Errorf("last segment %+v", last)
	}
}

func TestSegmentsTruncated(t *testing.T) {
	buf := testJPEG(t)[:30]
	ctx := request(testServer(), fasthttp.MethodPost, "/segments", buf)
	var resp segmentsResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if n := len(resp.Segments); n == 0 || !resp.Segments[n-1].Truncated {
		t.Errorf("last segment of a cut file not truncated: %+v", resp.Segments)
	}
}

func TestMosh(t *testing.T) {
	buf := testJPEG(t)
	s := testServer()
	ctx := request(s, fasthttp.MethodPost, "/mosh?mode=image&im=lots&seed=12", buf)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if ct := string(ctx.Response.Header.ContentType()); ct != "image/jpeg" {
		t.Errorf("content type %q", ct)
	}
	out := bytes.Clone(ctx.Response.Body())
	if len(out) != len(buf) || bytes.Equal(out, buf) {
		t.Errorf("got %d bytes, equal to input: %v", len(out), bytes.Equal(out, buf))
	}
	again := request(s, fasthttp.MethodPost, "/mosh?mode=image&im=lots&seed=12", buf)
	if !bytes.Equal(again.Response.Body(), out) {
		t.Error("equal seeds gave different output")
	}
}

func TestMoshParams(t *testing.T) {
	s := &server{config: config{MaxTries: 5}}
	var args fasthttp.Args
	args.Parse("mode=qt&qt=1,1&tries=90&seed=3")
	p, seed, err := s.params(&args)
	if err != nil {
		t.Fatalf("params failed: %v", err)
	}
	if p.Mode != mosh.ModeQuant || p.Quant != (mosh.Intensity{Count: 1, Bits: 1}) || p.MaxTries != 5 || seed != 3 || p.Validate {
		t.Errorf("params = %+v, seed %d", p, seed)
	}
	args.Parse("")
	if p, _, _ = s.params(&args); p.Mode != mosh.ModeAll || p.MaxTries != 5 {
		t.Errorf("default params = %+v", p)
	}
}

func TestMoshErrors(t *testing.T) {
	buf := testJPEG(t)
	s := testServer()
	tests := []struct {
		method, uri string
		body        []byte
		status      int
	}{
		{fasthttp.MethodPost, "/mosh?mode=pixels", buf, fasthttp.StatusBadRequest},
		{fasthttp.MethodPost, "/mosh?qt=1", buf, fasthttp.StatusBadRequest},
		{fasthttp.MethodPost, "/mosh?tries=0", buf, fasthttp.StatusBadRequest},
		{fasthttp.MethodPost, "/mosh?seed=x", buf, fasthttp.StatusBadRequest},
		{fasthttp.MethodPost, "/mosh", []byte("GIF89a"), fasthttp.StatusBadRequest},
		{fasthttp.MethodPost, "/mosh", nil, fasthttp.StatusBadRequest},
		{fasthttp.MethodGet, "/mosh", nil, fasthttp.StatusMethodNotAllowed},
		{fasthttp.MethodGet, "/segments", nil, fasthttp.StatusMethodNotAllowed},
		{fasthttp.MethodPost, "/", buf, fasthttp.StatusNotFound},
	}
	for _, tt := range tests {
		ctx := request(s, tt.method, tt.uri, tt.body)
		if got := ctx.Response.StatusCode(); got != tt.status {
			t.Errorf("%s %s: status %d, want %d", tt.method, tt.uri, got, tt.status)
		}
		var resp errorResponse
		if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil || resp.Message == "" {
			t.Errorf("%s %s: error body %q", tt.method, tt.uri, ctx.Response.Body())
		}
	}
}

func TestMoshRetryBudget(t *testing.T) {
	s := testServer()
	calls := 0
	s.validator = mosh.ValidatorFunc(func([]byte) error {
		calls++
		return errors.New("premature end of data")
	})
	ctx := request(s, fasthttp.MethodPost, "/mosh?validate=true&tries=2", testJPEG(t))
	if ctx.Response.StatusCode() != fasthttp.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if calls != 2 || !strings.Contains(string(ctx.Response.Body()), "after 2 tries") {
		t.Errorf("%d validations, body %s", calls, ctx.Response.Body())
	}
}

func TestMoshValidated(t *testing.T) {
	s := testServer()
	var seen []byte
	s.validator = mosh.ValidatorFunc(func(data []byte) error {
		seen = data
		return nil
	})
	ctx := request(s, fasthttp.MethodPost, "/mosh?validate=yes", testJPEG(t))
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("status %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if seen == nil || !bytes.Equal(seen, ctx.Response.Body()) {
		t.Error("response isn't the validated candidate")
	}
}

func TestLoadConfig(t *testing.T) {
	env := func(m map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := m[k]
			return v, ok
		}
	}
	c, err := loadConfig(env(nil))
	if err != nil || c != defaultConfig {
		t.Errorf("loadConfig() = %+v, %v; want defaults", c, err)
	}
	c, err = loadConfig(env(map[string]string{"JPEGMOSH_ADDR": "127.0.0.1:9000", "JPEGMOSH_MAX_BODY": "1024", "JPEGMOSH_MAX_TRIES": "3"}))
	if err != nil || c != (config{Addr: "127.0.0.1:9000", MaxBody: 1024, MaxTries: 3}) {
		t.Errorf("loadConfig() = %+v, %v", c, err)
	}
	for _, bad := range []string{"lots", "0", "-5"} {
		if _, err := loadConfig(env(map[string]string{"JPEGMOSH_MAX_TRIES": bad})); err == nil {
			t.Errorf("JPEGMOSH_MAX_TRIES=%s accepted", bad)
		}
	}
}
