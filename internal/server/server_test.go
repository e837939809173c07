package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/config"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/danmuck/dictwire/internal/testutil/fixture"
	"github.com/danmuck/dictwire/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Dictionaries = []string{
		fixture.Write(t, dir, "fix44.xml", fixture.FIXDictionary),
		fixture.Write(t, dir, "ord.xml", fixture.FASTDictionary),
		fixture.Write(t, dir, "ord2.xml", fixture.FASTDictionaryV2),
	}
	cfg.Templates = []string{fixture.Write(t, dir, "templates.xml", fixture.Templates)}
	cat, err := catalog.FromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	s := Appear(cfg, cat)
	s.RegisterRoutes()
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body %s: %v", rr.Body.String(), err)
	}
}

func TestHealthAndDictionaries(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rr := do(t, s, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	rr = do(t, s, http.MethodGet, "/dictionaries", "")
	var list struct {
		Dictionaries []DictionaryInfo `json:"dictionaries"`
	}
	decodeBody(t, rr, &list)
	if len(list.Dictionaries) != 3 || list.Dictionaries[0].Namespace != "FIX44" {
		t.Fatalf("unexpected dictionaries: %+v", list.Dictionaries)
	}

	if rr := do(t, s, http.MethodGet, "/dictionaries/NOPE", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", rr.Code)
	}
}

func TestValidateRoute(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	var out struct {
		Valid  bool    `json:"valid"`
		Errors []Issue `json:"errors"`
	}
	decodeBody(t, do(t, s, http.MethodGet, "/dictionaries/FIX44/validate?rules=fix", ""), &out)
	if !out.Valid {
		t.Fatalf("expected FIX44 to pass the fix rules: %+v", out.Errors)
	}

	decodeBody(t, do(t, s, http.MethodGet, "/dictionaries/ORD/validate?rules=fix", ""), &out)
	if out.Valid || len(out.Errors) == 0 {
		t.Fatalf("expected ORD to fail the fix rules")
	}

	if rr := do(t, s, http.MethodGet, "/dictionaries/ORD/validate?rules=bogus", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestDiffRoute(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/diff", `{"a":"ORD","b":"ORD2"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Equal        bool `json:"equal"`
		Distinctions []struct {
			Path string `json:"path"`
			Kind string `json:"kind"`
		} `json:"distinctions"`
	}
	decodeBody(t, rr, &out)
	kinds := map[string]bool{}
	for _, d := range out.Distinctions {
		kinds[d.Kind] = true
	}
	if out.Equal || !kinds["Namespace"] || !kinds["ValueType"] || !kinds["Existing"] {
		t.Fatalf("unexpected distinctions: %+v", out.Distinctions)
	}

	rr = do(t, s, http.MethodPost, "/diff", `{"a":"ORD","b":"ORD","options":{"deep_check":true}}`)
	decodeBody(t, rr, &out)
	if !out.Equal {
		t.Fatalf("a dictionary must equal itself: %+v", out.Distinctions)
	}

	if rr := do(t, s, http.MethodPost, "/diff", `{"a":"ORD"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

const orderJSON = `{"name":"NewOrderSingle","namespace":"FIX44","fields":[
	{"name":"ClOrdID","type":"string","value":"A1"},
	{"name":"Side","type":"char","value":"1"},
	{"name":"Price","type":"decimal","value":"10.5"}]}`

func TestFIXRoutes(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/fix/encode", orderJSON)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var enc struct {
		Text string `json:"text"`
		Data []byte `json:"data"`
	}
	decodeBody(t, rr, &enc)
	if !strings.HasPrefix(enc.Text, "8=FIX.4.4|9=") || !strings.Contains(enc.Text, "|35=D|") {
		t.Fatalf("unexpected encoding %q", enc.Text)
	}
	if !bytes.Equal(bytes.ReplaceAll(enc.Data, []byte{0x01}, []byte("|")), []byte(enc.Text)) {
		t.Fatalf("data and text disagree")
	}

	body, _ := json.Marshal(FIXDecodeRequest{Namespace: "FIX44", Text: enc.Text})
	rr = do(t, s, http.MethodPost, "/fix/decode", string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var m message.Message
	decodeBody(t, rr, &m)
	v, ok := m.Get("ClOrdID")
	if !ok || v.String() != "A1" {
		t.Fatalf("unexpected decoded message %s", &m)
	}

	corrupt := strings.Replace(enc.Text, "|11=A1|", "|11=A2|", 1)
	body, _ = json.Marshal(FIXDecodeRequest{Namespace: "FIX44", Text: corrupt})
	if rr := do(t, s, http.MethodPost, "/fix/decode", string(body)); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected checksum failure 422, got %d", rr.Code)
	}
}

func TestFASTRoutes(t *testing.T) {
	testlog.Start(t)
	s := newTestServer(t)

	in := `{"name":"Order","namespace":"ORD","fields":[
		{"name":"price","type":"decimal","value":"1.5"},
		{"name":"qty","type":"long","value":"200"}]}`
	rr := do(t, s, http.MethodPost, "/fast/encode", in)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var enc struct {
		Hex string `json:"hex"`
	}
	decodeBody(t, rr, &enc)

	body, _ := json.Marshal(FASTDecodeRequest{Namespace: "ORD", Hex: enc.Hex})
	rr = do(t, s, http.MethodPost, "/fast/decode", string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var want, got message.Message
	if err := json.Unmarshal([]byte(in), &want); err != nil {
		t.Fatalf("decode input: %v", err)
	}
	decodeBody(t, rr, &got)
	if !message.Equal(&want, &got) {
		t.Fatalf("round trip mismatch\nwant=%s\n got=%s", &want, &got)
	}

	body, _ = json.Marshal(FASTDecodeRequest{Namespace: "ORD", Hex: "zz"})
	if rr := do(t, s, http.MethodPost, "/fast/decode", string(body)); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
