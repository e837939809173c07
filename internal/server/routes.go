package server

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/dictwire/internal/catalog"
	"github.com/danmuck/dictwire/internal/dictionary/diff"
	"github.com/danmuck/dictwire/internal/dictionary/validate"
	"github.com/danmuck/dictwire/internal/fix"
	"github.com/danmuck/dictwire/internal/message"
	"github.com/danmuck/dictwire/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ErrUnknownRules = errors.New("server: unknown rule set")

func (s *Server) RegisterRoutes() {
	r := s.router
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"uptime":       time.Since(s.Appeared).String(),
			"service":      s.ID,
			"dictionaries": s.Catalog.Len(),
			"version":      "0.0.1",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/dictionaries", s.listDictionaries)
	r.GET("/dictionaries/:ns", s.describeDictionary)
	r.GET("/dictionaries/:ns/validate", s.validateDictionary)
	r.POST("/diff", s.diffDictionaries)

	r.POST("/fix/encode", s.fixEncode)
	r.POST("/fix/decode", s.fixDecode)
	r.POST("/fast/encode", s.fastEncode)
	r.POST("/fast/decode", s.fastDecode)
}

type DictionaryInfo struct {
	Namespace   string    `json:"namespace"`
	Description string    `json:"description,omitempty"`
	Path        string    `json:"path,omitempty"`
	Messages    []string  `json:"messages"`
	Loaded      time.Time `json:"loaded"`
}

func dictionaryInfo(e *catalog.Entry) DictionaryInfo {
	return DictionaryInfo{
		Namespace:   e.Namespace(),
		Description: e.Dictionary.Description(),
		Path:        e.Path,
		Messages:    e.Dictionary.MessageNames(),
		Loaded:      e.Loaded,
	}
}

func (s *Server) listDictionaries(c *gin.Context) {
	entries := s.Catalog.All()
	list := make([]DictionaryInfo, 0, len(entries))
	for _, e := range entries {
		list = append(list, dictionaryInfo(e))
	}
	c.JSON(http.StatusOK, gin.H{"dictionaries": list})
}

func (s *Server) describeDictionary(c *gin.Context) {
	e, err := s.Catalog.Lookup(c.Param("ns"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dictionaryInfo(e))
}

// Issue is a validation error as rendered to clients.
type Issue struct {
	Level    string `json:"level"`
	Category string `json:"category"`
	Message  string `json:"message,omitempty"`
	Field    string `json:"field,omitempty"`
	Text     string `json:"text"`
}

// validateDictionary runs the structural checks, plus the fix or fast rule
// set named by the rules query parameter.
func (s *Server) validateDictionary(c *gin.Context) {
	e, err := s.Catalog.Lookup(c.Param("ns"))
	if err != nil {
		fail(c, err)
		return
	}
	rules := c.Query("rules")
	errs := validate.Validate(e.Dictionary)
	switch rules {
	case "":
	case "fix":
		errs = append(errs, validate.FIXRules(e.Dictionary)...)
	case "fast":
		errs = append(errs, validate.FASTRules(e.Dictionary)...)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrUnknownRules.Error() + ": " + rules})
		return
	}

	issues := make([]Issue, 0, len(errs))
	for _, v := range errs {
		issues = append(issues, Issue{
			Level:    v.Level.String(),
			Category: string(v.Category),
			Message:  v.Message,
			Field:    v.Field,
			Text:     v.Text,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"namespace": e.Namespace(),
		"rules":     rules,
		"valid":     len(issues) == 0,
		"errors":    issues,
	})
}

type DiffOptions struct {
	CompareFieldOrder bool `json:"compare_field_order"`
	CheckByFirst      bool `json:"check_by_first"`
	DeepCheck         bool `json:"deep_check"`
	TypedCheck        bool `json:"typed_check"`
}

// DiffRequest names two catalog namespaces. Options default to the server's
// configured diff settings.
type DiffRequest struct {
	A       string       `json:"a" binding:"required"`
	B       string       `json:"b" binding:"required"`
	Options *DiffOptions `json:"options,omitempty"`
}

func (s *Server) diffDictionaries(c *gin.Context) {
	var req DiffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := s.Catalog.Lookup(req.A)
	if err != nil {
		fail(c, err)
		return
	}
	b, err := s.Catalog.Lookup(req.B)
	if err != nil {
		fail(c, err)
		return
	}
	opts := s.Diff
	if req.Options != nil {
		opts = diff.Options(*req.Options)
	}

	l, found := diff.Collect()
	diff.Compare(l, a.Dictionary, b.Dictionary, opts)
	for _, d := range *found {
		observability.RecordDistinction(d.Kind.String())
	}
	c.JSON(http.StatusOK, gin.H{
		"a":            req.A,
		"b":            req.B,
		"equal":        len(*found) == 0,
		"distinctions": *found,
	})
}

func (s *Server) fixEncode(c *gin.Context) {
	var m message.Message
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := s.Catalog.Lookup(m.Namespace)
	if err != nil {
		fail(c, err)
		return
	}
	start := time.Now()
	out, err := e.FIX.Encode(&m)
	if err != nil {
		observability.RecordCodec("fix", "encode", m.Namespace, 0, time.Since(start), false)
		fail(c, err)
		return
	}
	data := out.Bytes()
	observability.RecordCodec("fix", "encode", m.Namespace, len(data), time.Since(start), true)
	c.JSON(http.StatusOK, gin.H{
		"namespace": m.Namespace,
		"message":   m.Name,
		"text":      out.String(),
		"data":      data,
	})
}

// FIXDecodeRequest carries raw bytes, or text with '|' in place of SOH.
type FIXDecodeRequest struct {
	Namespace string `json:"namespace" binding:"required"`
	Data      []byte `json:"data,omitempty"`
	Text      string `json:"text,omitempty"`
}

func (s *Server) fixDecode(c *gin.Context) {
	var req FIXDecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := s.Catalog.Lookup(req.Namespace)
	if err != nil {
		fail(c, err)
		return
	}
	data := req.Data
	if req.Text != "" {
		data = []byte(strings.ReplaceAll(req.Text, "|", string(rune(fix.SOH))))
	}
	start := time.Now()
	m, err := e.FIX.Unmarshal(data)
	observability.RecordCodec("fix", "decode", req.Namespace, len(data), time.Since(start), err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) fastEncode(c *gin.Context) {
	var m message.Message
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := s.Catalog.Lookup(m.Namespace)
	if err != nil {
		fail(c, err)
		return
	}
	start := time.Now()
	data, err := e.FAST.Marshal(&m)
	observability.RecordCodec("fast", "encode", m.Namespace, len(data), time.Since(start), err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"namespace": m.Namespace,
		"message":   m.Name,
		"hex":       hex.EncodeToString(data),
		"size":      len(data),
	})
}

type FASTDecodeRequest struct {
	Namespace string `json:"namespace" binding:"required"`
	Hex       string `json:"hex" binding:"required"`
}

func (s *Server) fastDecode(c *gin.Context) {
	var req FASTDecodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := s.Catalog.Lookup(req.Namespace)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := hex.DecodeString(req.Hex)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start := time.Now()
	m, err := e.FAST.Unmarshal(data)
	observability.RecordCodec("fast", "decode", req.Namespace, len(data), time.Since(start), err == nil)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// fail maps unknown namespaces to 404 and codec failures to 422.
func fail(c *gin.Context, err error) {
	status := http.StatusUnprocessableEntity
	if errors.Is(err, catalog.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
