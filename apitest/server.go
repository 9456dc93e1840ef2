// Package apitest is an in-memory stand-in for the voucher backend, served over httptest.
package apitest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/models"
	"github.com/mmdatafocus/voucher_desk/utils"
)

const (
	DefaultEmail    = "admin@example.com"
	DefaultPassword = "secret"
)

type failure struct {
	status int
	body   any
}

// Gate holds requests to one route until Release.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered is closed when the first held request arrives.
func (g *Gate) Entered() <-chan struct{} { return g.entered }

func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

// Server keeps vouchers per resource and counts every request by "METHOD /path".
type Server struct {
	*httptest.Server

	// Token, when set, must be sent as a bearer token on every protected route.
	Token          string
	CompanyMissing bool
	Year           int

	mu        sync.Mutex
	vouchers  map[string]map[int]map[string]any
	masters   map[string][]map[string]any
	sequences map[string]int
	nextId    int
	counts    map[string]int
	failures  map[string][]failure
	gates     map[string]*Gate
}

func init() {
	gin.SetMode(gin.TestMode)
}

func NewServer() *Server {
	s := &Server{
		Year:      time.Now().Year(),
		vouchers:  make(map[string]map[int]map[string]any),
		masters:   make(map[string][]map[string]any),
		sequences: make(map[string]int),
		counts:    make(map[string]int),
		failures:  make(map[string][]failure),
		gates:     make(map[string]*Gate),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// Settings points a client at this server with limits suited to tests.
func (s *Server) Settings() config.Settings {
	return config.Settings{
		APIBaseURL:      s.URL,
		APITimeout:      5 * time.Second,
		AuthWaitTimeout: 50 * time.Millisecond,
		ListPageSize:    100,
		ListMaxRecords:  1000,
		CacheLifespan:   time.Minute,
		PhoneRegion:     "IN",
	}
}

// IssueToken signs a token for the fake API and requires it from then on.
func (s *Server) IssueToken(lifespan time.Duration) string {
	token, err := utils.JwtGenerate(DefaultEmail, "admin", lifespan, []byte("apitest"))
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.Token = token
	s.mu.Unlock()
	return token
}

func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = token
}

func (s *Server) SetCompanyMissing(missing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CompanyMissing = missing
}

// Count returns how many requests reached "METHOD path" (path without the /api/v1 prefix).
func (s *Server) Count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[method+" "+path]
}

// Fail makes the next request to "METHOD path" answer status with body.
func (s *Server) Fail(method, path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	s.failures[key] = append(s.failures[key], failure{status: status, body: body})
}

// Hold blocks requests to "METHOD path" until the returned gate is released.
func (s *Server) Hold(method, path string) *Gate {
	g := &Gate{entered: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.gates[method+" "+path] = g
	s.mu.Unlock()
	return g
}

// SetSequence makes the next assigned number for resource n.
func (s *Server) SetSequence(resource string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[resource] = n - 1
}

// Seed stores a voucher record as if it had been created and returns its id.
func (s *Server) Seed(resource string, record map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertVoucher(resource, record)
}

// SeedMaster appends a vendor, customer or product and returns its id.
func (s *Server) SeedMaster(resource models.MasterResource, record map[string]any) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMaster(string(resource), record)
}

// Voucher returns a stored record.
func (s *Server) Voucher(resource string, id int) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.vouchers[resource][id]
	return rec, ok
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "X-Correlation-Id"},
	}))
	r.Use(s.track)

	v1 := r.Group("/api/v1")
	v1.POST("/:resource/:id", s.postAction)
	v1.Use(s.requireToken)
	v1.GET("/:resource", s.list)
	v1.POST("/:resource", s.create)
	v1.GET("/:resource/:id", s.get)
	v1.PUT("/:resource/:id", s.update)
	v1.DELETE("/:resource/:id", s.remove)
	return r
}

// track counts the request, then applies an injected failure or gate.
func (s *Server) track(c *gin.Context) {
	key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, "/api/v1")
	s.mu.Lock()
	s.counts[key]++
	var fail *failure
	if queued := s.failures[key]; len(queued) > 0 {
		fail = &queued[0]
		s.failures[key] = queued[1:]
	}
	gate := s.gates[key]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate.entered:
		default:
			close(gate.entered)
		}
		<-gate.release
	}
	if fail != nil {
		c.AbortWithStatusJSON(fail.status, fail.body)
		return
	}
	c.Next()
}

func (s *Server) requireToken(c *gin.Context) {
	s.mu.Lock()
	want := s.Token
	s.mu.Unlock()
	if want == "" {
		c.Next()
		return
	}
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(auth[7:]) != want {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}
	c.Next()
}

func (s *Server) postAction(c *gin.Context) {
	if c.Param("resource") == "auth" && c.Param("id") == "login" {
		s.login(c)
		return
	}
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method Not Allowed"})
}

func (s *Server) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body"}, "msg": "Invalid request body", "type": "value_error"}}})
		return
	}
	if body.Email != DefaultEmail || body.Password != DefaultPassword {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect email or password"})
		return
	}
	token := s.IssueToken(time.Hour)
	c.JSON(http.StatusOK, gin.H{
		"access_token":    token,
		"token_type":      "bearer",
		"user_role":       "admin",
		"organization_id": 1,
		"is_super_admin":  false,
	})
}

func isMaster(resource string) bool {
	for _, r := range models.AllMasterResources() {
		if string(r) == resource {
			return true
		}
	}
	return false
}

func voucherTitle(resource string) (string, bool) {
	for _, key := range models.Keys() {
		cfg := models.MustConfig(key)
		if cfg.VoucherType == resource {
			return cfg.Title, true
		}
	}
	return "", false
}

func notFound(c *gin.Context, title string) {
	msg := strings.ToUpper(title[:1]) + strings.ToLower(title[1:]) + " not found"
	c.JSON(http.StatusNotFound, gin.H{"detail": msg})
}

func (s *Server) list(c *gin.Context) {
	resource := c.Param("resource")
	s.mu.Lock()
	defer s.mu.Unlock()

	if isMaster(resource) {
		out := s.masters[resource]
		if out == nil {
			out = []map[string]any{}
		}
		c.JSON(http.StatusOK, out)
		return
	}
	if _, ok := voucherTitle(resource); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	ids := make([]int, 0, len(s.vouchers[resource]))
	for id := range s.vouchers[resource] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]map[string]any, 0, limit)
	for i := skip; i < len(ids) && len(out) < limit; i++ {
		out = append(out, s.vouchers[resource][ids[i]])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) create(c *gin.Context) {
	resource := c.Param("resource")
	body, ok := bindObject(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if isMaster(resource) {
		if name, _ := body["name"].(string); strings.TrimSpace(name) == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body", "name"}, "msg": "field required", "type": "value_error.missing"}}})
			return
		}
		s.insertMaster(resource, body)
		c.JSON(http.StatusOK, s.masters[resource][len(s.masters[resource])-1])
		return
	}
	if _, ok := voucherTitle(resource); !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	for _, existing := range s.vouchers[resource] {
		if number, _ := body["voucher_number"].(string); number != "" && existing["voucher_number"] == number {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("Voucher number %s already exists", number)})
			return
		}
	}
	id := s.insertVoucher(resource, body)
	c.JSON(http.StatusOK, s.vouchers[resource][id])
}

func (s *Server) get(c *gin.Context) {
	resource, rawId := c.Param("resource"), c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	if resource == "companies" && rawId == "current" {
		if s.CompanyMissing {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Company not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": 1, "name": "Acme Industries", "gst_number": "29ABCDE1234F1Z5", "state_code": "29"})
		return
	}
	title, ok := voucherTitle(resource)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	if rawId == "next-number" {
		c.JSON(http.StatusOK, s.formatNumber(resource, s.sequences[resource]+1))
		return
	}
	id, err := strconv.Atoi(rawId)
	rec, found := s.vouchers[resource][id]
	if err != nil || !found {
		notFound(c, title)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) update(c *gin.Context) {
	resource := c.Param("resource")
	body, ok := bindObject(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	title, known := voucherTitle(resource)
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	rec, found := s.vouchers[resource][id]
	if err != nil || !found {
		notFound(c, title)
		return
	}
	for k, v := range body {
		if k == "id" || k == "created_at" {
			continue
		}
		rec[k] = v
	}
	rec["updated_at"] = time.Date(s.Year, 1, 1, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) remove(c *gin.Context) {
	resource := c.Param("resource")
	s.mu.Lock()
	defer s.mu.Unlock()

	title, known := voucherTitle(resource)
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if _, found := s.vouchers[resource][id]; err != nil || !found {
		notFound(c, title)
		return
	}
	delete(s.vouchers[resource], id)
	c.Status(http.StatusNoContent)
}

func bindObject(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := utils.UnmarshalWithNumbers(mustRead(c), &body); err != nil || body == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body"}, "msg": "Input should be a valid dictionary", "type": "dict_type"}}})
		return nil, false
	}
	return body, true
}

func mustRead(c *gin.Context) []byte {
	data, err := c.GetRawData()
	if err != nil {
		return nil
	}
	return data
}

// insertVoucher assigns id and, when blank, the next voucher number. Callers hold s.mu.
func (s *Server) insertVoucher(resource string, record map[string]any) int {
	s.nextId++
	id := s.nextId
	rec := make(map[string]any, len(record)+2)
	for k, v := range record {
		rec[k] = v
	}
	rec["id"] = id
	if number, _ := rec["voucher_number"].(string); number == "" {
		s.sequences[resource]++
		rec["voucher_number"] = s.formatNumber(resource, s.sequences[resource])
	} else {
		s.sequences[resource]++
	}
	if s.vouchers[resource] == nil {
		s.vouchers[resource] = make(map[int]map[string]any)
	}
	s.vouchers[resource][id] = rec
	return id
}

func (s *Server) insertMaster(resource string, record map[string]any) int {
	s.nextId++
	rec := make(map[string]any, len(record)+2)
	for k, v := range record {
		rec[k] = v
	}
	rec["id"] = s.nextId
	if _, ok := rec["is_active"]; !ok {
		rec["is_active"] = true
	}
	s.masters[resource] = append(s.masters[resource], rec)
	return s.nextId
}

// formatNumber builds numbers like "PV/2024/0042" from the resource's initials.
func (s *Server) formatNumber(resource string, n int) string {
	var prefix strings.Builder
	for _, word := range strings.Split(resource, "-") {
		if word != "" {
			prefix.WriteString(strings.ToUpper(word[:1]))
		}
	}
	return fmt.Sprintf("%s/%d/%04d", prefix.String(), s.Year, n)
}
