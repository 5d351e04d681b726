package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yatube/config"
	"yatube/internal/cache"
	"yatube/internal/errors"
	"yatube/internal/metrics"
	"yatube/internal/model"
	webtest "yatube/internal/testutil"
	"yatube/internal/util"
)

const cookieName = "yatube_session"

func TestMain(m *testing.M) {
	config.AppConfig.JWTSecret = "test-secret"
	os.Exit(m.Run())
}

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserLookup) IsTokenBlacklisted(token string) bool {
	return m.Called(token).Bool(0)
}

func sessionRequest(t *testing.T, method, target string, userID int) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if userID > 0 {
		token, err := util.GenerateToken(userID)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	return req
}

func whoAmI(c *gin.Context) {
	if user := UserFrom(c); user != nil {
		c.String(http.StatusOK, user.Username)
		return
	}
	c.String(http.StatusOK, "anonymous")
}

func TestCurrentUser(t *testing.T) {
	users := new(MockUserLookup)
	user := &model.User{ID: 1, Username: "auth"}
	users.On("IsTokenBlacklisted", mock.Anything).Return(false)
	users.On("GetUserByID", mock.Anything, 1).Return(user, nil)
	users.On("GetUserByID", mock.Anything, 2).Return(nil, errors.New(errors.ErrUserNotFound, "用户不存在"))

	r, _ := webtest.NewEngine()
	r.Use(CurrentUser(users, cookieName))
	r.GET("/", whoAmI)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, sessionRequest(t, "GET", "/", 1))
	assert.Equal(t, "auth", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, sessionRequest(t, "GET", "/", 0))
	assert.Equal(t, "anonymous", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, sessionRequest(t, "GET", "/", 2))
	assert.Equal(t, "anonymous", w.Body.String())

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "garbage"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestCurrentUserBearerAndBlacklist(t *testing.T) {
	token, err := util.GenerateToken(1)
	require.NoError(t, err)

	users := new(MockUserLookup)
	users.On("IsTokenBlacklisted", token).Return(true)

	r, _ := webtest.NewEngine()
	r.Use(CurrentUser(users, cookieName))
	r.GET("/", whoAmI)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "anonymous", w.Body.String())
	users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestLoginRequiredRedirects(t *testing.T) {
	r, _ := webtest.NewEngine()
	r.GET("/create/", LoginRequired(), whoAmI)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/create/", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fcreate%2F", w.Header().Get("Location"))
}

func TestAdminMiddleware(t *testing.T) {
	r, rec := webtest.NewEngine()
	r.Use(func(c *gin.Context) {
		switch c.Query("as") {
		case "admin":
			c.Set(ContextUserKey, &model.User{ID: 1, Role: model.RoleAdmin})
		case "user":
			c.Set(ContextUserKey, &model.User{ID: 2, Role: model.RoleUser})
		}
	})
	r.GET("/admin/", AdminMiddleware(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/?as=admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/?as=user", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "core/403.html", rec.Last().Name)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/admin/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	r, rec := webtest.NewEngine()
	r.Use(RecoveryMiddleware())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "core/500.html", rec.Last().Name)
}

func TestErrorMonitor(t *testing.T) {
	m := metrics.NewRegistry()
	monitor := NewErrorMonitor(m)

	r, _ := webtest.NewEngine()
	r.Use(ErrorMonitorMiddleware(monitor))
	r.GET("/missing", func(c *gin.Context) {
		errors.HandleError(c, errors.New(errors.ErrPostNotFound, "帖子不存在"))
	})
	r.GET("/broken", func(c *gin.Context) {
		errors.HandleError(c, stderrors.New("plain error"))
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/broken", nil))

	counts := monitor.GetErrorCounts()
	assert.Equal(t, 2, counts[errors.ErrPostNotFound])
	assert.Equal(t, 1, counts[errors.ErrInternal])
	assert.Equal(t, float64(2), testutil.ToFloat64(m.AppErrors.WithLabelValues("4003")))
}

func TestRequestLogger(t *testing.T) {
	m := metrics.NewRegistry()
	r, _ := webtest.NewEngine()
	r.Use(RequestLogger(m))
	r.GET("/posts/:post_id/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/posts/1/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/posts/:post_id/", "200")))

	req := httptest.NewRequest("GET", "/posts/1/", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)
	r, _ := webtest.NewEngine()
	r.Use(RateLimit(limiter, metrics.NewRegistry()))
	r.POST("/auth/login/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/auth/login/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/auth/login/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/auth/login/", nil))
	assert.Equal(t, http.StatusOK, w.Code, "GET 请求不限流")
}

func TestCachePage(t *testing.T) {
	store := cache.NewMemoryStore()
	var content atomic.Value
	content.Store("first")
	var calls int32

	r, _ := webtest.NewEngine()
	r.Use(func(c *gin.Context) {
		if c.Query("as") == "auth" {
			c.Set(ContextUserKey, &model.User{ID: 1, Username: "auth"})
		}
	})
	r.GET("/", CachePage(store, 300*time.Second, metrics.NewRegistry()), func(c *gin.Context) {
		atomic.AddInt32(&calls, 1)
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(content.Load().(string)))
	})

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		return w
	}

	first := get("/")
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))

	content.Store("second")
	second := get("/")
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes(), "缓存期内内容不变")
	assert.Equal(t, "text/html; charset=utf-8", second.Header().Get("Content-Type"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// 不同页码和不同用户使用不同的键
	assert.Equal(t, "MISS", get("/?page=2").Header().Get(CacheHeader))
	assert.Equal(t, "MISS", get("/?as=auth").Header().Get(CacheHeader))

	require.NoError(t, store.Clear(context.Background()))
	third := get("/")
	assert.Equal(t, "MISS", third.Header().Get(CacheHeader))
	assert.Equal(t, "second", third.Body.String())
}

func TestCachePageSkipsErrors(t *testing.T) {
	store := cache.NewMemoryStore()
	r, _ := webtest.NewEngine()
	r.GET("/", CachePage(store, time.Minute, nil), func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "oops")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 0, store.Len())
}
