// Package web serves the kitchen dashboard pages and their JSON state.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MikeMC777/kitchen-dashboard/internal/httpx"
	"github.com/MikeMC777/kitchen-dashboard/internal/kitchen"
	"github.com/MikeMC777/kitchen-dashboard/internal/order"
	"github.com/MikeMC777/kitchen-dashboard/internal/user"
)

//go:embed templates/*.html
var templateFS embed.FS

type Deps struct {
	Auth    *AuthProvider
	Kitchen *kitchen.Controller
	// Base is the lifetime of pollers started by page views.
	Base         context.Context
	PollInterval time.Duration
	Production   bool
}

type server struct {
	auth       *AuthProvider
	kitchen    *kitchen.Controller
	base       context.Context
	pollMillis int64
}

func NewRouter(d Deps) *gin.Engine {
	if d.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Base == nil {
		d.Base = context.Background()
	}
	if d.PollInterval <= 0 {
		d.PollInterval = 30 * time.Second
	}
	s := &server{
		auth:       d.Auth,
		kitchen:    d.Kitchen,
		base:       d.Base,
		pollMillis: d.PollInterval.Milliseconds(),
	}

	r := gin.New()
	r.Use(httpx.RequestID())
	r.Use(httpx.Logger())
	r.Use(httpx.Recovery())
	r.Use(httpx.Metrics())
	r.SetHTMLTemplate(loadTemplates())

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", httpx.Guard(s.auth), s.home)
	r.GET("/signin", s.signInPage)
	r.POST("/signin", s.signIn)
	r.GET("/signup", s.signUpPage)
	r.POST("/signup", s.signUp)
	r.POST("/signout", s.signOut)

	r.GET("/cashier", httpx.Guard(s.auth, user.RoleCashier, user.RoleAdmin), s.rolePage("Cashier"))
	r.GET("/admin", httpx.Guard(s.auth, user.RoleAdmin), s.rolePage("Administration"))

	k := r.Group("/kitchen", httpx.Guard(s.auth, user.RoleKitchen, user.RoleAdmin))
	{
		k.GET("", s.board)
		k.GET("/state", s.state)
		k.POST("/refresh", s.refresh)
		k.POST("/error/dismiss", s.dismissError)
		k.POST("/notifications/:id/dismiss", s.dismissNotification)
		k.POST("/orders/close", s.closeOrder)
		k.GET("/orders/:id", s.orderDetail)
		k.POST("/orders/:id/status", s.updateStatus)
		k.POST("/orders/:id/complete", s.complete)
	}

	if !d.Production {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}

func loadTemplates() *template.Template {
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
		"add":   func(a, b int) int { return a + b },
		"join":  func(s []string) string { return strings.Join(s, ", ") },
		"since": since,
		"actionPath": func(id string, target order.Status) string {
			base := "/kitchen/orders/" + url.PathEscape(id)
			if target == order.StatusCompleted {
				return base + "/complete"
			}
			return base + "/status"
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func since(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t).Round(time.Minute)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return d.String()[:len(d.String())-2] + " ago"
	default:
		return t.Format("Jan 2 15:04")
	}
}

// healthz godoc
// @Summary      Liveness probe
// @Tags         ops
// @Produce      plain
// @Success      200 {string} string "ok"
// @Router       /healthz [get]
func (s *server) healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
