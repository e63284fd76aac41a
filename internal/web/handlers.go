package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/MikeMC777/kitchen-dashboard/internal/api"
	"github.com/MikeMC777/kitchen-dashboard/internal/httpx"
	"github.com/MikeMC777/kitchen-dashboard/internal/kitchen"
	"github.com/MikeMC777/kitchen-dashboard/internal/order"
	"github.com/MikeMC777/kitchen-dashboard/internal/user"
)

var validate = validator.New()

type signInForm struct {
	Username string `form:"username" validate:"required,min=3,max=50"`
	Password string `form:"password" validate:"required,min=6"`
	From     string `form:"from"`
}

type signUpForm struct {
	Username        string `form:"username" validate:"required,min=3,max=50"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `form:"role" validate:"required,oneof=admin cashier kitchen"`
	FirstName       string `form:"first_name" validate:"required,max=50"`
	LastName        string `form:"last_name" validate:"required,max=50"`
	Phone           string `form:"phone" validate:"omitempty,max=20"`
}

type statusForm struct {
	Status   string `form:"status" validate:"required"`
	Notes    string `form:"notes" validate:"max=500"`
	Redirect string `form:"redirect"`
}

type page struct {
	Title       string
	User        *user.User
	Error       string
	Dismissable bool
	From        string
	Form        any
	Fields      map[string]string
	Roles       []user.Role
	Board       kitchen.Snapshot
	Detail      *kitchen.Detail
	PollMillis  int64
}

var fieldMessages = map[string]string{
	"required": "This field is required",
	"min":      "Too short",
	"max":      "Too long",
	"email":    "Enter a valid email address",
	"eqfield":  "Passwords do not match",
	"oneof":    "Choose one of the listed values",
}

// bindForm binds the posted form and runs validator tags. Field errors are
// keyed by struct field name.
func bindForm(c *gin.Context, dst any) (map[string]string, error) {
	if err := c.ShouldBind(dst); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			msg, ok := fieldMessages[fe.Tag()]
			if !ok {
				msg = "Invalid value"
			}
			fields[fe.Field()] = msg
		}
	}
	return fields, nil
}

// safeRedirect only follows local absolute paths.
func safeRedirect(target, fallback string) string {
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") && !strings.HasPrefix(target, "/\\") {
		return target
	}
	return fallback
}

func (s *server) home(c *gin.Context) {
	u, _ := httpx.CurrentUser(c)
	c.Redirect(http.StatusSeeOther, user.HomePath(u.Role))
}

func (s *server) signInPage(c *gin.Context) {
	if state, u := s.auth.Resolve(c.Request.Context()); state == httpx.AuthAuthenticated {
		c.Redirect(http.StatusSeeOther, user.HomePath(u.Role))
		return
	}
	c.HTML(http.StatusOK, "signin.html", page{
		Title:  "Sign in",
		Error:  c.Query("error"),
		From:   c.Query("from"),
		Form:   signInForm{},
		Fields: map[string]string{},
	})
}

func (s *server) signIn(c *gin.Context) {
	var form signInForm
	fields, err := bindForm(c, &form)
	if err != nil {
		c.HTML(http.StatusBadRequest, "signin.html", page{Title: "Sign in", Error: "Invalid form submission", Form: signInForm{}, Fields: map[string]string{}})
		return
	}
	form.Username = strings.TrimSpace(form.Username)
	render := func(code int, msg string) {
		shown := form
		shown.Password = ""
		c.HTML(code, "signin.html", page{Title: "Sign in", Error: msg, From: form.From, Form: shown, Fields: fields})
	}
	if len(fields) > 0 {
		render(http.StatusUnprocessableEntity, "")
		return
	}

	u, err := s.auth.SignIn(c.Request.Context(), api.Credentials{Username: form.Username, Password: form.Password})
	if err != nil {
		log.Warn().Err(err).Str("request_id", c.GetString(httpx.RequestIDKey)).Msg("sign in failed")
		render(http.StatusUnauthorized, errorMessage(err))
		return
	}
	s.mountFor(u)
	c.Redirect(http.StatusSeeOther, safeRedirect(form.From, user.HomePath(u.Role)))
}

func (s *server) signUpPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", page{
		Title:  "Create account",
		Form:   signUpForm{Role: string(user.RoleKitchen)},
		Fields: map[string]string{},
		Roles:  user.Roles,
	})
}

func (s *server) signUp(c *gin.Context) {
	var form signUpForm
	fields, err := bindForm(c, &form)
	if err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", page{Title: "Create account", Error: "Invalid form submission", Form: signUpForm{}, Fields: map[string]string{}, Roles: user.Roles})
		return
	}
	render := func(code int, msg string) {
		shown := form
		shown.Password, shown.ConfirmPassword = "", ""
		c.HTML(code, "signup.html", page{Title: "Create account", Error: msg, Form: shown, Fields: fields, Roles: user.Roles})
	}
	if len(fields) > 0 {
		render(http.StatusUnprocessableEntity, "")
		return
	}
	role, err := user.ParseRole(form.Role)
	if err != nil {
		fields["Role"] = fieldMessages["oneof"]
		render(http.StatusUnprocessableEntity, "")
		return
	}

	u, err := s.auth.SignUp(c.Request.Context(), api.Registration{
		Username:  strings.TrimSpace(form.Username),
		Email:     strings.TrimSpace(form.Email),
		Password:  form.Password,
		Role:      role,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Phone:     strings.TrimSpace(form.Phone),
	})
	if err != nil {
		log.Warn().Err(err).Str("request_id", c.GetString(httpx.RequestIDKey)).Msg("sign up failed")
		render(http.StatusBadRequest, errorMessage(err))
		return
	}
	s.mountFor(u)
	c.Redirect(http.StatusSeeOther, user.HomePath(u.Role))
}

// mountFor starts the board as soon as a kitchen user has a session.
func (s *server) mountFor(u user.User) {
	if u.HasRole(user.RoleKitchen, user.RoleAdmin) {
		s.kitchen.EnsureMounted(s.base)
	}
}

func (s *server) signOut(c *gin.Context) {
	s.kitchen.Unmount()
	if err := s.auth.SignOut(c.Request.Context()); err != nil {
		log.Error().Err(err).Str("request_id", c.GetString(httpx.RequestIDKey)).Msg("sign out failed")
	}
	c.Redirect(http.StatusSeeOther, httpx.SignInPath)
}

func (s *server) rolePage(title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _ := httpx.CurrentUser(c)
		c.HTML(http.StatusOK, "home.html", page{Title: title, User: &u, Error: c.Query("error")})
	}
}

func (s *server) board(c *gin.Context) {
	u, _ := httpx.CurrentUser(c)
	s.kitchen.EnsureMounted(s.base)
	snap := s.kitchen.Snapshot()
	msg := snap.Error
	if msg == "" {
		msg = c.Query("error")
	}
	c.HTML(http.StatusOK, "kitchen.html", page{
		Title:       "Kitchen",
		User:        &u,
		Error:       msg,
		Dismissable: snap.Error != "",
		Board:       snap,
		PollMillis:  s.pollMillis,
	})
}

// state godoc
// @Summary      Kitchen board state
// @Description  Columns, stats, stock, notifications and the error banner as shown on the board.
// @Tags         kitchen
// @Produce      json
// @Success      200 {object} kitchen.Snapshot
// @Failure      401 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /kitchen/state [get]
func (s *server) state(c *gin.Context) {
	s.kitchen.EnsureMounted(s.base)
	c.JSON(http.StatusOK, s.kitchen.Snapshot())
}

// refresh godoc
// @Summary      Reload orders and stock
// @Tags         kitchen
// @Produce      json
// @Success      200 {object} kitchen.Snapshot
// @Failure      502 {object} map[string]string
// @Router       /kitchen/refresh [post]
func (s *server) refresh(c *gin.Context) {
	err := s.kitchen.Refresh(c.Request.Context())
	if httpx.WantsJSON(c) {
		if err != nil && !errors.Is(err, kitchen.ErrStale) {
			c.JSON(http.StatusBadGateway, gin.H{"error": errorMessage(err)})
			return
		}
		c.JSON(http.StatusOK, s.kitchen.Snapshot())
		return
	}
	c.Redirect(http.StatusSeeOther, "/kitchen")
}

func (s *server) dismissError(c *gin.Context) {
	s.kitchen.DismissError()
	s.back(c, "/kitchen")
}

func (s *server) dismissNotification(c *gin.Context) {
	s.kitchen.DismissNotification(c.Param("id"))
	s.back(c, "/kitchen")
}

func (s *server) closeOrder(c *gin.Context) {
	s.kitchen.CloseOrder()
	c.Redirect(http.StatusSeeOther, "/kitchen")
}

func (s *server) orderDetail(c *gin.Context) {
	u, _ := httpx.CurrentUser(c)
	s.kitchen.EnsureMounted(s.base)
	err := s.kitchen.OpenOrder(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, kitchen.ErrOrderNotFound):
		c.HTML(http.StatusNotFound, "home.html", page{Title: "Order not found", User: &u, Error: "That order is not on the kitchen board."})
		return
	case errors.Is(err, kitchen.ErrStale):
		c.Redirect(http.StatusSeeOther, "/kitchen")
		return
	}
	snap := s.kitchen.Snapshot()
	c.HTML(http.StatusOK, "order.html", page{
		Title:       "Order",
		User:        &u,
		Error:       snap.Error,
		Dismissable: snap.Error != "",
		Board:       snap,
		Detail:      snap.Detail,
	})
}

// updateStatus godoc
// @Summary      Move an order to another status
// @Tags         kitchen
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        id      path  string  true   "Order ID"
// @Param        status  formData  string  true   "Target status"
// @Param        notes   formData  string  false  "Note recorded in the order history"
// @Success      200 {object} order.Order
// @Failure      400 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Failure      502 {object} map[string]string
// @Router       /kitchen/orders/{id}/status [post]
func (s *server) updateStatus(c *gin.Context) {
	var form statusForm
	fields, err := bindForm(c, &form)
	if err != nil || len(fields) > 0 {
		s.fail(c, http.StatusBadRequest, "A status is required")
		return
	}
	st, err := order.ParseStatus(form.Status)
	if err != nil {
		s.fail(c, http.StatusBadRequest, "Unknown status "+form.Status)
		return
	}
	updated, err := s.kitchen.UpdateStatus(c.Request.Context(), c.Param("id"), st, form.Notes)
	s.afterUpdate(c, updated, err, form.Redirect)
}

// complete godoc
// @Summary      Complete an order
// @Tags         kitchen
// @Produce      json
// @Param        id  path  string  true  "Order ID"
// @Success      200 {object} order.Order
// @Failure      409 {object} map[string]string
// @Failure      502 {object} map[string]string
// @Router       /kitchen/orders/{id}/complete [post]
func (s *server) complete(c *gin.Context) {
	updated, err := s.kitchen.Complete(c.Request.Context(), c.Param("id"))
	s.afterUpdate(c, updated, err, c.PostForm("redirect"))
}

func (s *server) afterUpdate(c *gin.Context, updated order.Order, err error, redirect string) {
	if !httpx.WantsJSON(c) {
		// failures are already on the banner
		c.Redirect(http.StatusSeeOther, safeRedirect(redirect, "/kitchen"))
		return
	}
	switch {
	case err == nil:
		c.JSON(http.StatusOK, updated)
	case errors.Is(err, order.ErrInvalidTransition), errors.Is(err, order.ErrUnknownStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, kitchen.ErrStale):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": errorMessage(err)})
	}
}

func (s *server) fail(c *gin.Context, code int, msg string) {
	if httpx.WantsJSON(c) {
		c.JSON(code, gin.H{"error": msg})
		return
	}
	c.Redirect(http.StatusSeeOther, "/kitchen?error="+url.QueryEscape(msg))
}

func (s *server) back(c *gin.Context, fallback string) {
	if httpx.WantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, safeRedirect(c.PostForm("redirect"), fallback))
}

// errorMessage is the text shown to staff for a failed API call.
func errorMessage(err error) string {
	var fe *api.Failure
	if errors.As(err, &fe) {
		return fe.Message
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return te.Msg
	}
	return err.Error()
}
