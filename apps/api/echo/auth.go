package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/admin"
	"github.com/hagwon/portal/core/student"
)

const claimsContextKey = "userToken"

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
// StudentID carries the external student number for portal users so
// score endpoints can scope queries without a DB round-trip.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	StudentID    string `json:"student_id,omitempty"`
	IsStudent    bool   `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsParent     bool   `json:"is_parent,omitempty"`  // -> PARENT PORTAL
	IsAdmin      bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
}

func newStandardClaims(conf *core.Config, subject string, origIat ...int64) jwt.StandardClaims {
	now := time.Now()
	nownix := now.Unix()
	return jwt.StandardClaims{
		Issuer:    conf.AppName,
		Subject:   subject,
		Audience:  "Portal",
		ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
		IssuedAt:  nownix,
	}
}

func GetAdminClaims(conf *core.Config, adm admin.Admin, origIat ...int64) *Claims {
	claims := &Claims{
		StandardClaims: newStandardClaims(conf, adm.ID),
		Username:       adm.Username,
		IsAdmin:        true,
	}
	claims.OrigIssuedAt = claims.IssuedAt
	if len(origIat) > 0 {
		claims.OrigIssuedAt = origIat[0]
	}
	return claims
}

// GetPortalClaims builds claims for a student or parent session. Subject is
// the student row ID for both roles.
func GetPortalClaims(conf *core.Config, st student.Student, role string, origIat ...int64) *Claims {
	username := st.LoginID
	if role == student.RoleParent {
		username = st.ParentID
	}
	claims := &Claims{
		StandardClaims: newStandardClaims(conf, st.ID),
		Username:       username,
		StudentID:      st.StudentID,
		IsStudent:      role == student.RoleStudent,
		IsParent:       role == student.RoleParent,
	}
	claims.OrigIssuedAt = claims.IssuedAt
	if len(origIat) > 0 {
		claims.OrigIssuedAt = origIat[0]
	}
	return claims
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(claimsContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ownerOrAdminMiddleware restricts detail routes to admins and to the
// portal session owning the student row named by the :id param.
func ownerOrAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin || claims.Subject == ctx.Param("id") {
				return next(ctx)
			}
			return errHttpNotFound
		}
	}
}

// API

type authApi struct {
	deps *ServerDeps
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := authApi{deps: deps}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/portal-login", api.portalLogin)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	PortalLoginRequest struct {
		LoginID  string `json:"login_id" validate:"required"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role" validate:"required,oneof=student parent"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}
)

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	data.Username = core.CleanString(data.Username, true /* lower */)
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	adm, err := api.deps.AdminSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case admin.ErrNotFound, admin.ErrBadCredentials:
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating admin")
	}

	token, err := GenerateToken(api.deps.Conf, GetAdminClaims(api.deps.Conf, adm))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) portalLogin(ctx echo.Context) error {
	var data PortalLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PortalLoginRequest")
	}
	if err := api.deps.Validate.Struct(&data); err != nil {
		return err
	}

	st, err := api.deps.StudentSvc.Authenticate(ctx.Request().Context(), data.Role, data.LoginID, data.Password)
	if err != nil {
		switch errors.Cause(err) {
		case student.ErrNotFound, student.ErrBadCredentials, student.ErrBadRole:
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "authenticating portal user")
	}

	token, err := GenerateToken(api.deps.Conf, GetPortalClaims(api.deps.Conf, st, data.Role))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(api.deps.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return errRefreshExpired
	}

	newClaims := &Claims{
		StandardClaims: newStandardClaims(api.deps.Conf, claims.Subject),
		OrigIssuedAt:   claims.OrigIssuedAt,
		Username:       claims.Username,
		StudentID:      claims.StudentID,
		IsStudent:      claims.IsStudent,
		IsParent:       claims.IsParent,
		IsAdmin:        claims.IsAdmin,
	}
	token, err := GenerateToken(api.deps.Conf, newClaims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
