package middlewares

import (
	"context"
	"net/http"
	"strings"

	"bitbucket.org/vecpay/backend/config"
	"bitbucket.org/vecpay/backend/db"
	"bitbucket.org/vecpay/backend/helpers"
	"bitbucket.org/vecpay/backend/models"
	"github.com/dgrijalva/jwt-go"
	jwtmiddleware "github.com/mfuentesg/go-jwtmiddleware"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"

	"github.com/urfave/negroni"
)

func jwtErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	r := &ResponseWriter{Writer: w}
	if err != nil && err.Error() == "Token is expired" {
		r.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"))
		return
	}
	if err != nil {
		r.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"))
	}
}

func NewJWTMiddleware(secret []byte) *jwtmiddleware.Middleware {
	return jwtmiddleware.New(
		jwtmiddleware.WithErrorHandler(jwtErrorHandler),
		jwtmiddleware.WithSigningMethod(jwt.SigningMethodHS256),
		jwtmiddleware.WithSignKey(secret),
		jwtmiddleware.WithUserProperty("_jwt-token"),
	)
}

func LoggerRequest(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	requestLogger := log.WithFields(log.Fields{"request_id": r.Header.Get("X-Request-ID"), "query": r.URL.Query(), "host": r.Host, "url": r.URL.Path})
	requestLogger.Info("logger_request")
	config.SetLogger(requestLogger)
	next(rw, r)
}

// UserMiddleware decodes the bearer token claims into the request context.
// Revoked tokens are rejected even when the signature still verifies.
func UserMiddleware() negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		authorization := r.Header.Get("Authorization")
		if len(authorization) == 0 {
			authorization = r.URL.Query().Get("token")
			r.Header.Set("Authorization", authorization)
		}
		token := strings.Split(authorization, " ")
		if len(token) == 2 {
			tokenString := token[1]
			if Revocations.IsRevoked(tokenString) {
				a := &ResponseWriter{Writer: rw}
				a.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"))
				return
			}
			data, _ := helpers.ParserTokenUnverified(tokenString)
			tokenParse, ok := data["u"].(map[string]interface{})
			if ok {
				id := tokenParse["i"]
				roles := tokenParse["r"]
				email := tokenParse["email"]
				dataInfo := models.InfoUser{}
				mapstructure.Decode(map[string]interface{}{
					"ID":    id,
					"Roles": roles,
				}, &dataInfo)
				isAdmin := helpers.Contains(dataInfo.Roles, db.ConstRoles.Admin)
				isClient := helpers.Contains(dataInfo.Roles, db.ConstRoles.Client)
				isAPI := helpers.Contains(dataInfo.Roles, db.ConstRoles.API)
				userData := map[string]interface{}{
					"Email":    email,
					"ID":       id,
					"IsAdmin":  isAdmin,
					"IsClient": isClient,
					"IsAPI":    isAPI,
					"Roles":    roles,
				}
				if !isAdmin && !isClient && !isAPI {
					a := &ResponseWriter{Writer: rw}
					a.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"))
					return
				}
				ctx := context.WithValue(r.Context(), string("user"), userData)
				next(rw, r.WithContext(ctx))
				return
			}
		}
		next(rw, r)
	})
}

