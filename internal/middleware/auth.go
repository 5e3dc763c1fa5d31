package middleware

import (
	"github.com/kataras/iris/v12"

	"github.com/Captain-Catto/online-store-sub001/internal/auth"
	"github.com/Captain-Catto/online-store-sub001/internal/config"
)

// Auth validates the bearer token, consulting the claims cache before
// falling back to signature verification, and stores the identity on the
// request context.
func Auth(jwtCfg *config.JWTConfig, cache *auth.TokenCache) iris.Handler {
	return func(ctx iris.Context) {
		token := ctx.GetHeader("Authorization")
		if token == "" {
			ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "missing token"})
			return
		}

		var claims *auth.Claims
		if cache != nil {
			if cached, ok, err := cache.Get(ctx.Request().Context(), token); err == nil && ok {
				claims = cached
			}
		}
		if claims == nil {
			parsed, err := auth.ParseToken(jwtCfg, token)
			if err != nil {
				ctx.StopWithJSON(401, iris.Map{"code": 401, "msg": "invalid token"})
				return
			}
			claims = parsed
			if cache != nil {
				_ = cache.Set(ctx.Request().Context(), token, claims)
			}
		}

		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("username", claims.Username)
		ctx.Values().Set("role", claims.Role)
		ctx.Next()
	}
}

// AdminOnly requires the admin role; it must run after Auth.
func AdminOnly() iris.Handler {
	return func(ctx iris.Context) {
		if ctx.Values().GetString("role") != "admin" {
			ctx.StopWithJSON(403, iris.Map{"code": 403, "msg": "admin only"})
			return
		}
		ctx.Next()
	}
}
