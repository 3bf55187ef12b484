package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/iceymoss/go-blog/pkg/db/objects"
	"github.com/iceymoss/go-blog/pkg/xerr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const userKey = "auth.user"

// Claims JWT 载荷，写接口把其中的 ID 作为 authorId 原样落库
type Claims struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth 认证协作方：签发和校验 token，不参与文章读写语义
type Auth struct {
	secret []byte
	ttl    time.Duration
}

func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl}
}

// Sign 给用户签发 token
func (a *Auth) Sign(u *objects.User) (string, error) {
	now := time.Now()
	claims := Claims{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate 从 Authorization 头或 token cookie 里取凭证
// 没有或无效一律 401
func (a *Auth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
		if token == "" {
			if cookie, err := c.Cookie("token"); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"code": xerr.ErrUnauthenticated, "message": "未登录或登录已过期"})
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				gin.H{"code": xerr.ErrInvalidToken, "message": "无效的登录状态"})
			return
		}

		c.Set(userKey, claims)
		c.Next()
	}
}

// RequireAdmin 管理员门槛，已认证但角色不够返回 403
func (a *Auth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != objects.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden,
				gin.H{"code": xerr.ErrInsufficientPriv, "message": "需要管理员权限"})
			return
		}
		c.Next()
	}
}

// CurrentUser 取当前请求的认证用户，未认证返回 nil
func CurrentUser(c *gin.Context) *Claims {
	if v, ok := c.Get(userKey); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}
