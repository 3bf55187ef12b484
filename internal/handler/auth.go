package handler

import (
	"net/http"

	"github.com/iceymoss/go-blog/internal/middleware"
	"github.com/iceymoss/go-blog/internal/repo"
	"github.com/iceymoss/go-blog/pkg/db/objects"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Auth 认证协作方的接入端点：注册 / 登录 / 当前用户
// 第一个注册的用户自动成为管理员
type Auth struct {
	users *repo.UserRepo
	auth  *middleware.Auth
}

func NewAuth(users *repo.UserRepo, auth *middleware.Auth) *Auth {
	return &Auth{users: users, auth: auth}
}

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register POST /api/auth/register
func (h *Auth) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		badRequest(c, "用户名和密码必填")
		return
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	count, err := h.users.Count(ctx)
	if err != nil {
		serverError(c, "count users failed", err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(c, "hash password failed", err)
		return
	}
	role := objects.RoleUser
	if count == 0 {
		role = objects.RoleAdmin
	}
	u := objects.User{Username: req.Username, PasswordHash: string(hash), Role: role}
	if err := h.users.Create(ctx, &u); err != nil {
		// 用户名唯一索引冲突也落在这里，不区分细节
		serverError(c, "create user failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "注册成功", "role": role})
}

// Login POST /api/auth/login
// 用户不存在时自动注册，第一个用户是 admin
func (h *Auth) Login(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		badRequest(c, "用户名和密码必填")
		return
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	user, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		serverError(c, "get user failed", err)
		return
	}

	if user == nil {
		count, err := h.users.Count(ctx)
		if err != nil {
			serverError(c, "count users failed", err)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			serverError(c, "hash password failed", err)
			return
		}
		role := objects.RoleUser
		if count == 0 {
			role = objects.RoleAdmin
		}
		user = &objects.User{Username: req.Username, PasswordHash: string(hash), Role: role}
		if err := h.users.Create(ctx, user); err != nil {
			serverError(c, "create user failed", err)
			return
		}
	} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "密码错误"})
		return
	}

	token, err := h.auth.Sign(user)
	if err != nil {
		serverError(c, "sign token failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "username": user.Username, "role": user.Role},
	})
}

// Me GET /api/auth/me
func (h *Auth) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": user})
}
