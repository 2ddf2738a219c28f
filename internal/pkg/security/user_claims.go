package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserClaims 身份服务签发的 token 中携带的用户信息
type UserClaims struct {
	UserID uint64   `json:"user_id"`
	Email  string   `json:"email"`
	Name   string   `json:"name,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}
