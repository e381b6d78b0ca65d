package util

import (
	"time"

	"mkwa_fitness_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims 宿主平台签发的令牌载荷。本服务只做校验，不负责签发登录态。
type Claims struct {
	MemberID uint             `json:"member_id"`
	Role     model.MemberRole `json:"role"`
	Email    string           `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(memberID uint, role model.MemberRole, email, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		MemberID: memberID,
		Role:     role,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, err
}

func GetMemberFromContext(c *gin.Context) *Claims {
	member, exists := c.Get("member")
	if !exists {
		return nil
	}
	claims, ok := member.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
