package mockapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userKey = "campus.user"

// requireBearer rejects requests without a valid access token and stores the token's
// user in the gin context.
func (s *Server) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, http.StatusUnauthorized, "Требуется авторизация")
			return
		}

		claims, err := s.tokens.ParseAccess(token)
		if err != nil {
			s.log.Debug("rejected token", "error", err)
			abort(c, http.StatusUnauthorized, "Сессия недействительна")
			return
		}

		u, ok := s.users.get(claims.Subject)
		if !ok {
			abort(c, http.StatusUnauthorized, "Пользователь не найден")
			return
		}

		c.Set(userKey, u)
		c.Next()
	}
}

func currentUser(c *gin.Context) *user {
	v, _ := c.Get(userKey)
	u, _ := v.(*user)
	return u
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// abort writes the backend's error shape, {"error": message}.
func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
