package middleware

// identity.go provides the user identity lookup shared by the rate limiter
// key strategies.  The value is whatever JWTAuth stored in the context; an
// unauthenticated request keys as "anon".

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user for rate limit keys.
func currentUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case nil:
        return "anon"
    case string:
        if v == "" {
            return "anon"
        }
        return v
    default:
        return fmt.Sprint(v)
    }
}
