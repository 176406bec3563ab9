package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getUserID
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// The JWT middleware stores the claim with whatever numeric type the JSON
// decoder produced, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// claimantID renders a user ID as the opaque claimant string used by the
// in-memory lock engine and the websocket protocol.
func claimantID(userID uint64) string {
    return strconv.FormatUint(userID, 10)
}

// eventTopicID renders an event's database ID as the opaque topic/event
// identifier used by the lock engine.
func eventTopicID(eventID uint64) string {
    return strconv.FormatUint(eventID, 10)
}
