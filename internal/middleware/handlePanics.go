package middleware

import (
	"fmt"
	"net/http"

	"github.com/dfryer1193/flatblog/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandlePanics turns a panic in a handler into a 500 response. The panic
// value is logged, never sent to the client.
func HandlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		evt := log.Error().
			Str("requestID", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path)
		if err, ok := recovered.(error); ok {
			evt = evt.Err(err)
		} else {
			evt = evt.Str("panic", fmt.Sprint(recovered))
		}
		evt.Msg("Recovered from panic")

		c.AbortWithStatusJSON(http.StatusInternalServerError, api.Error{Error: http.StatusText(http.StatusInternalServerError)})
	}
}
