package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
)

// Envelope represents the common response contract for listing endpoints.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// MessageBody is the flat payload used by the reschedule endpoint.
type MessageBody struct {
	Message string `json:"message"`
}

// AlternativesBody carries readable alternative times back to the caller.
type AlternativesBody struct {
	AlternativeTimesText string `json:"alternativeTimesText"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	noStore(c)
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// Message responds with a flat {message} body.
func Message(c *gin.Context, status int, message string) {
	noStore(c)
	c.JSON(status, MessageBody{Message: message})
}

// ErrorMessage converts err and responds with its status and a flat {message} body.
func ErrorMessage(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	Message(c, appErr.Status, appErr.Message)
}

// Alternatives responds with HTTP 200 and a readable list of alternative times.
func Alternatives(c *gin.Context, text string) {
	noStore(c)
	c.JSON(http.StatusOK, AlternativesBody{AlternativeTimesText: text})
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
