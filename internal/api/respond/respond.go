package respond

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

// Success represents a standard structure for successful responses.
type Success struct {
	Result interface{} `json:"result"`
}

// Error represents a standard structure for error responses.
// Field names the offending input for validation errors.
type Error struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// JSON sends a JSON response with the specified HTTP status code and data.
// It uses the Gin context to encode the data into JSON format.
func JSON(c *ginext.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// OK sends a 200 OK JSON response, wrapping the given result in a Success struct.
func OK(c *ginext.Context, result interface{}) {
	JSON(c, http.StatusOK, Success{Result: result})
}

// NoContent sends an empty 204 response.
func NoContent(c *ginext.Context) {
	c.Status(http.StatusNoContent)
}

// Fail sends an error JSON response with the specified HTTP status code.
// The error message is wrapped in an Error struct.
func Fail(c *ginext.Context, status int, err error) {
	JSON(c, status, Error{Message: err.Error()})
}

// Invalid sends a 400 Bad Request response naming the offending field.
func Invalid(c *ginext.Context, field string, err error) {
	JSON(c, http.StatusBadRequest, Error{Message: err.Error(), Field: field})
}
