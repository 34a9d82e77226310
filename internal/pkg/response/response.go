package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"

	"github.com/xxxsen/insintel/internal/model"
)

type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

// Success writes the {code,msg,data} envelope used by the chat state API.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes the enveloped failure; the HTTP status stays 200.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, AsCodeErr(uint32(code), message))
}

// Relay writes a backend JSON body untouched with the backend status code.
func Relay(c *gin.Context, status int, body []byte) {
	c.Data(status, "application/json", body)
}

// Fail writes the proxy failure shape {"error": message}.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, model.ErrorBody{Error: message})
}
