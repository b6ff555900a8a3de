package errors

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrorDump is a structured snapshot of an error chain for log output.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	MySQLNumber  uint16 `json:"mysql_number,omitempty"`
	MySQLState   string `json:"mysql_state,omitempty"`
	MySQLMessage string `json:"mysql_message,omitempty"`
}

// Dump walks the error chain and extracts anything useful for debugging,
// including driver-level detail when a MySQL error is buried in the chain.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		d.MySQLNumber = myErr.Number
		d.MySQLState = string(myErr.SQLState[:])
		d.MySQLMessage = myErr.Message
	}

	return d
}
