package http

import (
	"fmt"
	"strings"
)

// Method is one of the supported HTTP verbs.
type Method string

// Supported methods.
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// Capabilities describes whether a method may carry a request body and
// whether its response carries one.
type Capabilities struct {
	RequestBody  bool
	ResponseBody bool
}

// methodTable is read-only after package initialization.
var methodTable = map[Method]Capabilities{
	MethodGet:     {RequestBody: false, ResponseBody: true},
	MethodPost:    {RequestBody: true, ResponseBody: true},
	MethodPut:     {RequestBody: true, ResponseBody: true},
	MethodDelete:  {RequestBody: true, ResponseBody: true},
	MethodPatch:   {RequestBody: true, ResponseBody: true},
	MethodHead:    {RequestBody: false, ResponseBody: false},
	MethodConnect: {RequestBody: false, ResponseBody: true},
	MethodOptions: {RequestBody: false, ResponseBody: true},
	MethodTrace:   {RequestBody: false, ResponseBody: false},
}

// Methods returns the supported methods in a stable order.
func Methods() []Method {
	return []Method{
		MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch,
		MethodHead, MethodConnect, MethodOptions, MethodTrace,
	}
}

// LookupMethod resolves a method name case-insensitively.
func LookupMethod(name string) (Method, Capabilities, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(name)))
	caps, ok := methodTable[m]
	if !ok {
		return "", Capabilities{}, fmt.Errorf("%w: method %q is not supported", ErrConfiguration, name)
	}
	return m, caps, nil
}

// Capabilities returns the table entry for m. Unknown methods report no
// request or response body.
func (m Method) Capabilities() Capabilities {
	return methodTable[m]
}

// AcceptsBody reports whether a request body may be set for m.
func (m Method) AcceptsBody() bool {
	return methodTable[m].RequestBody
}

// ReturnsBody reports whether the response to m carries a body.
func (m Method) ReturnsBody() bool {
	return methodTable[m].ResponseBody
}

func (m Method) String() string {
	return string(m)
}
