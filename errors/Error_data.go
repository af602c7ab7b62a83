package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrDataI is context attached to an Error, such as the hash or height a failure relates to.
type ErrDataI interface {
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

type ErrData map[string]interface{}

// Error lists the entries sorted by key.
func (e ErrData) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, e[k]))
	}

	return strings.Join(pairs, " ")
}

func (e ErrData) SetData(key string, value interface{}) {
	e[key] = value
}

func (e ErrData) GetData(key string) interface{} {
	return e[key]
}
