package router

import "fmt"

// UnsupportedParameterError is the synchronous, pre-dispatch validation
// failure raised when a caller asks for indirect mapping traversal — a
// capability this router never implements. No directory lookup or shard
// call happens before this is returned.
type UnsupportedParameterError struct {
	ParameterName string
	Value         any
}

func (e *UnsupportedParameterError) Error() string {
	return fmt.Sprintf("unsupported parameter %q: %v", e.ParameterName, e.Value)
}
