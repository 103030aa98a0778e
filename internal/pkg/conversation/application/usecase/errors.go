package usecase

import "fmt"

// ErrPersistence indicates a store failure inside the engine; the user
// input itself may have been fine.
var ErrPersistence = fmt.Errorf("conversation use case persistence error")

// ErrInvalidInput is returned for calls missing tenant or contact.
var ErrInvalidInput = fmt.Errorf("conversation: tenant and contact are required")
