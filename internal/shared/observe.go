package shared

// OperationObserver counts domain operations by outcome.
type OperationObserver interface {
	ObserveOperation(module, operation string, err error)
}

// Observe reports the outcome to o when set and returns err untouched.
func Observe(o OperationObserver, module, operation string, err error) error {
	if o != nil {
		o.ObserveOperation(module, operation, err)
	}
	return err
}
