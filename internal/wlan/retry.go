package wlan

// RetryPolicy bounds reconnect attempts after recoverable disconnects.
// The manager guards it with its state mutex.
type RetryPolicy struct {
	Max int

	count    int
	retrying bool
}

// Decide records a recoverable disconnect and reports whether another
// attempt should be made. Once the budget is spent the policy resets
// itself and gives up.
func (r *RetryPolicy) Decide() bool {
	r.count++
	if r.count <= r.Max {
		r.retrying = true
		return true
	}
	r.count = 0
	r.retrying = false
	return false
}

// Reset clears the counter after a successful connection.
func (r *RetryPolicy) Reset() {
	r.count = 0
	r.retrying = false
}

func (r *RetryPolicy) Count() int     { return r.count }
func (r *RetryPolicy) Retrying() bool { return r.retrying }
