package notify

// Gate decides whether a resolved pair can be notified and returns the
// recipient address. A user without an email is reported the same way as a
// missing user.
func Gate(r Resolved) (recipient string, ok bool) {
	if !r.User.HasEmail() {
		return "", false
	}
	return r.User.Email, true
}
