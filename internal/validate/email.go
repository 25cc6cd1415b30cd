// Package validate holds pure input checks shared by the account service.
package validate

import "regexp"

// emailRe accepts lowercase local parts and domains only; input is not folded.
// $ matches only at the very end, so a trailing newline is rejected.
var emailRe = regexp.MustCompile(`^[_a-z0-9-]+(\.[_a-z0-9-]+)*@[a-z0-9-]+(\.[a-z0-9-]+)*(\.[a-z]{2,4})$`)

// IsValidEmail reports whether s is a syntactically valid email address.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(s)
}
