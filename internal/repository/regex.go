package repository

import "regexp"

// regexQuote escapes user input before it is embedded in a $regex
// filter, so search terms are matched literally.
func regexQuote(s string) string {
	return regexp.QuoteMeta(s)
}
