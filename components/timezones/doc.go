// Package timezones provides IANA time zone options as a named compute
// function, so schemas can declare `computed: {function: timezones}` instead
// of carrying hundreds of static options.
package timezones
