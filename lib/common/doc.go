// Package common holds the ambient pieces shared by the command line tools:
// the dragonboat logger factory with mctl's line format and the runtime
// configuration.
package common
