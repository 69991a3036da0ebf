package cmsloader

import (
	"github.com/labstack/gommon/log"
)

// Logger is the logging surface used across the loader. It is satisfied by
// *log.Logger from gommon and by echo.Logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const logHeader = `${time_rfc3339} ${level} ${prefix}`

// NewLogger returns a gommon logger at INFO, or DEBUG when debug is set.
func NewLogger(debug bool) *log.Logger {
	l := log.New("cmsloader")
	l.SetHeader(logHeader)
	if debug {
		l.SetLevel(log.DEBUG)
	} else {
		l.SetLevel(log.INFO)
	}
	return l
}
