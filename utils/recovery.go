package utils

import (
	"fmt"
	"runtime/debug"
)

// RecoverFromPanic recovers from panics and logs them. It must be deferred
// directly by the goroutine it protects.
func RecoverFromPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered in %s: %v\nStack trace:\n%s", context, r, string(debug.Stack()))
	}
}

// SafeGo runs a goroutine with panic recovery
func SafeGo(logger *Logger, context string, fn func()) {
	go func() {
		defer RecoverFromPanic(logger, context)
		fn()
	}()
}

// SafeGoWithError runs a goroutine with panic recovery and error handling.
// A panic is converted into an error and handed to onError as well.
func SafeGoWithError(logger *Logger, context string, fn func() error, onError func(error)) {
	go func() {
		var err error
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic recovered in %s: %v\nStack trace:\n%s", context, r, string(debug.Stack()))
				err = fmt.Errorf("%s: panic: %v", context, r)
			}
			if err != nil {
				logger.Error("Error in %s: %v", context, err)
				if onError != nil {
					onError(err)
				}
			}
		}()
		err = fn()
	}()
}
