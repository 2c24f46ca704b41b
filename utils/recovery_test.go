package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeGoWithError_ReportsErrorAndPanic(t *testing.T) {
	logger := NewNopLogger()

	errs := make(chan error, 2)
	SafeGoWithError(logger, "returns error", func() error {
		return errors.New("boom")
	}, func(err error) { errs <- err })

	SafeGoWithError(logger, "panics", func() error {
		panic("kaboom")
	}, func(err error) { errs <- err })

	var got []string
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			got = append(got, err.Error())
		case <-time.After(time.Second):
			t.Fatal("onError was not called")
		}
	}
	assert.Contains(t, got, "boom")
	assert.Contains(t, got, "panics: panic: kaboom")
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})
	SafeGo(NewNopLogger(), "panics", func() {
		defer close(done)
		panic("kaboom")
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "goroutine did not run")
	}
}
