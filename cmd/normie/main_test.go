package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestExit(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
		logged   int
	}{
		{name: "clean shutdown", err: nil, expected: 0, logged: 0},
		{name: "listen failure", err: errors.New("listen tcp :5000: bind: address already in use"), expected: 1, logged: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)

			code := exit(zap.New(core), tt.err)

			assert.Equal(t, tt.expected, code)
			entries := logs.FilterMessage("server exited").FilterLevelExact(zapcore.ErrorLevel).All()
			assert.Len(t, entries, tt.logged)
			if tt.logged > 0 {
				assert.Equal(t, tt.err.Error(), entries[0].ContextMap()["error"])
			}
		})
	}
}
