package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		maxRetries   int
		wantErr      bool
		wantAttempts int
	}{
		{"first try", 0, 3, false, 1},
		{"recovers", 2, 3, false, 3},
		{"gives up", 5, 3, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := retryWithBackoff(func() error {
				attempts++
				if attempts <= tt.failures {
					return errors.New("connection refused")
				}
				return nil
			}, tt.maxRetries, time.Millisecond, zaptest.NewLogger(t), "test dependency")

			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr {
				assert.ErrorContains(t, err, "test dependency failed after 3 attempts")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCommand()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["reindex"])
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestLoadConfig_MissingFile(t *testing.T) {
	configPath = "does-not-exist.yaml"
	defer func() { configPath = "" }()

	_, err := loadConfig()
	assert.Error(t, err)
}
