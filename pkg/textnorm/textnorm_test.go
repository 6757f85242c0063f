// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixshare/pixshare/pkg/textnorm"
)

/*
TestUsername verifies Unicode compatibility folding and case collapse.
*/
func TestUsername(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "alice", "alice"},
		{"mixed_case", "ALiCe", "alice"},
		{"surrounding_space", "  alice  ", "alice"},
		{"fullwidth", "ａｌｉｃｅ", "alice"},
		{"ligature", "oﬃce", "office"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textnorm.Username(tt.input))
		})
	}
}

/*
TestEmail verifies case and whitespace folding without local-part rewriting.
*/
func TestEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", textnorm.Email(" Alice@Example.COM "))
	assert.Equal(t, "a.li+ce@example.com", textnorm.Email("A.li+ce@example.com"))
}
