// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package gravatar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixshare/pixshare/pkg/gravatar"
)

/*
TestURL verifies the digest matches Gravatar's published reference vector and
that addresses are folded before hashing.
*/
func TestURL(t *testing.T) {
	// Reference vector from the Gravatar documentation.
	url := gravatar.URL("MyEmailAddress@example.com ")
	assert.Contains(t, url, "0bc83cb571cd1c50ba6f3e8a78ef1346")
	assert.Contains(t, url, "d=identicon")

	// Case and whitespace do not change the identity.
	assert.Equal(t, gravatar.URL("alice@example.com"), gravatar.URL("  ALICE@example.COM "))
}
