// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

// Package gravatar builds avatar URLs for accounts that have not uploaded one.
//
// Gravatar keys images on the MD5 hex digest of the lowercased email address.
// MD5 is mandated by the Gravatar API here, not chosen for security.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/pixshare/pixshare/pkg/textnorm"
)

const (
	baseURL = "https://www.gravatar.com/avatar"

	// defaultStyle picks the generated "identicon" image for addresses
	// without a registered Gravatar.
	defaultStyle = "identicon"

	// defaultSize is the rendered avatar edge length in pixels.
	defaultSize = 256
)

// URL returns the Gravatar image URL for an email address.
func URL(email string) string {
	digest := md5.Sum([]byte(textnorm.Email(email)))
	return fmt.Sprintf("%s/%s?d=%s&s=%d", baseURL, hex.EncodeToString(digest[:]), defaultStyle, defaultSize)
}
