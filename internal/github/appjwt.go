// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"crypto/rsa"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// appJWTLifetime is the validity window GitHub allows for App JWTs.
const appJWTLifetime = 10 * time.Minute

// CreateAppJWT creates a short-lived JWT for authenticating as the GitHub App
func CreateAppJWT(appID int64, privateKey *rsa.PrivateKey) (string, error) {
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(appJWTLifetime).Unix(),
		"iss": strconv.FormatInt(appID, 10),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	jwtToken, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("unable to sign JWT token: %v", err)
	}

	return jwtToken, nil
}
