// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Server binary for the Towns GitHub bridge.
package main

import "github.com/towns-protocol/github-bot/cmd/server/app"

func main() {
	app.Execute()
}
