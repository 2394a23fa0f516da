// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

package controlplane

import (
	"html/template"
	"net/http"
)

var callbackTmpl = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Towns GitHub Bot</title>
  <style>
    body { font-family: -apple-system, sans-serif; display: flex; justify-content: center; margin-top: 15vh; }
    .card { max-width: 28rem; padding: 2rem; border: 1px solid #ddd; border-radius: 8px; text-align: center; }
  </style>
</head>
<body>
  <div class="card">
    <h2>Towns GitHub Bot</h2>
    <p>{{.Message}}</p>
  </div>
</body>
</html>
`))

// renderCallbackPage writes the minimal HTML page shown at the end of the
// OAuth flow.
func renderCallbackPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackTmpl.Execute(w, struct{ Message string }{Message: message})
}
