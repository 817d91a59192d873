// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"

	"github.com/aarontxz/promptly/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server.New(new(service), applicationYAMLKey).ListenAndServe(ctx, cancel)
}
