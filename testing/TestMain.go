// Package testing switches the application into test mode when blank-imported by a test.
package testing

import "os"

func init() {
	if os.Getenv("ORCAMENTO_TEST_MODE") == "" {
		_ = os.Setenv("ORCAMENTO_TEST_MODE", "1")
	}
}
