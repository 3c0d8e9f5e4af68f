package app

import (
	"fmt"

	"github.com/odyssey-erp/orcamento/internal/shared"
)

var errRouteNotFound = fmt.Errorf("route: %w", shared.ErrNotFound)
