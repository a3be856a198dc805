package chain

import (
	vo "sealpay/internal/domain/intent/valueobjects"
)

// Registry resolves the client serving a currency's network. Networks not
// wired at startup are reported as unconfigured, never silently mocked.
type Registry interface {
	ClientFor(currency vo.Currency) (Client, error)
}
