package remote

// ConnectionProvider exposes the live remote connection, if any.
type ConnectionProvider interface {
	IsConnected() bool
	Adapter() Adapter
}

// DisconnectedProvider is the provider used before any session exists.
type DisconnectedProvider struct{}

func (DisconnectedProvider) IsConnected() bool {
	return false
}

func (DisconnectedProvider) Adapter() Adapter {
	return nil
}
