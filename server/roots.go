package server

// Root is a workspace boundary reported by the peer.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// ListRootsResult is the peer's reply to a roots/list request.
type ListRootsResult struct {
	Roots []Root `json:"roots"`
}
