package keymintclient

// Ratelimit describes the token-bucket policy attached to a key.
// Type selects the algorithm variant: "fast" trades consistency for latency,
// "consistent" checks the limit on every verification.
type Ratelimit struct {
	Type           string `json:"type"`
	Limit          int64  `json:"limit"`
	RefillRate     int64  `json:"refillRate"`
	RefillInterval int64  `json:"refillInterval"`
}

// KeyCreateRequest is the request body for creating a key.
// Optional members are pointers (or nil maps) so that disabled sections are
// absent from the marshaled JSON rather than null or zero.
type KeyCreateRequest struct {
	APIID     string                 `json:"apiId"`
	Bytes     int64                  `json:"bytes"`
	Prefix    *string                `json:"prefix,omitempty"`
	OwnerID   *string                `json:"ownerId,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Expires   *int64                 `json:"expires,omitempty"` // epoch milliseconds
	Ratelimit *Ratelimit             `json:"ratelimit,omitempty"`
}

// KeyCreateResponse is returned from key creation. Key is the plaintext
// secret; this is the only place the service ever returns it.
type KeyCreateResponse struct {
	KeyID string `json:"keyId"`
	Key   string `json:"key"`
}

// Key holds the metadata of an existing key. The secret itself is never
// part of this representation.
type Key struct {
	ID        string                 `json:"id"`
	APIID     string                 `json:"apiId"`
	Start     string                 `json:"start"` // prefix + first few characters, for identification
	OwnerID   *string                `json:"ownerId"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt int64                  `json:"createdAt"`
	Expires   *int64                 `json:"expires"`
	Ratelimit *Ratelimit             `json:"ratelimit,omitempty"`
}

// KeyUpdateRequest carries the mutable subset of a key. Semantics match
// KeyCreateRequest: absent means "leave unchanged" server-side is not
// supported, the full mutable set is sent on every update.
type KeyUpdateRequest struct {
	OwnerID   *string                `json:"ownerId,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Expires   *int64                 `json:"expires,omitempty"`
	Ratelimit *Ratelimit             `json:"ratelimit,omitempty"`
}

// KeyListResponse is the page of key metadata for an API.
type KeyListResponse struct {
	Keys  []Key `json:"keys"`
	Total int64 `json:"total"`
}

// APICreateRequest is the request body for creating an API (a key namespace).
type APICreateRequest struct {
	Name string `json:"name"`
}

// API represents a key namespace.
type API struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}
