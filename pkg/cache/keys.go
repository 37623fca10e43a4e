package cache

// Keyer builds cache keys. All components share one Keyer so keys written
// by the CLI and by the server are interchangeable.
type Keyer interface {
	// ImageKey is the key for the raw bytes behind an image reference.
	ImageKey(ref string) string

	// ArtifactKey is the key for an encoded photocard.
	ArtifactKey(requestHash string, opts ArtifactKeyOpts) string

	// HTTPKey is the key for a cached JSON response of an external service.
	HTTPKey(namespace, key string) string
}

// ArtifactKeyOpts are the output parameters that distinguish artifacts
// rendered from the same resolved request.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ImageKey hashes the reference so arbitrary URLs and data URIs are safe keys.
func (DefaultKeyer) ImageKey(ref string) string {
	return hashKey("image", ref)
}

// ArtifactKey combines the request hash with the output options.
func (DefaultKeyer) ArtifactKey(requestHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", requestHash, opts)
}

// HTTPKey keeps the namespace and key readable.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
