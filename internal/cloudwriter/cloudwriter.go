package cloudwriter

// CloudWriter buffers bytes destined for a single object in a remote store.
// The object becomes visible on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}
