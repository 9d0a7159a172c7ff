package kv

// Consensus states are keyed by client id, a zero separator and the big
// endian revision number and height, so a cursor over a client prefix walks
// its heights in order.
var (
	clientStatesBucket    = []byte("client-states")
	consensusStatesBucket = []byte("consensus-states")
	clientMetadataBucket  = []byte("client-metadata")

	// Metadata keys.
	clientSequenceKey = []byte("client-sequence")
)

const keySeparator = byte(0)
