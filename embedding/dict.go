// File: embedding/dict.go
//
// trainDictionary builds a small zstd dictionary from the first N
// cached vectors, per spec.md §4.7. klauspost/compress/zstd can
// *use* a prebuilt dictionary (WithEncoderDict/WithDecoderDicts) but
// does not implement the COVER training algorithm itself, so this
// samples representative byte windows from the training set directly
// rather than running a full frequency-analysis trainer — a smaller
// win than a trained dictionary proper, but still a real shared
// prefix the encoder can reference, and it keeps encode/decode
// symmetric without depending on an external zstd binary.
package embedding

const (
	// DictTrainingSize is the number of vectors sampled to build the
	// dictionary, per spec.md §4.7's "first-N vectors" wording.
	DictTrainingSize = 64
	// maxDictBytes caps how much of the sampled corpus is kept as the
	// dictionary body.
	maxDictBytes = 32 * 1024
)

// trainDictionary samples windows from samples (raw pre-compression
// vector bytes) into a single dictionary buffer bounded by
// maxDictBytes.
func trainDictionary(samples [][]byte) []byte {
	if len(samples) == 0 {
		return nil
	}
	dict := make([]byte, 0, maxDictBytes)
	perSample := maxDictBytes / len(samples)
	if perSample == 0 {
		perSample = 1
	}
	for _, s := range samples {
		take := perSample
		if take > len(s) {
			take = len(s)
		}
		if len(dict)+take > maxDictBytes {
			take = maxDictBytes - len(dict)
		}
		if take <= 0 {
			break
		}
		dict = append(dict, s[:take]...)
	}
	return dict
}
