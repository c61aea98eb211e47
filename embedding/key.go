// File: embedding/key.go
package embedding

import (
	"encoding/hex"
	"fmt"

	"github.com/hioload-ai/coderuntime/api"
)

// Key identifies one cached embedding by the parse cache's stable id
// and the model that produced the vector. The same stable id cached
// under two models never collides.
type Key = api.EmbeddingKey

func keyString(k Key) string {
	return fmt.Sprintf("%s:%s", hex.EncodeToString(k.StableID[:]), k.ModelID)
}
