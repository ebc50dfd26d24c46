package descriptor

import (
	"strings"

	"github.com/morezero/intent-dispatch/pkg/transport"
)

// GetJSON extracts the body of a raw response when it is JSON. Status 204 and
// 205, a missing content-type header, or a content type without "json" all
// yield nil.
func GetJSON(res *transport.Response) any {
	if res == nil {
		return nil
	}
	if res.StatusCode == 204 || res.StatusCode == 205 {
		return nil
	}
	contentType, ok := res.Header("content-type")
	if !ok || !strings.Contains(contentType, "json") {
		return nil
	}
	return res.Body
}
