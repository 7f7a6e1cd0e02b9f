package utils

import (
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v2"
)

// OrderedMapToString formats an ordered map into a single bracketed string.
// Example: [n=20 cps=3.33 cv=0.01]
func OrderedMapToString(data *orderedmap.OrderedMap[string, any]) string {
	if data == nil || data.Len() == 0 {
		return "[]"
	}

	var b strings.Builder
	b.WriteByte('[')
	for el := data.Front(); el != nil; el = el.Next() {
		if el != data.Front() {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", el.Key, el.Value)
	}
	b.WriteByte(']')
	return b.String()
}
