package runtime

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// extractJSON pulls the text payload out of a tool call result and decodes
// it as generic JSON. Results carrying no text content, or text that isn't
// JSON, decode to nil without error: projection against them simply yields
// nothing.
func extractJSON(result *mcp.CallToolResult) (interface{}, error) {
	if result == nil {
		return nil, nil
	}

	var text string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			text += tc.Text
		}
	}
	if text == "" {
		return nil, nil
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, nil
	}
	return decoded, nil
}

// project implements `resultMapping[tool].pick` (§4.10): each path is a
// dotted sequence of keys applied to the decoded JSON. When an intermediate
// node is an array, the remaining path is applied to each element and the
// array shape is preserved. Keys absent in the source produce no entry, not
// null. Multiple paths merge into a single object of the same nested shape.
func project(value interface{}, paths []string) interface{} {
	var out interface{} = map[string]interface{}{}
	for _, path := range paths {
		sub, ok := buildPath(value, strings.Split(path, "."))
		if !ok {
			continue
		}
		out = deepMerge(out, sub)
	}
	return out
}

// buildPath descends value along keys, rebuilding only the traversed
// containers. Descending into an array does not consume a key: the
// remaining path is applied to every element, and the array's length and
// order are preserved even where an element lacks the remaining path.
func buildPath(value interface{}, keys []string) (interface{}, bool) {
	if len(keys) == 0 {
		return value, true
	}

	switch v := value.(type) {
	case map[string]interface{}:
		child, present := v[keys[0]]
		if !present {
			return nil, false
		}
		sub, ok := buildPath(child, keys[1:])
		if !ok {
			return nil, false
		}
		return map[string]interface{}{keys[0]: sub}, true
	case []interface{}:
		out := make([]interface{}, len(v))
		found := false
		for i, elem := range v {
			if sub, ok := buildPath(elem, keys); ok {
				out[i] = sub
				found = true
			} else {
				out[i] = map[string]interface{}{}
			}
		}
		if !found {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// deepMerge combines two projection fragments built from separate pick
// paths: maps unite by key, arrays unite index-wise, and a scalar overwrites
// whatever was there before (paths never collide on a leaf in practice,
// since that would mean two pick entries naming the exact same field).
func deepMerge(dst, src interface{}) interface{} {
	if dstMap, ok := dst.(map[string]interface{}); ok {
		if srcMap, ok := src.(map[string]interface{}); ok {
			for k, v := range srcMap {
				if existing, present := dstMap[k]; present {
					dstMap[k] = deepMerge(existing, v)
				} else {
					dstMap[k] = v
				}
			}
			return dstMap
		}
	}
	if dstArr, ok := dst.([]interface{}); ok {
		if srcArr, ok := src.([]interface{}); ok {
			n := len(dstArr)
			if len(srcArr) > n {
				n = len(srcArr)
			}
			out := make([]interface{}, n)
			for i := 0; i < n; i++ {
				var a, b interface{}
				if i < len(dstArr) {
					a = dstArr[i]
				}
				if i < len(srcArr) {
					b = srcArr[i]
				}
				switch {
				case a == nil:
					out[i] = b
				case b == nil:
					out[i] = a
				default:
					out[i] = deepMerge(a, b)
				}
			}
			return out
		}
	}
	return src
}
