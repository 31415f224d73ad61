package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DuplicateKeyError reports a key defined twice in one JSON object.
type DuplicateKeyError struct {
	// Path is a JSON pointer to the object holding the key.
	Path string
	Key  string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q at %s", e.Key, e.Path)
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type dupFrame struct {
	kind         containerKind
	self         string
	key          string
	keys         map[string]struct{}
	expectingKey bool
	index        int
}

// DetectDuplicateKeys scans JSON tokens and returns every duplicated key,
// in document order. Parse errors are returned as-is.
func DetectDuplicateKeys(data []byte) ([]*DuplicateKeyError, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var dups []*DuplicateKeyError
	var stack []dupFrame

	// valueDone marks the end of one value inside the enclosing container.
	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := &stack[len(stack)-1]
		if top.kind == kindObject {
			top.expectingKey = true
		} else {
			top.index++
		}
	}
	childName := func() string {
		if len(stack) == 0 {
			return ""
		}
		top := stack[len(stack)-1]
		if top.kind == kindArray {
			return strconv.Itoa(top.index)
		}
		return top.key
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return dups, err
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{':
				stack = append(stack, dupFrame{kind: kindObject, self: childName(), keys: map[string]struct{}{}, expectingKey: true})
			case '[':
				stack = append(stack, dupFrame{kind: kindArray, self: childName()})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
				valueDone()
			}
		case string:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				if top.kind == kindObject && top.expectingKey {
					if _, seen := top.keys[v]; seen {
						dups = append(dups, &DuplicateKeyError{Path: pointer(stack), Key: v})
					}
					top.keys[v] = struct{}{}
					top.expectingKey = false
					top.key = v
					continue
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
	return dups, nil
}

// pointer renders the path to the innermost container.
func pointer(stack []dupFrame) string {
	var parts []string
	for _, f := range stack[1:] {
		parts = append(parts, strings.ReplaceAll(strings.ReplaceAll(f.self, "~", "~0"), "/", "~1"))
	}
	return "/" + strings.Join(parts, "/")
}
