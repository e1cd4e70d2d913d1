package proposal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// parseSignature builds a single-method ABI from "name(type,...)". Tuple
// arguments need a full ABI.
func parseSignature(sig string) (*abi.ABI, string, error) {
	sig = strings.TrimSpace(sig)
	open := strings.Index(sig, "(")
	if open <= 0 || !strings.HasSuffix(sig, ")") {
		return nil, "", fmt.Errorf("invalid signature %q", sig)
	}
	name := sig[:open]
	body := sig[open+1 : len(sig)-1]
	if strings.ContainsAny(body, "()") {
		return nil, "", fmt.Errorf("signature %q uses tuples, provide an abi instead", sig)
	}

	var inputs abi.Arguments
	if strings.TrimSpace(body) != "" {
		for i, raw := range strings.Split(body, ",") {
			fields := strings.Fields(raw)
			if len(fields) == 0 {
				return nil, "", fmt.Errorf("empty argument type in %q", sig)
			}
			typ, err := abi.NewType(fields[0], "", nil)
			if err != nil {
				return nil, "", fmt.Errorf("invalid argument type %q: %w", fields[0], err)
			}
			argName := fmt.Sprintf("arg%d", i)
			if len(fields) > 1 {
				argName = fields[len(fields)-1]
			}
			inputs = append(inputs, abi.Argument{Name: argName, Type: typ})
		}
	}

	method := abi.NewMethod(name, name, abi.Function, "nonpayable", false, false, inputs, nil)
	return &abi.ABI{Methods: map[string]abi.Method{name: method}}, name, nil
}

// abiCache parses each referenced ABI file once
type abiCache struct {
	parsed map[string]*abi.ABI
}

func newABICache() *abiCache {
	return &abiCache{parsed: make(map[string]*abi.ABI)}
}

// load accepts inline JSON, a bare ABI file or a compiler artifact with an
// "abi" field.
func (c *abiCache) load(baseDir, ref string) (*abi.ABI, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "[") {
		return parseABI([]byte(ref))
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	if parsed, ok := c.parsed[path]; ok {
		return parsed, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read abi file: %w", err)
	}
	parsed, err := parseABI(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi file %s: %w", ref, err)
	}
	c.parsed[path] = parsed
	return parsed, nil
}

func parseABI(data []byte) (*abi.ABI, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("{")) {
		var artifact struct {
			ABI json.RawMessage `json:"abi"`
		}
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, err
		}
		if len(artifact.ABI) == 0 {
			return nil, fmt.Errorf("artifact has no abi field")
		}
		data = artifact.ABI
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
